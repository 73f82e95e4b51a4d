package pos

import "sync"

// Item is the inventory view a cart line is built from: one in-stock
// batch joined with its medicine name. Stock is the quantity recorded
// at selection time; the authoritative check happens at checkout.
type Item struct {
	InventoryID  int64   `db:"inventory_id" json:"inventory_id"`
	MedicineID   int64   `db:"medicine_id" json:"medicine_id"`
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
	Stock        int64   `db:"stock" json:"stock"`
}

// Line is one prospective sale line in a cart.
type Line struct {
	Item
	Quantity int64   `json:"quantity"`
	Total    float64 `json:"total"`
}

// Cart accumulates prospective sale lines for one user before checkout.
// Safe for concurrent use.
type Cart struct {
	mu            sync.Mutex
	lines         []*Line
	customerName  string
	customerPhone string
}

// Add puts one unit of the item in the cart, incrementing an existing
// line if present. The returned flag is true when the line was already
// at the recorded stock level and nothing was added; callers surface
// that as a warning, not an error, since stock can change before
// checkout anyway.
func (c *Cart) Add(item Item) (capped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range c.lines {
		if line.InventoryID == item.InventoryID {
			if line.Quantity >= item.Stock {
				return true
			}
			line.Item = item
			line.Quantity++
			line.Total = float64(line.Quantity) * line.UnitPrice
			return false
		}
	}
	if item.Stock < 1 {
		return true
	}
	c.lines = append(c.lines, &Line{Item: item, Quantity: 1, Total: item.UnitPrice})
	return false
}

// SetQuantity sets a line's quantity, clamped to the recorded stock
// level. A quantity of zero or less removes the line. Returns false if
// no line references the inventory record.
func (c *Cart) SetQuantity(inventoryID, qty int64) bool {
	if qty <= 0 {
		return c.Remove(inventoryID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range c.lines {
		if line.InventoryID == inventoryID {
			if qty > line.Stock {
				qty = line.Stock
			}
			line.Quantity = qty
			line.Total = float64(qty) * line.UnitPrice
			return true
		}
	}
	return false
}

// Remove deletes the line referencing the inventory record.
func (c *Cart) Remove(inventoryID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, line := range c.lines {
		if line.InventoryID == inventoryID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Total is the sum of all line totals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Total
	}
	return total
}

// SetCustomer records optional customer details for the next checkout.
func (c *Cart) SetCustomer(name, phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customerName = name
	c.customerPhone = phone
}

// Clear empties all lines and resets customer details.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.customerName = ""
	c.customerPhone = ""
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Snapshot returns a copy of the lines and customer details.
func (c *Cart) Snapshot() (lines []Line, customerName, customerPhone string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines = make([]Line, len(c.lines))
	for i, line := range c.lines {
		lines[i] = *line
	}
	return lines, c.customerName, c.customerPhone
}

// Store holds the ephemeral per-user carts of active POS sessions.
type Store struct {
	mu    sync.Mutex
	carts map[int64]*Cart
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{carts: make(map[int64]*Cart)}
}

// Get returns the user's cart, creating it if needed.
func (s *Store) Get(userID int64) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		cart = &Cart{}
		s.carts[userID] = cart
	}
	return cart
}

// Drop discards the user's cart entirely.
func (s *Store) Drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
