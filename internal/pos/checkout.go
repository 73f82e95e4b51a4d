package pos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"easypharma/m/domain"
)

var (
	// ErrEmptyCart rejects a checkout with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPayment rejects a payment method outside the closed set.
	ErrInvalidPayment = errors.New("invalid payment method")
	// ErrInventoryNotFound means a cart line references a batch that no
	// longer exists for the pharmacy.
	ErrInventoryNotFound = errors.New("inventory record not found")
	// ErrInsufficientStock means the conditional decrement found less
	// stock than the cart wants; the whole checkout is rolled back.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Checkout converts carts into durable transactions. Every write of a
// checkout happens in one database transaction: the header insert, the
// line snapshots and the stock decrements all commit or roll back
// together, and each decrement is conditional on enough stock remaining
// so two concurrent checkouts can never drive a batch negative.
type Checkout struct {
	db *sqlx.DB
}

func NewCheckout(db *sqlx.DB) *Checkout {
	return &Checkout{db: db}
}

// Request carries everything a checkout needs; identity is explicit
// rather than read from ambient session state.
type Request struct {
	PharmacyID     int64
	UserID         int64
	PaymentMethod  string
	CustomerName   string
	CustomerPhone  string
	IdempotencyKey string
	Lines          []Line
}

// Receipt reports a completed (or replayed) checkout.
type Receipt struct {
	TransactionID     int64   `json:"transaction_id"`
	TransactionNumber string  `json:"transaction_number"`
	TotalAmount       float64 `json:"total_amount"`
	ItemCount         int     `json:"item_count"`
	Duplicate         bool    `json:"duplicate,omitempty"`
}

type lineSnapshot struct {
	SellingPrice float64 `db:"selling_price"`
	MedicineName string  `db:"medicine_name"`
}

// Process performs the checkout. On ErrInsufficientStock or any other
// failure nothing is written and the caller's cart stays intact.
func (c *Checkout) Process(ctx context.Context, req Request) (Receipt, error) {
	if len(req.Lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return Receipt{}, ErrInvalidPayment
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	// A retried checkout with the same idempotency key replays the
	// already-created transaction instead of selling twice. Keys are
	// scoped per pharmacy; another pharmacy reusing the same key is a
	// fresh sale, not a replay.
	if req.IdempotencyKey != "" {
		var prior domain.Transaction
		err := tx.GetContext(ctx, &prior,
			`SELECT id, pharmacy_id, transaction_number, total_amount FROM transactions WHERE pharmacy_id = ? AND idempotency_key = ?`,
			req.PharmacyID, req.IdempotencyKey)
		if err == nil {
			var itemCount int
			if err := tx.GetContext(ctx, &itemCount,
				`SELECT COUNT(*) FROM transaction_lines WHERE transaction_id = ?`, prior.ID); err != nil {
				return Receipt{}, fmt.Errorf("idempotency lookup: %w", err)
			}
			return Receipt{
				TransactionID:     prior.ID,
				TransactionNumber: prior.TransactionNumber,
				TotalAmount:       prior.TotalAmount,
				ItemCount:         itemCount,
				Duplicate:         true,
			}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	// Snapshot names and unit prices inside the transaction so the
	// recorded lines match what is actually decremented.
	snapshots := make([]lineSnapshot, len(req.Lines))
	var total float64
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return Receipt{}, ErrEmptyCart
		}
		var snap lineSnapshot
		err := tx.GetContext(ctx, &snap,
			`SELECT i.selling_price, m.name AS medicine_name
             FROM inventory i JOIN medicines m ON m.id = i.medicine_id
             WHERE i.id = ? AND i.pharmacy_id = ?`,
			line.InventoryID, req.PharmacyID)
		if errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, ErrInventoryNotFound
		}
		if err != nil {
			return Receipt{}, fmt.Errorf("snapshot inventory %d: %w", line.InventoryID, err)
		}
		snapshots[i] = snap
		total += float64(line.Quantity) * snap.SellingPrice
	}

	now := time.Now()
	number := generateTransactionNumber(now)
	var txnID int64
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (pharmacy_id, transaction_number, customer_name, customer_phone, total_amount, payment_method, idempotency_key, created_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.PharmacyID, number, req.CustomerName, req.CustomerPhone, total,
		req.PaymentMethod, nullIfEmpty(req.IdempotencyKey), req.UserID, now.Format(time.RFC3339))
	if err != nil {
		return Receipt{}, fmt.Errorf("insert transaction: %w", err)
	}
	txnID, err = res.LastInsertId()
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction id: %w", err)
	}

	for i, line := range req.Lines {
		res, err := tx.ExecContext(ctx,
			`UPDATE inventory
             SET quantity_in_stock = quantity_in_stock - ?, updated_at = CURRENT_TIMESTAMP
             WHERE id = ? AND pharmacy_id = ? AND quantity_in_stock >= ?`,
			line.Quantity, line.InventoryID, req.PharmacyID, line.Quantity)
		if err != nil {
			return Receipt{}, fmt.Errorf("decrement inventory %d: %w", line.InventoryID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return Receipt{}, fmt.Errorf("decrement inventory %d: %w", line.InventoryID, err)
		}
		if rows == 0 {
			return Receipt{}, ErrInsufficientStock
		}

		snap := snapshots[i]
		lineTotal := float64(line.Quantity) * snap.SellingPrice
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_lines (transaction_id, inventory_id, medicine_name, quantity, unit_price, total_price)
             VALUES (?, ?, ?, ?, ?, ?)`,
			txnID, line.InventoryID, snap.MedicineName, line.Quantity, snap.SellingPrice, lineTotal); err != nil {
			return Receipt{}, fmt.Errorf("insert transaction line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("commit checkout: %w", err)
	}

	return Receipt{
		TransactionID:     txnID,
		TransactionNumber: number,
		TotalAmount:       total,
		ItemCount:         len(req.Lines),
	}, nil
}

// generateTransactionNumber builds a human-scannable unique number. The
// random fragment keeps retries from colliding on the same millisecond;
// the UNIQUE column constraint is the final guarantee.
func generateTransactionNumber(now time.Time) string {
	fragment := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), fragment)
}

func nullIfEmpty(val string) *string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return &val
}
