package domain

// Accepted payment methods at checkout.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"
)

// ValidPaymentMethod reports whether method is in the closed payment set.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// Transaction is an immutable record of a completed sale.
type Transaction struct {
	ID                int64   `db:"id" json:"id"`
	PharmacyID        int64   `db:"pharmacy_id" json:"pharmacy_id"`
	TransactionNumber string  `db:"transaction_number" json:"transaction_number"`
	CustomerName      string  `db:"customer_name" json:"customer_name"`
	CustomerPhone     string  `db:"customer_phone" json:"customer_phone"`
	TotalAmount       float64 `db:"total_amount" json:"total_amount"`
	PaymentMethod     string  `db:"payment_method" json:"payment_method"`
	CreatedBy         int64   `db:"created_by" json:"created_by"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
}

// TransactionLine snapshots one sold item at the moment of sale. The
// inventory reference is nullable so history survives batch removal,
// and the name and prices are copies, never recomputed.
type TransactionLine struct {
	ID            int64   `db:"id" json:"id"`
	TransactionID int64   `db:"transaction_id" json:"transaction_id"`
	InventoryID   *int64  `db:"inventory_id" json:"inventory_id,omitempty"`
	MedicineName  string  `db:"medicine_name" json:"medicine_name"`
	Quantity      int64   `db:"quantity" json:"quantity"`
	UnitPrice     float64 `db:"unit_price" json:"unit_price"`
	TotalPrice    float64 `db:"total_price" json:"total_price"`
}
