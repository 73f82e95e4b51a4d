package domain

import (
	"math"
	"time"
)

// ExpiryLayout is the date format used for inventory expiry dates.
const ExpiryLayout = "2006-01-02"

// ExpiryWindowDays is how far ahead a batch counts as expiring soon.
const ExpiryWindowDays = 30

// InventoryRecord is a stocked batch of a medicine at one pharmacy.
type InventoryRecord struct {
	ID                int64   `db:"id" json:"id"`
	PharmacyID        int64   `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineID        int64   `db:"medicine_id" json:"medicine_id"`
	BatchNumber       string  `db:"batch_number" json:"batch_number"`
	ExpiryDate        string  `db:"expiry_date" json:"expiry_date"`
	PurchasePrice     float64 `db:"purchase_price" json:"purchase_price"`
	SellingPrice      float64 `db:"selling_price" json:"selling_price"`
	QuantityInStock   int64   `db:"quantity_in_stock" json:"quantity_in_stock"`
	MinimumStockLevel int64   `db:"minimum_stock_level" json:"minimum_stock_level"`
	SupplierName      string  `db:"supplier_name" json:"supplier_name"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
	UpdatedAt         string  `db:"updated_at" json:"updated_at"`
}

// IsLowStock reports whether the batch is at or below its reorder level.
func (r InventoryRecord) IsLowStock() bool {
	return r.QuantityInStock <= r.MinimumStockLevel
}

// IsExpired reports whether the batch's expiry date has passed.
// The expiry date marks local midnight of that day, so a batch expiring
// "today" is expired for the rest of the day.
func (r InventoryRecord) IsExpired(now time.Time) bool {
	expiry, ok := r.expiry(now.Location())
	if !ok {
		return false
	}
	return expiry.Before(now)
}

// IsExpiringSoon reports whether the batch expires within the next
// ExpiryWindowDays days. Mutually exclusive with IsExpired: a batch
// already past its expiry never reports as expiring soon.
func (r InventoryRecord) IsExpiringSoon(now time.Time) bool {
	expiry, ok := r.expiry(now.Location())
	if !ok {
		return false
	}
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	return days > 0 && days <= ExpiryWindowDays
}

// ExpiryWindowEnd returns the last expiry date that IsExpiringSoon
// still reports as within the window at now. A date d is in the window
// exactly when its midnight falls in (now, now+window hours], so the
// bound is computed from hours, not calendar days.
func ExpiryWindowEnd(now time.Time) string {
	return now.Add(ExpiryWindowDays * 24 * time.Hour).Format(ExpiryLayout)
}

func (r InventoryRecord) expiry(loc *time.Location) (time.Time, bool) {
	if r.ExpiryDate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(ExpiryLayout, r.ExpiryDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
