// Package report filters sales history by date range and computes the
// aggregate statistics shown on the sales report screen. Everything
// here is pure: callers fetch the transactions and pass them in.
package report

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Item is one snapshotted line of a reported transaction.
type Item struct {
	MedicineName string  `json:"medicine_name"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
}

// Transaction is one completed sale with its line items.
type Transaction struct {
	Number        string    `json:"transaction_number"`
	Date          time.Time `json:"date"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Items         []Item    `json:"items"`
}

// Range kinds.
const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeCustom = "custom"
)

// Range selects a window of transaction history. Start and End are only
// set for custom ranges and are date-granular.
type Range struct {
	Kind  string
	Start time.Time
	End   time.Time
}

// ParseRange validates query parameters into a Range. Custom ranges
// need both dates in YYYY-MM-DD form.
func ParseRange(kind, start, end string, loc *time.Location) (Range, error) {
	switch kind {
	case "", RangeToday:
		return Range{Kind: RangeToday}, nil
	case RangeWeek, RangeMonth:
		return Range{Kind: kind}, nil
	case RangeCustom:
		from, err := time.ParseInLocation(dateLayout, start, loc)
		if err != nil {
			return Range{}, fmt.Errorf("start must be in YYYY-MM-DD format")
		}
		to, err := time.ParseInLocation(dateLayout, end, loc)
		if err != nil {
			return Range{}, fmt.Errorf("end must be in YYYY-MM-DD format")
		}
		return Range{Kind: RangeCustom, Start: from, End: to}, nil
	default:
		return Range{}, fmt.Errorf("range must be one of today, week, month, custom")
	}
}

// Filter keeps the transactions falling inside the range, evaluated
// against now's calendar day. "Today" starts at local midnight; week
// and month reach 7 and 30 days back from midnight; a custom range is
// inclusive of the entire end day.
func Filter(txs []Transaction, r Range, now time.Time) []Transaction {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var from, to time.Time
	switch r.Kind {
	case RangeToday:
		from = midnight
	case RangeWeek:
		from = midnight.AddDate(0, 0, -7)
	case RangeMonth:
		from = midnight.AddDate(0, 0, -30)
	case RangeCustom:
		from = r.Start
		to = time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 23, 59, 59, int(999*time.Millisecond), r.End.Location())
	default:
		return txs
	}

	filtered := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// Stats are the aggregate figures over a filtered set.
type Stats struct {
	TotalSales              float64 `json:"total_sales"`
	TransactionCount        int     `json:"transaction_count"`
	AverageTransactionValue float64 `json:"average_transaction_value"`
	TopSellingMedicine      string  `json:"top_selling_medicine"`
}

// Summarize computes the stats over the filtered set. The top seller is
// the medicine with the highest total quantity across all line items,
// ties broken by first-encountered order; "N/A" for an empty set.
func Summarize(txs []Transaction) Stats {
	stats := Stats{TopSellingMedicine: "N/A"}
	if len(txs) == 0 {
		return stats
	}

	quantities := make(map[string]int64)
	var order []string
	for _, t := range txs {
		stats.TotalSales += t.Amount
		for _, item := range t.Items {
			if _, seen := quantities[item.MedicineName]; !seen {
				order = append(order, item.MedicineName)
			}
			quantities[item.MedicineName] += item.Quantity
		}
	}
	stats.TransactionCount = len(txs)
	stats.AverageTransactionValue = stats.TotalSales / float64(stats.TransactionCount)

	var best int64
	for _, name := range order {
		if quantities[name] > best {
			best = quantities[name]
			stats.TopSellingMedicine = name
		}
	}
	return stats
}
