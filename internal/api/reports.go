package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"easypharma/m/domain"
	"easypharma/m/internal/report"
)

type transactionLineRow struct {
	TransactionID int64   `db:"transaction_id"`
	MedicineName  string  `db:"medicine_name"`
	Quantity      int64   `db:"quantity"`
	UnitPrice     float64 `db:"unit_price"`
	TotalPrice    float64 `db:"total_price"`
}

// fetchSalesHistory loads the pharmacy's full transaction history with
// line items, newest first.
func (h *Handler) fetchSalesHistory(pharmacyID int64) ([]report.Transaction, error) {
	var txns []domain.Transaction
	err := h.db.Select(&txns, `SELECT id, pharmacy_id, transaction_number, customer_name, customer_phone,
                total_amount, payment_method, created_by, created_at
            FROM transactions WHERE pharmacy_id = ? ORDER BY created_at DESC`, pharmacyID)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return []report.Transaction{}, nil
	}

	ids := make([]int64, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	linesQuery, args, err := sqlx.In(`SELECT transaction_id, medicine_name, quantity, unit_price, total_price
            FROM transaction_lines WHERE transaction_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	linesQuery = h.db.Rebind(linesQuery)

	var rows []transactionLineRow
	if err := h.db.Select(&rows, linesQuery, args...); err != nil {
		return nil, err
	}
	itemsByTxn := make(map[int64][]report.Item)
	for _, row := range rows {
		itemsByTxn[row.TransactionID] = append(itemsByTxn[row.TransactionID], report.Item{
			MedicineName: row.MedicineName,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalPrice:   row.TotalPrice,
		})
	}

	history := make([]report.Transaction, len(txns))
	for i, t := range txns {
		date, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("bad transaction timestamp %q: %w", t.CreatedAt, err)
		}
		history[i] = report.Transaction{
			Number:        t.TransactionNumber,
			Date:          date.In(time.Local),
			CustomerName:  t.CustomerName,
			CustomerPhone: t.CustomerPhone,
			Amount:        t.TotalAmount,
			PaymentMethod: t.PaymentMethod,
			Items:         itemsByTxn[t.ID],
		}
	}
	return history, nil
}

func (h *Handler) filteredSales(w http.ResponseWriter, r *http.Request) ([]report.Transaction, bool) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return nil, false
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return nil, false
	}

	q := r.URL.Query()
	rng, err := report.ParseRange(q.Get("range"), q.Get("start"), q.Get("end"), time.Local)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	history, err := h.fetchSalesHistory(pharmacyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch sales report")
		return nil, false
	}
	return report.Filter(history, rng, time.Now()), true
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	filtered, ok := h.filteredSales(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": filtered,
		"stats":        report.Summarize(filtered),
	})
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	filtered, ok := h.filteredSales(w, r)
	if !ok {
		return
	}

	stamp := time.Now().Format("2006-01-02")
	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sales-report-%s.xlsx", stamp))
		if err := report.WriteXLSX(w, filtered); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to export report")
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sales-report-%s.csv", stamp))
	if err := report.WriteCSV(w, filtered); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to export report")
	}
}

// revenueSince runs the aggregate in SQL; used by the dashboard-style
// daily and monthly endpoints.
func (h *Handler) revenueSince(pharmacyID int64, since time.Time) (float64, int64, error) {
	var revenue float64
	var count int64
	err := h.db.QueryRow(`SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM transactions WHERE pharmacy_id = ? AND created_at >= ?`,
		pharmacyID, since.Format(time.RFC3339)).Scan(&revenue, &count)
	return revenue, count, err
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	revenue, count, err := h.revenueSince(pharmacyID, midnight)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch daily sales")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"revenue": revenue, "sales_count": count})
}

func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	revenue, count, err := h.revenueSince(pharmacyID, firstOfMonth)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch monthly sales")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"revenue": revenue, "sales_count": count})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	uid := r.Context().Value(ctxUserID).(int64)
	role, _ := r.Context().Value(ctxRole).(string)

	if role != domain.RolePharmacy {
		var user domain.User
		if err := h.db.Get(&user, `SELECT id, full_name, email, phone, role, created_at FROM users WHERE id = ?`, uid); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load profile")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"role": role, "user": user})
		return
	}

	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}

	now := time.Now()
	today := now.Format(domain.ExpiryLayout)
	soon := domain.ExpiryWindowEnd(now)

	var totalItems, lowStock, expiringSoon, expired int64
	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&totalItems, `SELECT COUNT(*) FROM inventory WHERE pharmacy_id = ?`, []any{pharmacyID}},
		{&lowStock, `SELECT COUNT(*) FROM inventory WHERE pharmacy_id = ? AND quantity_in_stock <= minimum_stock_level`, []any{pharmacyID}},
		{&expiringSoon, `SELECT COUNT(*) FROM inventory WHERE pharmacy_id = ? AND expiry_date > ? AND expiry_date <= ?`, []any{pharmacyID, today, soon}},
		{&expired, `SELECT COUNT(*) FROM inventory WHERE pharmacy_id = ? AND expiry_date != '' AND expiry_date < ?`, []any{pharmacyID, today}},
	}
	for _, c := range counts {
		if err := h.db.Get(c.dest, c.query, c.args...); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load dashboard")
			return
		}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	revenue, count, err := h.revenueSince(pharmacyID, midnight)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"role":                role,
		"total_items":         totalItems,
		"low_stock_items":     lowStock,
		"expiring_soon_items": expiringSoon,
		"expired_items":       expired,
		"today_revenue":       revenue,
		"today_transactions":  count,
	})
}
