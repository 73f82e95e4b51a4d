package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"easypharma/m/domain"
)

type inventoryRequest struct {
	MedicineID        int64   `json:"medicine_id"`
	BatchNumber       string  `json:"batch_number"`
	ExpiryDate        string  `json:"expiry_date"`
	PurchasePrice     float64 `json:"purchase_price"`
	SellingPrice      float64 `json:"selling_price"`
	QuantityInStock   int64   `json:"quantity_in_stock"`
	MinimumStockLevel *int64  `json:"minimum_stock_level,omitempty"`
	SupplierName      string  `json:"supplier_name"`
}

func (h *Handler) addInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}

	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicineID == 0 || req.BatchNumber == "" || req.ExpiryDate == "" {
		respondError(w, http.StatusBadRequest, "medicine_id, batch_number and expiry_date are required")
		return
	}
	if req.SellingPrice <= 0 || req.QuantityInStock <= 0 {
		respondError(w, http.StatusBadRequest, "selling_price and quantity_in_stock are required")
		return
	}
	if _, err := time.Parse(domain.ExpiryLayout, req.ExpiryDate); err != nil {
		respondError(w, http.StatusBadRequest, "expiry_date must be in YYYY-MM-DD format")
		return
	}
	minStock := int64(10)
	if req.MinimumStockLevel != nil {
		if *req.MinimumStockLevel < 0 {
			respondError(w, http.StatusBadRequest, "minimum_stock_level must not be negative")
			return
		}
		minStock = *req.MinimumStockLevel
	}

	res, err := h.db.Exec(`INSERT INTO inventory (pharmacy_id, medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_in_stock, minimum_stock_level, supplier_name)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pharmacyID, req.MedicineID, req.BatchNumber, req.ExpiryDate, req.PurchasePrice,
		req.SellingPrice, req.QuantityInStock, minStock, req.SupplierName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to add inventory")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to add inventory")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "status": "inventory added"})
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}

	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BatchNumber == "" || req.ExpiryDate == "" || req.SellingPrice <= 0 {
		respondError(w, http.StatusBadRequest, "batch_number, expiry_date and selling_price are required")
		return
	}
	if _, err := time.Parse(domain.ExpiryLayout, req.ExpiryDate); err != nil {
		respondError(w, http.StatusBadRequest, "expiry_date must be in YYYY-MM-DD format")
		return
	}
	minStock := int64(10)
	if req.MinimumStockLevel != nil && *req.MinimumStockLevel >= 0 {
		minStock = *req.MinimumStockLevel
	}

	res, err := h.db.Exec(`UPDATE inventory
            SET batch_number = ?, expiry_date = ?, purchase_price = ?, selling_price = ?, minimum_stock_level = ?, supplier_name = ?, updated_at = CURRENT_TIMESTAMP
            WHERE id = ? AND pharmacy_id = ?`,
		req.BatchNumber, req.ExpiryDate, req.PurchasePrice, req.SellingPrice, minStock, req.SupplierName, id, pharmacyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update inventory")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory record not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// receiveStock adds received units to a batch. Sale-side decrements go
// through checkout only.
func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	var payload struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	res, err := h.db.Exec(`UPDATE inventory SET quantity_in_stock = quantity_in_stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND pharmacy_id = ?`,
		payload.Quantity, id, pharmacyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update stock")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory record not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "stock updated"})
}

type inventoryRow struct {
	domain.InventoryRecord
	MedicineName string `db:"medicine_name" json:"medicine_name"`
	BrandName    string `db:"brand_name" json:"brand_name"`
	CategoryName string `db:"category_name" json:"category_name"`
}

type inventoryStatusRow struct {
	inventoryRow
	LowStock     bool `json:"low_stock"`
	ExpiringSoon bool `json:"expiring_soon"`
	Expired      bool `json:"expired"`
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}

	rows := []inventoryRow{}
	err := h.db.Select(&rows, `SELECT i.id, i.pharmacy_id, i.medicine_id, i.batch_number, i.expiry_date,
                i.purchase_price, i.selling_price, i.quantity_in_stock, i.minimum_stock_level,
                i.supplier_name, i.created_at, i.updated_at,
                m.name AS medicine_name,
                COALESCE(b.name, 'Generic') AS brand_name,
                COALESCE(c.name, 'Uncategorized') AS category_name
            FROM inventory i
            JOIN medicines m ON m.id = i.medicine_id
            LEFT JOIN brands b ON b.id = m.brand_id
            LEFT JOIN categories c ON c.id = m.category_id
            WHERE i.pharmacy_id = ?
            ORDER BY m.name, i.expiry_date`, pharmacyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list inventory")
		return
	}

	// Status flags are independent of each other; a row can be both
	// expired and low on stock.
	now := time.Now()
	out := make([]inventoryStatusRow, len(rows))
	for i, row := range rows {
		out[i] = inventoryStatusRow{
			inventoryRow: row,
			LowStock:     row.IsLowStock(),
			ExpiringSoon: row.IsExpiringSoon(now),
			Expired:      row.IsExpired(now),
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = domain.ExpiryWindowDays
	}
	cutoff := time.Now().AddDate(0, 0, days).Format(domain.ExpiryLayout)

	items := []inventoryRow{}
	err := h.db.Select(&items, `SELECT i.id, i.pharmacy_id, i.medicine_id, i.batch_number, i.expiry_date,
                i.purchase_price, i.selling_price, i.quantity_in_stock, i.minimum_stock_level,
                i.supplier_name, i.created_at, i.updated_at,
                m.name AS medicine_name,
                COALESCE(b.name, 'Generic') AS brand_name,
                COALESCE(c.name, 'Uncategorized') AS category_name
            FROM inventory i
            JOIN medicines m ON m.id = i.medicine_id
            LEFT JOIN brands b ON b.id = m.brand_id
            LEFT JOIN categories c ON c.id = m.category_id
            WHERE i.pharmacy_id = ? AND i.expiry_date != '' AND i.expiry_date <= ?
            ORDER BY i.expiry_date ASC`, pharmacyID, cutoff)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch alerts")
		return
	}
	respondJSON(w, http.StatusOK, items)
}
