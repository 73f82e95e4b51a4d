package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"easypharma/m/domain"
	"easypharma/m/internal/pos"
)

type posItemRow struct {
	InventoryID          int64   `db:"inventory_id" json:"inventory_id"`
	MedicineID           int64   `db:"medicine_id" json:"medicine_id"`
	MedicineName         string  `db:"medicine_name" json:"medicine_name"`
	GenericName          string  `db:"generic_name" json:"generic_name"`
	Dosage               string  `db:"dosage" json:"dosage"`
	Form                 string  `db:"form" json:"form"`
	BrandName            string  `db:"brand_name" json:"brand_name"`
	CategoryName         string  `db:"category_name" json:"category_name"`
	RequiresPrescription bool    `db:"requires_prescription" json:"requires_prescription"`
	SellingPrice         float64 `db:"selling_price" json:"selling_price"`
	QuantityInStock      int64   `db:"quantity_in_stock" json:"quantity_in_stock"`
}

// posMedicines lists the caller pharmacy's sellable inventory: in-stock
// batches joined with medicine, brand and category names.
func (h *Handler) posMedicines(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}

	sqlQuery := `SELECT i.id AS inventory_id, i.medicine_id, i.selling_price, i.quantity_in_stock,
                m.name AS medicine_name, m.generic_name, m.dosage, m.form, m.requires_prescription,
                COALESCE(b.name, 'Generic') AS brand_name,
                COALESCE(c.name, 'Uncategorized') AS category_name
            FROM inventory i
            JOIN medicines m ON m.id = i.medicine_id
            LEFT JOIN brands b ON b.id = m.brand_id
            LEFT JOIN categories c ON c.id = m.category_id
            WHERE i.pharmacy_id = ? AND i.quantity_in_stock > 0`
	args := []any{pharmacyID}

	if query := strings.TrimSpace(r.URL.Query().Get("query")); query != "" {
		like := "%" + query + "%"
		sqlQuery += ` AND (m.name LIKE ? OR m.generic_name LIKE ? OR b.name LIKE ?)`
		args = append(args, like, like, like)
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		sqlQuery += ` AND c.name = ?`
		args = append(args, category)
	}
	if brand := strings.TrimSpace(r.URL.Query().Get("brand")); brand != "" {
		sqlQuery += ` AND b.name = ?`
		args = append(args, brand)
	}
	sqlQuery += ` ORDER BY m.name`

	items := []posItemRow{}
	if err := h.db.Select(&items, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medicines")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

type cartResponse struct {
	Lines         []pos.Line `json:"lines"`
	Total         float64    `json:"total"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Warning       string     `json:"warning,omitempty"`
}

func (h *Handler) cartResponse(cart *pos.Cart, warning string) cartResponse {
	lines, name, phone := cart.Snapshot()
	return cartResponse{
		Lines:         lines,
		Total:         cart.Total(),
		CustomerName:  name,
		CustomerPhone: phone,
		Warning:       warning,
	}
}

func (h *Handler) userCart(r *http.Request) *pos.Cart {
	uid := r.Context().Value(ctxUserID).(int64)
	return h.carts.Get(uid)
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(h.userCart(r), ""))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	h.userCart(r).Clear()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

func (h *Handler) setCartCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cart := h.userCart(r)
	cart.SetCustomer(payload.Name, payload.Phone)
	respondJSON(w, http.StatusOK, h.cartResponse(cart, ""))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	var payload struct {
		InventoryID int64 `json:"inventory_id"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.InventoryID == 0 {
		respondError(w, http.StatusBadRequest, "inventory_id is required")
		return
	}

	var item pos.Item
	err := h.db.Get(&item, `SELECT i.id AS inventory_id, i.medicine_id, m.name AS medicine_name,
                i.selling_price AS unit_price, i.quantity_in_stock AS stock
            FROM inventory i JOIN medicines m ON m.id = i.medicine_id
            WHERE i.id = ? AND i.pharmacy_id = ?`, payload.InventoryID, pharmacyID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "inventory record not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory")
		return
	}

	cart := h.userCart(r)
	warning := ""
	if capped := cart.Add(item); capped {
		warning = "only " + strconv.FormatInt(item.Stock, 10) + " units available"
	}
	respondJSON(w, http.StatusOK, h.cartResponse(cart, warning))
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	inventoryID, err := strconv.ParseInt(chi.URLParam(r, "inventoryID"), 10, 64)
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

	cart := h.userCart(r)
	if !cart.SetQuantity(inventoryID, payload.Quantity) && payload.Quantity > 0 {
		respondError(w, http.StatusNotFound, "item not in cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(cart, ""))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	inventoryID, err := strconv.ParseInt(chi.URLParam(r, "inventoryID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	cart := h.userCart(r)
	cart.Remove(inventoryID)
	respondJSON(w, http.StatusOK, h.cartResponse(cart, ""))
}

type checkoutRequest struct {
	PaymentMethod  string `json:"payment_method"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy) {
		return
	}
	pharmacyID, ok := h.requirePharmacy(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cart := h.userCart(r)
	lines, customerName, customerPhone := cart.Snapshot()
	if req.CustomerName != "" {
		customerName = req.CustomerName
	}
	if req.CustomerPhone != "" {
		customerPhone = req.CustomerPhone
	}

	uid := r.Context().Value(ctxUserID).(int64)
	receipt, err := h.checkout.Process(r.Context(), pos.Request{
		PharmacyID:     pharmacyID,
		UserID:         uid,
		PaymentMethod:  req.PaymentMethod,
		CustomerName:   customerName,
		CustomerPhone:  customerPhone,
		IdempotencyKey: req.IdempotencyKey,
		Lines:          lines,
	})
	switch {
	case errors.Is(err, pos.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart is empty")
		return
	case errors.Is(err, pos.ErrInvalidPayment):
		respondError(w, http.StatusBadRequest, "payment_method must be cash, card or upi")
		return
	case errors.Is(err, pos.ErrInventoryNotFound):
		respondError(w, http.StatusConflict, "inventory record no longer exists")
		return
	case errors.Is(err, pos.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock for one or more items")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "unable to process payment")
		return
	}

	// The cart survives failures so the sale can be retried; it is
	// only discarded once the transaction is durable.
	cart.Clear()

	status := http.StatusCreated
	if receipt.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, receipt)
}
