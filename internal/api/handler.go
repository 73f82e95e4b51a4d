package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"easypharma/m/internal/pos"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db       *sqlx.DB
	secret   string
	carts    *pos.Store
	checkout *pos.Checkout
}

// New constructs a Handler.
func New(db *sqlx.DB, secret string) *Handler {
	return &Handler{
		db:       db,
		secret:   secret,
		carts:    pos.NewStore(),
		checkout: pos.NewCheckout(db),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/catalog", func(r chi.Router) {
			r.Get("/medicines", h.searchMedicines)
			r.Post("/medicines", h.createMedicine)
			r.Get("/brands", h.listBrands)
			r.Get("/categories", h.listCategories)
		})

		pr.Route("/inventory", func(r chi.Router) {
			r.Post("/", h.addInventory)
			r.Get("/", h.listInventory)
			r.Get("/alerts", h.expiryAlerts)
			r.Put("/{id}", h.updateInventory)
			r.Post("/{id}/stock", h.receiveStock)
		})

		pr.Route("/pos", func(r chi.Router) {
			r.Get("/medicines", h.posMedicines)
			r.Get("/cart", h.viewCart)
			r.Delete("/cart", h.clearCart)
			r.Post("/cart/customer", h.setCartCustomer)
			r.Post("/cart/items", h.addCartItem)
			r.Put("/cart/items/{inventoryID}", h.setCartQuantity)
			r.Delete("/cart/items/{inventoryID}", h.removeCartItem)
			r.Post("/checkout", h.checkoutCart)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/sales", h.salesReport)
			r.Get("/sales/export", h.exportSales)
			r.Get("/sales/daily", h.dailySales)
			r.Get("/sales/monthly", h.monthlySales)
		})

		pr.Get("/dashboard", h.dashboard)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errPharmacyNotFound = errors.New("pharmacy not found")

// pharmacyID resolves the pharmacy owned by the authenticated user.
func (h *Handler) pharmacyID(r *http.Request) (int64, error) {
	uid := r.Context().Value(ctxUserID).(int64)
	var id int64
	err := h.db.Get(&id, `SELECT id FROM pharmacies WHERE user_id = ?`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errPharmacyNotFound
	}
	return id, err
}

// requirePharmacy resolves the caller's pharmacy and writes the error
// response itself: 404 when no pharmacy row exists for the user, 500
// when the lookup failed.
func (h *Handler) requirePharmacy(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := h.pharmacyID(r)
	switch {
	case errors.Is(err, errPharmacyNotFound):
		respondError(w, http.StatusNotFound, "pharmacy not found")
		return 0, false
	case err != nil:
		respondError(w, http.StatusInternalServerError, "unable to resolve pharmacy")
		return 0, false
	}
	return id, true
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
