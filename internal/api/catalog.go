package api

import (
	"net/http"
	"strings"

	"easypharma/m/domain"
)

type medicineView struct {
	ID                   int64  `db:"id" json:"id"`
	Name                 string `db:"name" json:"name"`
	GenericName          string `db:"generic_name" json:"generic_name"`
	Dosage               string `db:"dosage" json:"dosage"`
	Form                 string `db:"form" json:"form"`
	BrandName            string `db:"brand_name" json:"brand_name"`
	CategoryName         string `db:"category_name" json:"category_name"`
	RequiresPrescription bool   `db:"requires_prescription" json:"requires_prescription"`
}

func (h *Handler) searchMedicines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	sqlQuery := `SELECT m.id, m.name, m.generic_name, m.dosage, m.form, m.requires_prescription,
                COALESCE(b.name, 'Generic') AS brand_name,
                COALESCE(c.name, 'Uncategorized') AS category_name
            FROM medicines m
            LEFT JOIN brands b ON b.id = m.brand_id
            LEFT JOIN categories c ON c.id = m.category_id`
	var args []any
	if query != "" {
		like := "%" + query + "%"
		sqlQuery += ` WHERE m.name LIKE ? OR m.generic_name LIKE ? OR b.name LIKE ?`
		args = append(args, like, like, like)
	}
	sqlQuery += ` ORDER BY m.name LIMIT 50`

	medicines := []medicineView{}
	if err := h.db.Select(&medicines, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to search medicines")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

type medicineRequest struct {
	Name                 string `json:"name"`
	GenericName          string `json:"generic_name"`
	Dosage               string `json:"dosage"`
	Form                 string `json:"form"`
	Brand                string `json:"brand"`
	Category             string `json:"category"`
	RequiresPrescription bool   `json:"requires_prescription"`
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RolePharmacy, domain.RoleSupplier) {
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medicine")
		return
	}
	defer tx.Rollback()

	var brandID, categoryID *int64
	if name := strings.TrimSpace(req.Brand); name != "" {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO brands (name) VALUES (?)`, name); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create brand")
			return
		}
		var id int64
		if err := tx.Get(&id, `SELECT id FROM brands WHERE name = ?`, name); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create brand")
			return
		}
		brandID = &id
	}
	if name := strings.TrimSpace(req.Category); name != "" {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create category")
			return
		}
		var id int64
		if err := tx.Get(&id, `SELECT id FROM categories WHERE name = ?`, name); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create category")
			return
		}
		categoryID = &id
	}

	res, err := tx.Exec(`INSERT INTO medicines (name, generic_name, dosage, form, brand_id, category_id, requires_prescription) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.GenericName, req.Dosage, req.Form, brandID, categoryID, req.RequiresPrescription)
	if err != nil {
		respondError(w, http.StatusConflict, "medicine already exists")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medicine")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medicine")
		return
	}

	respondJSON(w, http.StatusCreated, domain.Medicine{
		ID:                   id,
		Name:                 req.Name,
		GenericName:          req.GenericName,
		Dosage:               req.Dosage,
		Form:                 req.Form,
		BrandID:              brandID,
		CategoryID:           categoryID,
		RequiresPrescription: req.RequiresPrescription,
	})
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands := []domain.Brand{}
	if err := h.db.Select(&brands, `SELECT id, name FROM brands ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list brands")
		return
	}
	respondJSON(w, http.StatusOK, brands)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories := []domain.Category{}
	if err := h.db.Select(&categories, `SELECT id, name, description FROM categories ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}
