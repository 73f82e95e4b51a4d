package api

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"easypharma/m/domain"
)

type signupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role"`
	PharmacyName    string `json:"pharmacy_name,omitempty"`
	PharmacyAddress string `json:"pharmacy_address,omitempty"`
	PharmacyPhone   string `json:"pharmacy_phone,omitempty"`
}

type authResponse struct {
	Token    string           `json:"token"`
	User     domain.User      `json:"user"`
	Pharmacy *domain.Pharmacy `json:"pharmacy,omitempty"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "full_name, email, password and role are required")
		return
	}
	if !domain.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, "role must be pharmacy, supplier, doctor or customer")
		return
	}
	if req.Role == domain.RolePharmacy && strings.TrimSpace(req.PharmacyName) == "" {
		respondError(w, http.StatusBadRequest, "pharmacy_name is required for pharmacy accounts")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start registration")
		return
	}
	defer tx.Rollback()

	email := strings.ToLower(req.Email)
	res, err := tx.Exec(`INSERT INTO users (full_name, email, password, phone, role) VALUES (?, ?, ?, ?, ?)`,
		req.FullName, email, hashed, req.Phone, req.Role)
	if err != nil {
		respondError(w, http.StatusConflict, "email already exists")
		return
	}
	userID, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}

	var pharmacy *domain.Pharmacy
	if req.Role == domain.RolePharmacy {
		res, err := tx.Exec(`INSERT INTO pharmacies (name, address, phone, user_id) VALUES (?, ?, ?, ?)`,
			req.PharmacyName, req.PharmacyAddress, req.PharmacyPhone, userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create pharmacy")
			return
		}
		pharmacyID, err := res.LastInsertId()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create pharmacy")
			return
		}
		pharmacy = &domain.Pharmacy{
			ID:      pharmacyID,
			Name:    req.PharmacyName,
			Address: req.PharmacyAddress,
			Phone:   req.PharmacyPhone,
			UserID:  userID,
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}

	token, err := h.generateToken(userID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Token:    token,
		User:     domain.User{ID: userID, FullName: req.FullName, Email: email, Phone: req.Phone, Role: req.Role},
		Pharmacy: pharmacy,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT id, full_name, email, password, phone, role FROM users WHERE email = ?`, strings.ToLower(req.Email))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := r.Context().Value(ctxUserID).(int64)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if _, err := h.db.Exec(`UPDATE users SET password = ? WHERE id = ?`, hashed, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
