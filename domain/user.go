package domain

// Roles a user can sign up as.
const (
	RolePharmacy = "pharmacy"
	RoleSupplier = "supplier"
	RoleDoctor   = "doctor"
	RoleCustomer = "customer"
)

// ValidRole reports whether role is one of the supported account types.
func ValidRole(role string) bool {
	switch role {
	case RolePharmacy, RoleSupplier, RoleDoctor, RoleCustomer:
		return true
	}
	return false
}

type User struct {
	ID        int64  `json:"id" db:"id"`
	FullName  string `json:"full_name" db:"full_name"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"password,omitempty" db:"password"`
	Phone     string `json:"phone,omitempty" db:"phone"`
	Role      string `json:"role" db:"role"`
	CreatedAt string `json:"created_at,omitempty" db:"created_at"`
}
