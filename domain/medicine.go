package domain

type Brand struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}

// Medicine is read-mostly catalog data shared by every pharmacy.
type Medicine struct {
	ID                   int64  `db:"id" json:"id"`
	Name                 string `db:"name" json:"name"`
	GenericName          string `db:"generic_name" json:"generic_name"`
	Dosage               string `db:"dosage" json:"dosage"`
	Form                 string `db:"form" json:"form"`
	BrandID              *int64 `db:"brand_id" json:"brand_id,omitempty"`
	CategoryID           *int64 `db:"category_id" json:"category_id,omitempty"`
	RequiresPrescription bool   `db:"requires_prescription" json:"requires_prescription"`
}
