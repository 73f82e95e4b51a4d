package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// LoadCatalog ingests the CSV into the brands, categories and medicines
// tables, ignoring duplicates. Expected columns:
// name, generic_name, dosage, form, brand, category, requires_prescription.
func LoadCatalog(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Warn().Err(err).Str("path", csvPath).Msg("catalog seed skipped")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Warn().Err(err).Msg("unable to read catalog header")
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Warn().Err(err).Msg("unable to start catalog transaction")
		return
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("unable to read catalog row")
			continue
		}
		if len(record) < 7 {
			continue
		}
		name := strings.TrimSpace(record[0])
		generic := strings.TrimSpace(record[1])
		dosage := strings.TrimSpace(record[2])
		form := strings.TrimSpace(record[3])
		brand := strings.TrimSpace(record[4])
		category := strings.TrimSpace(record[5])
		requiresRx := strings.EqualFold(strings.TrimSpace(record[6]), "true")

		if name == "" {
			continue
		}

		brandID, err := upsertNamed(tx, "brands", brand)
		if err != nil {
			log.Warn().Err(err).Str("brand", brand).Msg("unable to seed brand")
			continue
		}
		categoryID, err := upsertNamed(tx, "categories", category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("unable to seed category")
			continue
		}

		if _, err := tx.Exec(`INSERT OR IGNORE INTO medicines (name, generic_name, dosage, form, brand_id, category_id, requires_prescription) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			name, generic, dosage, form, brandID, categoryID, requiresRx); err != nil {
			log.Warn().Err(err).Str("medicine", name).Msg("unable to insert medicine")
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("unable to commit catalog seed")
	} else {
		log.Info().Int("rows", rows).Msg("seeded medicine catalog")
	}
}

// upsertNamed inserts a by-name row if missing and returns its id, or nil
// when the name is blank.
func upsertNamed(tx *sqlx.Tx, table, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO `+table+` (name) VALUES (?)`, name); err != nil {
		return nil, err
	}
	var id int64
	if err := tx.Get(&id, `SELECT id FROM `+table+` WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &id, nil
}
