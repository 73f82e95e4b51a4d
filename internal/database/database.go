package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", dsn).Msg("failed to connect to database")
	}
	// The embedded driver serializes writes through a single connection.
	db.SetMaxOpenConns(1)
	return db
}
