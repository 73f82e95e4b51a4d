package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"easypharma/m/internal/api"
	"easypharma/m/internal/config"
	"easypharma/m/internal/database"
	"easypharma/m/internal/migrations"
	"easypharma/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()

	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	seed.LoadCatalog(db, cfg.CatalogCSV)

	handler := api.New(db, cfg.Secret)

	log.Info().Str("port", cfg.HTTPPort).Msg("Easypharma POS server starting")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
