package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/logger"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("seed", "config/seed.dev.yaml", "Path to seed data file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	seed, err := loadSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	logger.Info("--- Seeding Database ---")

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM countries").Scan(&count); err != nil {
		log.Fatalf("Failed to count countries: %v", err)
	}
	if count > 0 {
		logger.Info("Database already has countries. Skipping.", "count", count)
		return
	}

	if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		return apply(ctx, tx, seed)
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("Seeding completed",
		"countries", len(seed.Countries),
		"balances", len(seed.Balances),
		"fee_rules", len(seed.FeeRules),
	)
}

func apply(ctx context.Context, tx pgx.Tx, seed *SeedFile) error {
	now := time.Now().UTC()

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"countries"},
		[]string{"name", "iso_code", "phone_code", "currency", "is_active"},
		pgx.CopyFromRows(countryRows(seed)),
	); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, "SELECT iso_code, id FROM countries")
	if err != nil {
		return err
	}
	countryIDs := make(map[string]int32)
	var iso string
	var id int32
	if _, err := pgx.ForEachRow(rows, []any{&iso, &id}, func() error {
		countryIDs[iso] = id
		return nil
	}); err != nil {
		return err
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"company_country_balances"},
		[]string{"company_id", "country_id", "partner_code", "available", "held", "created_at", "updated_at"},
		pgx.CopyFromRows(balanceRows(seed, countryIDs, now)),
	); err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"fee_rules"},
		[]string{"country_id", "kind", "fee_model", "flat_fee", "percent_fee", "min_fee", "max_fee",
			"version", "is_active", "approved_at", "approved_by", "created_at"},
		pgx.CopyFromRows(feeRuleRows(seed, countryIDs, now)),
	)
	return err
}
