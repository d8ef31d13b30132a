// Command stripe-sync reconciles Stripe subscriptions into retainer records.
//
// It pages through all subscriptions from the Stripe API, normalizes active
// and trialing ones into monthly retainer amounts, and replaces every
// Stripe-managed retainer row in the database with the fresh snapshot.
// Manually created retainers are never touched. Intended to run from cron.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/digitalwiz/go-crm-backend/internal/config"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
	"github.com/digitalwiz/go-crm-backend/internal/stripe"
	"github.com/digitalwiz/go-crm-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.Stripe.SecretKey == "" {
		log.Error().Msg("STRIPE_SECRET_KEY is required")
		os.Exit(1)
	}

	// Pagination runs until Stripe signals the last page; interrupt cancels.
	// STRIPE_SYNC_TIMEOUT caps the run only when explicitly configured.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Stripe.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Stripe.SyncTimeout)
		defer cancel()
	}

	client := stripe.NewClient(cfg.Stripe)
	subs, err := client.ListAllSubscriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list subscriptions")
		os.Exit(1)
	}
	log.Info().Int("subscriptions", len(subs)).Msg("fetched from stripe")

	retainers := stripe.Reconcile(subs, time.Now().UTC())

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("open database")
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repo.AutoMigrate(db); err != nil {
		log.Error().Err(err).Msg("migrate schema")
		os.Exit(1)
	}

	if err := repo.ReplaceStripeRetainers(ctx, db, retainers); err != nil {
		log.Error().Err(err).Msg("replace stripe retainers")
		os.Exit(1)
	}

	log.Info().
		Int("subscriptions", len(subs)).
		Int("retainers", len(retainers)).
		Msg("stripe retainers reconciled")
}
