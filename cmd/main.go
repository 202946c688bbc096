package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"rentalsync/res/archive"
	"rentalsync/res/fetch/ical"
	"rentalsync/res/notification"
	"rentalsync/res/notification/slack"
	"rentalsync/res/store"
	"rentalsync/res/store/postgresql"
	"rentalsync/sys/reconcile"

	"github.com/joho/godotenv"
)

var logger = log.New(os.Stdout, "(cmd/main.go)", log.LstdFlags|log.LUTC|log.Llongfile)

// CONFIGURATION CONVENTION:
// All environment variable configuration is centralized in this file
// (cmd/main.go). This provides a single location to view all
// configuration requirements and ensures consistent handling of
// environment variables across the application.
//
// REQUIRED Environment Variables (minimum to run):
// - DATABASE_POSTGRES_URL: PostgreSQL connection string
//
// OPTIONAL Environment Variables (with graceful degradation, §6
// configuration surface):
// - FETCH_WINDOW_PAST_DAYS / FETCH_WINDOW_FUTURE_DAYS (defaults 90/180,
//   baked into res/fetch.Window; not independently configurable here)
// - ORCHESTRATOR_CONCURRENCY (default 5)
// - ORCHESTRATOR_WALL_CLOCK_BUDGET_SECONDS (default: no budget)
// - FETCHER_TIMEOUT_SECONDS (default 30)
// - SYNC_INTERVAL_MINUTES (if set, runs sync_all on this cadence instead
//   of once and exiting)
// - SLACK_WEBHOOK_URL / SLACK_TIMEOUT_SECONDS (notifier_enabled when set)
// - GCS_ARCHIVE_BUCKET_NAME / GOOGLE_APPLICATION_CREDENTIALS (session
//   archival; disabled when bucket is unset)

func main() {
	// Try multiple locations: current dir, rentalsync/, parent dir.
	err := godotenv.Load()
	if err != nil {
		err = godotenv.Load("rentalsync/.env")
	}
	if err != nil {
		err = godotenv.Load("../.env")
	}
	if err != nil {
		logger.Printf("Note: .env file not found, using system environment variables")
	}

	storeInstance, err := configStore()
	if err != nil {
		logger.Fatalf("Failed to connect to store: %v", err)
	}

	fetcher := ical.New(readDurationSeconds("FETCHER_TIMEOUT_SECONDS", 30))
	notifier := configNotifier()
	archiver := configArchiver()

	reconciler := reconcile.NewReconciler(storeInstance, fetcher, notifier, logger)
	sessionLogger := reconcile.NewSessionLogger(storeInstance, logger)
	orchestrator := reconcile.NewOrchestrator(storeInstance, reconciler, sessionLogger, logger, reconcile.Config{
		Concurrency:     readIntEnvVar("ORCHESTRATOR_CONCURRENCY", reconcile.DefaultConcurrency),
		WallClockBudget: readDurationSeconds("ORCHESTRATOR_WALL_CLOCK_BUDGET_SECONDS", 0),
	})

	ctx := context.Background()

	if len(os.Args) > 2 && os.Args[1] == "listing" {
		runOnce(ctx, orchestrator, storeInstance, archiver, os.Args[2])
		return
	}

	intervalMinutes := readIntEnvVar("SYNC_INTERVAL_MINUTES", 0)
	if intervalMinutes <= 0 {
		runAllOnce(ctx, orchestrator, storeInstance, archiver, store.TriggeredByManual)
		return
	}

	logger.Printf("starting periodic sync every %d minutes", intervalMinutes)
	runAllOnce(ctx, orchestrator, storeInstance, archiver, store.TriggeredByCron)
	ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		runAllOnce(ctx, orchestrator, storeInstance, archiver, store.TriggeredByCron)
	}
}

func runOnce(ctx context.Context, orchestrator *reconcile.Orchestrator, storeInstance store.Store, archiver archive.Archiver, listingID string) {
	outcome, err := orchestrator.SyncListing(ctx, listingID, nil)
	if err != nil {
		logger.Fatalf("sync_listing failed: %v", err)
	}
	logger.Printf("sync_listing %s: success=%v session=%s result=%+v", listingID, outcome.Success, outcome.SessionID, outcome.Result)
	archiveSession(ctx, storeInstance, archiver, outcome.SessionID)
}

func runAllOnce(ctx context.Context, orchestrator *reconcile.Orchestrator, storeInstance store.Store, archiver archive.Archiver, triggeredBy store.TriggeredBy) {
	outcome, err := orchestrator.SyncAll(ctx, triggeredBy)
	if err != nil {
		logger.Printf("sync_all failed: %v", err)
		return
	}
	logger.Printf("sync_all: success=%v session=%s listings=%d added=%d updated=%d replaced=%d deactivated=%d errors=%d",
		outcome.Success, outcome.SessionID, outcome.Summary.Listings, outcome.Summary.Added, outcome.Summary.Updated,
		outcome.Summary.Replaced, outcome.Summary.Deactivated, outcome.Summary.Errors)
	archiveSession(ctx, storeInstance, archiver, outcome.SessionID)
}

func archiveSession(ctx context.Context, storeInstance store.Store, archiver archive.Archiver, sessionID string) {
	session, err := storeInstance.SyncSessions().Get(ctx, sessionID)
	if err != nil {
		logger.Printf("archive: failed to reload session=%s: %v", sessionID, err)
		return
	}
	entries, err := storeInstance.LogEntries().ListBySession(ctx, sessionID)
	if err != nil {
		logger.Printf("archive: failed to load log entries session=%s: %v", sessionID, err)
		return
	}
	if err := archiver.Archive(ctx, session, entries); err != nil {
		logger.Printf("archive: failed to archive session=%s: %v", sessionID, err)
	}
}

func readRequiredEnvVar(name string) string {
	val, ok := os.LookupEnv(name)
	if !ok {
		logger.Fatalf("Env variable not set: %s", name)
	}
	return val
}

func readOptionalEnvVar(name, defaultValue string) string {
	val, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	return val
}

func readIntEnvVar(name string, defaultValue int) int {
	val, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		logger.Printf("invalid integer for %s=%q, using default %d", name, val, defaultValue)
		return defaultValue
	}
	return parsed
}

func readDurationSeconds(name string, defaultSeconds int) time.Duration {
	seconds := readIntEnvVar(name, defaultSeconds)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func configStore() (store.Store, error) {
	rawStore, err := postgresql.Connect(readRequiredEnvVar("DATABASE_POSTGRES_URL"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return rawStore, nil
}

func configNotifier() notification.Notifier {
	webhookURL := readOptionalEnvVar("SLACK_WEBHOOK_URL", "")
	if webhookURL == "" {
		logger.Printf("SLACK_WEBHOOK_URL not set, notifications disabled")
		return notification.Noop{}
	}

	timeout := readDurationSeconds("SLACK_TIMEOUT_SECONDS", 5)
	return slack.New(webhookURL, timeout, logger)
}

func configArchiver() archive.Archiver {
	bucketName := readOptionalEnvVar("GCS_ARCHIVE_BUCKET_NAME", "")
	if bucketName == "" {
		logger.Printf("GCS_ARCHIVE_BUCKET_NAME not set, session archival disabled")
		return archive.Noop{}
	}

	credentialsPath := readOptionalEnvVar("GOOGLE_APPLICATION_CREDENTIALS", "")

	ctx := context.Background()
	archiver, err := archive.NewGCS(ctx, bucketName, credentialsPath)
	if err != nil {
		logger.Printf("Failed to initialize GCS archiver: %v. Session archival disabled.", err)
		return archive.Noop{}
	}

	logger.Printf("GCS session archiver initialized successfully (bucket: %s)", bucketName)
	return archiver
}
