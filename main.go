package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/db"
	"github.com/danielhkuo/detour/resolution"
	"github.com/danielhkuo/detour/router"
	"github.com/danielhkuo/detour/search"
	"github.com/danielhkuo/detour/signals"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Wire the consensus engine
	store := db.NewStore(dbConn)
	var fetcher resolution.Fetcher = &resolution.StaticFetcher{}
	if cfg.SearchURL != "" {
		fetcher = &search.Client{BaseURL: cfg.SearchURL, Limit: cfg.Policy.MaxAlternatives}
	} else {
		slog.Warn("no search URL configured; contested slots will escalate")
	}
	engine := resolution.NewEngine(cfg.Policy, fetcher, &signals.LogEmitter{}, store)

	// Rehydrate engine state from snapshots
	if err := hydrate(engine, store); err != nil {
		slog.Error("engine hydration failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(dbConn, cfg, engine)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// hydrate restores slot ledgers and resolution sessions from their
// persisted snapshots. Subjects owned by a session are restored through
// the session, not as slots.
func hydrate(engine *resolution.Engine, store *db.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sessions, err := store.LoadSessions(ctx)
	if err != nil {
		return err
	}
	ledgers, err := store.LoadLedgers(ctx)
	if err != nil {
		return err
	}

	owned := make(map[string]bool)
	for _, snap := range sessions {
		for _, sub := range snap.SubLedgers {
			owned[sub.SubjectID] = true
		}
	}

	for _, snap := range ledgers {
		if owned[snap.SubjectID] {
			continue
		}
		if err := engine.RestoreSlot(snap, nil); err != nil {
			slog.Warn("skipping unrecoverable ledger snapshot", "subject_id", snap.SubjectID, "error", err)
		}
	}

	for _, snap := range sessions {
		if err := engine.RestoreSession(snap); err != nil {
			slog.Warn("skipping unrecoverable session snapshot", "session_id", snap.ID, "error", err)
		}
	}

	slog.Info("engine state restored", "ledgers", len(ledgers), "sessions", len(sessions))
	return nil
}
