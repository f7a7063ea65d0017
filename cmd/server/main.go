/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR portal server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize SQLite store (migrations run on open)
  3. Bootstrap the Default work policy if none is stored
  4. Create portal service, API handler and router
  5. Start the open-session monitor
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional)
  -port    HTTP server port, overrides the file and HRPORTAL_PORT
  -db      SQLite database path, overrides the file and HRPORTAL_DB
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the session monitor
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection

EXAMPLES:
  ./server -config=./config.yaml
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config: configuration layers
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/api"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/config"
	"github.com/warp/hrportal/holidays"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log := cfg.Log.NewLogger()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize service
	engine := calendar.NewEngine(holidays.NewCached(holidays.NewSource()))
	svc := portal.NewService(store, engine, log)

	def, err := cfg.Defaults.Policy()
	if err != nil {
		log.Fatalf("Invalid default work policy: %v", err)
	}
	if _, err := svc.Bootstrap(context.Background(), def); err != nil {
		log.Fatalf("Failed to bootstrap default work policy: %v", err)
	}

	// Create router
	handler := api.NewHandler(svc, log)
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins})

	monitor := api.NewSessionMonitor(svc, log)
	monitor.CheckInterval = cfg.Monitor.Interval
	monitor.StaleAfter = cfg.Monitor.StaleAfter
	monitor.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     server.Addr,
			"database": cfg.Database.Path,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("server stopped")
}
