/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance calendar server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command and flags (cobra)
  2. Load YAML configuration, apply flag overrides
  3. Initialize SQLite store
  4. Create API handler with the regional timezone
  5. Start server with graceful shutdown

FLAGS:
  --config  YAML configuration file path (optional)
  --port    HTTP server port (overrides config)
  --db      SQLite database path (overrides config; ":memory:" works)
  --tz      Regional timezone (overrides config)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server serve --db=./data/attendance.db
  ./server serve --config=./attendance.yaml --port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: YAML configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	var (
		configPath string
		port       int
		dbPath     string
		timezone   string
	)

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Attendance calendar reconciliation server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("tz") {
				cfg.Timezone = timezone
			}
			return serve(cfg)
		},
	}

	serveCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	serveCmd.Flags().IntVar(&port, "port", config.Default().Port, "HTTP server port")
	serveCmd.Flags().StringVar(&dbPath, "db", config.Default().DBPath, "SQLite database path")
	serveCmd.Flags().StringVar(&timezone, "tz", config.Default().Timezone, "regional timezone")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, loc)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %d (db=%s tz=%s)", cfg.Port, cfg.DBPath, cfg.Timezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
