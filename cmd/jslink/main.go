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

	"github.com/jslink/jslink/internal/api"
	"github.com/jslink/jslink/internal/bridge"
	"github.com/jslink/jslink/internal/config"
	"github.com/jslink/jslink/internal/executor"
	"github.com/jslink/jslink/internal/store"
)

func main() {
	// 1. Load and validate environment config
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if err := envCfg.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	// 2. Open the database and apply migrations
	st, err := store.Open(envCfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	log.Printf("Database ready at %s", envCfg.DatabasePath)

	// 3. Wire services
	exec := executor.New(st)
	ws := bridge.New()

	// 4. Create and start API server
	srv := api.NewServer(envCfg.ListenAddr(), st, exec, ws, int64(envCfg.APIMaxBodyBytes))

	go func() {
		log.Printf("JS-Link server starting on %s", envCfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal %s, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
