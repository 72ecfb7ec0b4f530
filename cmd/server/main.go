package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldenpratama/blackjack-bot-be/internal/api"
	"github.com/aldenpratama/blackjack-bot-be/internal/casino"
	"github.com/aldenpratama/blackjack-bot-be/internal/ledger"
	"github.com/aldenpratama/blackjack-bot-be/internal/session"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	var (
		port        = flag.String("port", "8080", "Server port")
		dataDir     = flag.String("data", "./data", "Ledger data directory")
		driver      = flag.String("ledger", "file", "Ledger driver: file or sqlite")
		idleTimeout = flag.Duration("idle-timeout", 2*time.Minute, "Forfeit sessions idle for longer than this")
		frontendURL = flag.String("frontend", "http://localhost:5173", "Frontend URL for CORS")
	)
	flag.Parse()

	// Initialize the ledger store
	var store ledger.Store
	var err error
	switch *driver {
	case "sqlite":
		if mkErr := os.MkdirAll(*dataDir, 0755); mkErr != nil {
			log.Fatalf("Failed to create data directory: %v", mkErr)
		}
		store, err = ledger.NewSQLiteStore(*dataDir + "/blackjack.db")
	case "file":
		store, err = ledger.NewFileStore(*dataDir)
	default:
		log.Fatalf("Unknown ledger driver %q", *driver)
	}
	if err != nil {
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer store.Close()
	log.Printf("Ledger initialized (%s driver)", *driver)

	// Initialize the session registry and game manager
	registry := session.NewRegistry()
	manager := casino.NewManager(registry, store)

	// Start the idle-session janitor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.RunJanitor(ctx, 15*time.Second, *idleTimeout)
	log.Printf("Idle janitor started (window %s)", *idleTimeout)

	// Initialize WebSocket hub
	hub := api.NewHub()
	go hub.Run()
	log.Println("WebSocket hub started")

	// Initialize API handlers
	handlers := api.NewHandlers(manager, hub)

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)

	// Add middleware for logging
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
		})
	})

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{*frontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", *port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a termination signal
	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
