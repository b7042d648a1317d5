// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mlbautista/campusmart/internal"
	"github.com/mlbautista/campusmart/internal/config"
	"github.com/mlbautista/campusmart/internal/database"
	"github.com/mlbautista/campusmart/internal/handler"
	"github.com/mlbautista/campusmart/internal/ratelimiter"
	"github.com/mlbautista/campusmart/internal/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	// Init DB
	log.Println("Initializing Database connection...")

	dbConn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not connect to the postgresql database: %v", err)
	}

	dbQueries := database.New(dbConn)

	// hub.Run is the chat relay engine; it owns all connection and
	// history state for the life of the process.
	hub := relay.NewHub()
	go hub.Run(ctx)

	limiter := ratelimiter.NewIPRateLimiter(
		cfg.RateLimitRequests, cfg.RateLimitWindow,
		ratelimiter.CleanupOpts{TTL: 10 * time.Minute, Interval: time.Minute})
	defer limiter.Cancel()

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	fs := http.FileServer(http.Dir("static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	r.Get("/", handler.ServeRoot())
	r.Get("/healthz", handler.ServeHealth())

	r.Route("/account", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/signup", handler.SubmitSignup(dbQueries))
		r.Post("/login", handler.SubmitLogin(cfg, dbQueries))
		r.Post("/logout", handler.SubmitLogout(dbQueries))
		r.Post("/refresh", handler.RefreshToken(cfg, dbQueries))
	})

	r.Get("/listings", handler.ServeListings(dbQueries))
	r.With(internal.BearerAuth(cfg.JWTSecret)).
		Post("/listings", handler.CreateListing(dbQueries))
	r.With(limiter.Middleware).
		Post("/public-listings", handler.CreatePublicListing(dbQueries))

	// The relay shares the API port; clients select it via the
	// websocket handshake.
	r.Get("/ws", handler.ServeWs(hub))

	server.Handler = r

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	// Close DB connection.
	dbConn.Close()

	log.Println("Server stopped")
}
