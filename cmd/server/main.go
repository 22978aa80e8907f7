package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"invoiceview/internal/config"
	"invoiceview/internal/extraction"
	"invoiceview/internal/handler"
	"invoiceview/internal/review"
	"invoiceview/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Optional .env for local development; real deployments set env vars.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client := extraction.NewClient(&cfg.Extraction)
	store := review.NewStore()
	reviewSvc := review.NewService(store, client, cfg)

	reviewH := handler.NewReviewHandler(reviewSvc)
	healthH := handler.NewHealthHandler(client, cfg.Upload.HealthTimeout)

	r := router.Setup(cfg, reviewH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s (extraction service at %s)", cfg.Server.Port, cfg.Extraction.BaseURL)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
