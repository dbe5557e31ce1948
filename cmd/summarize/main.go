package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"legispulse/internal/billtext"
	"legispulse/internal/config"
	"legispulse/internal/source/legiscan"
	"legispulse/internal/storage/postgres"
	"legispulse/internal/summary"
)

// summarize generates AI analysis for a single stored bill: resolve the
// bill text, prompt the model and persist the result.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	billNumber := flag.String("bill", "", "bill number to summarize (e.g. \"HB 12\")")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *billNumber == "" {
		logger.Error("missing required -bill flag")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Error("openai api key not configured")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	billStore := postgres.NewBillStore(db)

	bill, err := billStore.GetByNumber(ctx, *billNumber)
	if err != nil {
		logger.Error("bill lookup failed", "bill_number", *billNumber, "error", err)
		os.Exit(1)
	}

	legiscanSource := legiscan.New(legiscan.Config{
		BaseURL:        cfg.LegiScan.BaseURL,
		APIKey:         cfg.LegiScan.APIKey,
		State:          cfg.LegiScan.State,
		Timeout:        cfg.LegiScan.Timeout,
		MaxAttempts:    cfg.LegiScan.Retry.MaxAttempts,
		InitialBackoff: cfg.LegiScan.Retry.InitialBackoff,
		MaxBackoff:     cfg.LegiScan.Retry.MaxBackoff,
	}, logger)

	resolver := billtext.NewResolver(legiscanSource, cfg.LegiScan.Timeout, logger)

	// The generator works from whatever context is available: full bill
	// text when it resolves, stored metadata otherwise.
	var textContext string
	if bill.LegiScanID != nil {
		textContext, err = resolver.ResolveText(ctx, *bill.LegiScanID)
		if err != nil && !errors.Is(err, billtext.ErrNoUsableText) {
			logger.Error("bill text resolution failed", "bill_number", bill.BillNumber, "error", err)
			os.Exit(1)
		}
	}
	if textContext == "" {
		logger.Warn("no usable bill text, falling back to stored metadata", "bill_number", bill.BillNumber)
		textContext = summary.FallbackContext(bill)
	}

	llm := summary.NewClient(summary.ClientConfig{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	})

	generator := summary.NewGenerator(llm, billStore, logger)

	result, err := generator.Generate(ctx, bill, textContext)
	if err != nil {
		logger.Error("summary generation failed", "bill_number", bill.BillNumber, "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n\n%s\n", result.ShortSummary, result.WhatDoesThisDo)
}
