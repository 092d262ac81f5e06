package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/buildledger/docpipe/internal/common"
	"github.com/buildledger/docpipe/internal/fetch"
	"github.com/buildledger/docpipe/internal/llm/openai"
	"github.com/buildledger/docpipe/internal/pdftext"
	"github.com/buildledger/docpipe/internal/pipeline"
	"github.com/buildledger/docpipe/internal/preprocess"
	"github.com/buildledger/docpipe/internal/server"
	"github.com/buildledger/docpipe/internal/store"
	"github.com/buildledger/docpipe/pkg/logger"
)

func main() {
	cfg := common.LoadConfig()

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log := slog.Default()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.HealthCheck(ctx, pool, cfg.Database.DialTimeout); err != nil {
		log.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	log.Info("database health ok")

	// Fetchers: HTTP always, S3 only when a region is configured.
	resolver := &fetch.Resolver{
		HTTP: fetch.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes, log),
	}
	if cfg.Fetch.AWSRegion != "" {
		s3f, err := fetch.NewS3Fetcher(ctx, cfg.Fetch, log)
		if err != nil {
			log.Error("s3 fetcher init failed", "error", err)
			os.Exit(1)
		}
		resolver.S3 = s3f
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientOptional: true,
	}, log)

	pipe := pipeline.New(
		log,
		pipeline.Config{
			TokenBudget:       cfg.Extract.TokenBudget,
			AcceptConfidence:  cfg.Extract.AcceptConfidence,
			StrongConfidence:  cfg.Extract.StrongConfidence,
			LargeTextBytes:    cfg.Extract.LargeTextBytes,
			HugeTextBytes:     cfg.Extract.HugeTextBytes,
			ClassifyHeadBytes: cfg.Extract.ClassifyHeadBytes,
		},
		resolver,
		pdftext.NewExtractor(pdftext.Config{}, log),
		preprocess.New(log),
		extractor,
		store.NewDocumentStore(pool, log),
	)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(pipe, pool, log).Router(),
	}

	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("stopped")
}
