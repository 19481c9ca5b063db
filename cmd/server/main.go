package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docshape/docshape/internal/api"
	"github.com/docshape/docshape/internal/config"
	"github.com/docshape/docshape/internal/deliver"
	"github.com/docshape/docshape/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stages := pipeline.DefaultStages()
	if cfg.PipelineFile != "" {
		f, err := os.Open(cfg.PipelineFile)
		if err != nil {
			log.Error("cannot open pipeline file", "path", cfg.PipelineFile, "error", err)
			os.Exit(1)
		}
		pc, err := pipeline.LoadPipeline(f)
		f.Close()
		if err != nil {
			log.Error("invalid pipeline file", "path", cfg.PipelineFile, "error", err)
			os.Exit(1)
		}
		if _, err := pipeline.BuildStages(pc.Stages); err != nil {
			log.Error("invalid pipeline stages", "path", cfg.PipelineFile, "error", err)
			os.Exit(1)
		}
		stages = pc.Stages
	}

	// Optional webhook delivery.
	var webhook *deliver.Client
	if cfg.WebhookURL != "" {
		webhook = deliver.NewClient(cfg.WebhookURL, cfg.WebhookAPIKey)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, stages, webhook, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if webhook != nil {
			webhook.Close()
		}
	}()

	log.Info("starting docshape", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
