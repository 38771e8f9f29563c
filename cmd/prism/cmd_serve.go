package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/prism/internal/api"
	"github.com/dgallion1/prism/internal/search"
	"github.com/dgallion1/prism/internal/session"
)

const sessionSweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve [report]",
	Short: "Serve the report over HTTP",
	Long: `Starts the JSON API: report outline, chapters, search, glossary, table
layout classification, debounced query sessions and search latency stats.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stdout, cfg)

	doc, _, err := loadReport(cfg, log, args)
	if err != nil {
		return err
	}

	latency := search.NewLatency(cfg.StatsWindow)
	store := session.NewStore(cfg.SessionTTL, func() *session.Session {
		return session.New(doc, session.Options{Delay: cfg.Debounce, Latency: latency})
	}, log)
	srv := api.NewServer(doc, store, latency, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		store.Run(ctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		log.Info("starting prism", "port", cfg.Port, "report", doc.Title, "chapters", len(doc.Chapters))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
