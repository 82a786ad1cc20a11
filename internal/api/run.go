package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/figsync/internal/config"
	"github.com/dgallion1/figsync/internal/session"
	"github.com/dgallion1/figsync/internal/stats"
	"github.com/dgallion1/figsync/internal/store"
)

// Run serves the API on cfg.Port until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	sweeps := stats.NewSweeps(time.Hour)
	sessions := session.NewRegistry(cfg.SessionTTL, session.Options{
		Store:      st,
		Sweeps:     sweeps,
		YieldDelay: cfg.YieldDelay,
		Headings:   cfg.Headings,
		MinWindow:  session.Size{Width: cfg.MinWindowWidth, Height: cfg.MinWindowHeight},
		Log:        log,
	})
	sessions.Start(ctx)
	defer sessions.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewServer(sessions, st, sweeps, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting figsync", "port", cfg.Port, "store", cfg.StoreBackend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
