// Command fluxdeskd runs the FluxDesk server: the REST API plus the
// asynchronous ticket triage pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/api"
	"github.com/fluxdesk/fluxdesk/engine"
	"github.com/fluxdesk/fluxdesk/mailer"
	"github.com/fluxdesk/fluxdesk/store/memory"
	storemongo "github.com/fluxdesk/fluxdesk/store/mongo"
	"github.com/fluxdesk/fluxdesk/triage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fluxdeskd:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := fluxdesk.ConfigFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	analyzer := buildAnalyzer(cfg, logger)
	m := buildMailer(cfg, logger)

	eng := engine.New(cfg, stores, analyzer, m, logger)
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(cfg, eng, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", slog.String("error", err.Error()))
		}
		if err := eng.Stop(shutdownCtx); err != nil {
			logger.Warn("engine did not drain cleanly; unfinished runs resume on next start",
				slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}

// openStores picks MongoDB when a URI is configured, the in-memory
// store otherwise.
func openStores(ctx context.Context, cfg fluxdesk.Config, logger *slog.Logger) (engine.Stores, func(), error) {
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_DB_URI not set, using in-memory store; nothing persists across restarts")
		return memory.New(), func() {}, nil
	}

	store, err := storemongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, nil, fmt.Errorf("migrate mongodb: %w", err)
	}

	logger.Info("connected to mongodb", slog.String("database", cfg.MongoDatabase))
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}
	return store, cleanup, nil
}

func buildAnalyzer(cfg fluxdesk.Config, logger *slog.Logger) triage.Analyzer {
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, tickets get default triage values")
		return triage.Disabled{}
	}
	return triage.NewOpenAIAnalyzer(cfg.OpenAIKey, cfg.OpenAIModel, cfg.StepTimeout)
}

func buildMailer(cfg fluxdesk.Config, logger *slog.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, mail is logged instead of sent")
		return mailer.NewLogMailer(logger)
	}

	m, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		logger.Error("smtp mailer unavailable, falling back to log mailer",
			slog.String("error", err.Error()))
		return mailer.NewLogMailer(logger)
	}
	return m
}
