package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/msomdec/fraudshield/internal/audio"
	"github.com/msomdec/fraudshield/internal/config"
	"github.com/msomdec/fraudshield/internal/handler"
	"github.com/msomdec/fraudshield/internal/inference"
	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/msomdec/fraudshield/internal/notify"
	"github.com/msomdec/fraudshield/internal/repository/sqlite"
	"github.com/msomdec/fraudshield/internal/service"
	"github.com/spf13/cobra"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	m := metrics.New()

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	authService, err := service.NewAuthService(db.Users(), cfg.Auth.SessionSecret, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	sessions := service.NewSessionStore(cfg.Auth.SessionIdleTimeout)
	defer sessions.Close()

	gemini, err := inference.NewGeminiClient(ctx, cfg.Inference.APIKey, cfg.Inference.Model)
	if err != nil {
		return err
	}
	orchestrator := inference.NewOrchestrator(gemini, inference.Config{
		PollInterval:    cfg.Inference.PollInterval,
		MaxPollInterval: cfg.Inference.MaxPollInterval,
		PollTimeout:     cfg.Inference.PollTimeout,
	}, log.Module("inference"), m)

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(mailer, cfg.Mail.ReportRecipient, log.Module("notify"), m)

	analysis := service.NewAnalysisService(
		audio.NewNormalizer(cfg.Audio.MaxDuration),
		orchestrator,
		db.Calls(),
		notifier,
		log.Module("analysis"),
		m,
	)

	loginLimit := service.PerMinute(cfg.Auth.LoginRatePerMinute)
	defer loginLimit.Close()
	inferenceLimit := service.PerMinute(cfg.Inference.RequestsPerMinute)
	defer inferenceLimit.Close()

	router := handler.NewRouter(handler.Deps{
		Auth:           authService,
		Sessions:       sessions,
		Analysis:       analysis,
		Feedback:       service.NewFeedbackService(notifier),
		DB:             db,
		Metrics:        m,
		Log:            log,
		LoginLimit:     loginLimit,
		InferenceLimit: inferenceLimit,
		CookieSecure:   cfg.Server.CookieSecure,
		MaxUploadBytes: cfg.Audio.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
