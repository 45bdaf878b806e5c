package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/pitchside/internal/api"
	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/config"
	"github.com/alecgard/pitchside/internal/database"
	"github.com/alecgard/pitchside/internal/event"
	"github.com/alecgard/pitchside/internal/metrics"
	"github.com/alecgard/pitchside/internal/notify"
	"github.com/alecgard/pitchside/internal/organization"
	"github.com/alecgard/pitchside/internal/ratelimit"
	"github.com/alecgard/pitchside/internal/token"
	"github.com/alecgard/pitchside/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pitchside API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	})

	codec, err := token.NewCodec(cfg.Auth.SigningSecret, cfg.Auth.EncryptionKey)
	if err != nil {
		return err
	}

	authService := auth.NewService(codec,
		user.NewAuthAdapter(user.NewStore(pool)),
		organization.NewAuthAdapter(organization.NewStore(pool)),
		auth.WithTTLs(cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		auth.WithProfileCache(auth.NewProfileCache(cfg.Cache.ProfileSize, cfg.Cache.ProfileTTL)),
		auth.WithObserver(m),
	)

	notifyStore := notify.NewStore(pool)
	outbox := notify.NewOutbox(notifyStore, cfg.Notify.BatchSize, cfg.Notify.FlushInterval)
	outbox.SetObserver(m)
	go outbox.Start(ctx)

	eventStore := event.NewStore(pool)
	eventService := event.NewService(eventStore, outbox, event.WithObserver(m))

	sweeper := event.NewSweeper(eventStore, outbox, cfg.Lifecycle.SweepInterval, event.WithSweepObserver(m))
	sweeper.Start(ctx)

	router := api.NewRouter(api.RouterDeps{
		Auth:              authService,
		Events:            eventService,
		Notifications:     notifyStore,
		Limiter:           ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		Metrics:           m,
		DB:                pool,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)

	// Stop producers before the outbox so their last notifications flush.
	sweeper.Stop()
	outbox.Stop()

	return err
}
