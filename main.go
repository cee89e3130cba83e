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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/app"
	"lg/calorie-budget-api/internal/config"
	"lg/calorie-budget-api/internal/logging"
	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/realtime"
	"lg/calorie-budget-api/internal/recognition"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "calorie-budget-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	drafts, closeDrafts := app.OpenDrafts(ctx, cfg.Redis, log)
	defer closeDrafts()

	seed := cfg.Recognition.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	h := &Handler{
		store:         st,
		drafts:        drafts,
		hub:           realtime.NewHub(log),
		recognizer:    recognition.NewSeededMock(seed),
		log:           log,
		defaultTarget: cfg.Calories.DefaultDailyTarget,
		now:           time.Now,
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("local_driver", cfg.Local.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
