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

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/userinfo"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/webapp"
)

func main() {
	cfg, err := config.LoadServer(os.Getenv)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hostname, _ := os.Hostname()
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: webapp.NewRouter(webapp.Options{
			Logger:    logger,
			LogoutURL: cfg.LogoutURL,
			UserInfo:  userinfo.New(ctx, cfg.UserInfoURL),
			Hostname:  hostname,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("error", err.Error()))
		}
		logger.Info("stopped")
	}
}
