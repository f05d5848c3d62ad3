// Command wazuhcheck-api runs the checks on a schedule and serves the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/catalog"
	"github.com/hamed0406/wazuhcheck/internal/config"
	"github.com/hamed0406/wazuhcheck/internal/httpapi"
	apimw "github.com/hamed0406/wazuhcheck/internal/httpapi/middleware"
	"github.com/hamed0406/wazuhcheck/internal/logging"
	"github.com/hamed0406/wazuhcheck/internal/notify"
	"github.com/hamed0406/wazuhcheck/internal/repo/memory"
	"github.com/hamed0406/wazuhcheck/internal/scheduler"
)

func main() {
	cfgFile := pflag.String("config", "", "config file (default is ./.wazuhcheck.yaml or $HOME/.wazuhcheck.yaml)")
	pflag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(parent context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	store := memory.New(cfg.API.History)
	s := catalog.NewSuite(cfg, logger)

	runner := scheduler.NewRunner(logger, s, store, cfg.Schedule.Interval, cfg.Schedule.RunTimeout)
	alerter := scheduler.NewAlerter(logger, store, store, notify.New(logger, cfg.Alert.SlackWebhook), scheduler.AlerterConfig{
		AlertOnRecovery: cfg.Alert.OnRecovery,
		Cooldown:        cfg.Alert.Cooldown,
		PollInterval:    cfg.Alert.PollInterval,
	})

	api := httpapi.NewServer(logger, s.Checks, store, runner.RunOnce)
	keys := apimw.Keys{Public: cfg.API.PublicKeys, Admin: cfg.API.AdminKeys}
	if len(keys.Admin) == 0 {
		logger.Warn("api_no_admin_keys", zap.String("hint", "POST /api/runs is open to anyone who can reach the API"))
	}
	srv := &http.Server{
		Addr: cfg.API.Addr,
		Handler: api.Router(keys, cfg.API.AllowedOrigins, httpapi.Limits{
			PublicRPM: cfg.API.PublicRPM, PublicBurst: cfg.API.PublicBurst,
			AdminRPM: cfg.API.AdminRPM, AdminBurst: cfg.API.AdminBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// on-demand runs can take as long as a scheduled run
		WriteTimeout: cfg.Schedule.RunTimeout + 30*time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); runner.Run(ctx) }()
	go func() { defer wg.Done(); _ = alerter.Run(ctx) }()

	errc := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.API.Addr), zap.Strings("checks", s.Names()))
		errc <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		logger.Info("api_shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err = srv.Shutdown(sctx)
	}
	cancel()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
