// Command arenasrv hosts one match over HTTP. Players take a team token from
// /api/tokens and drive their side through the /api endpoints; spectators
// follow the event stream on /ws.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lanebattle/internal/auth"
	"lanebattle/internal/config"
	"lanebattle/internal/logging"
	"lanebattle/internal/match"
	"lanebattle/internal/server"
)

func main() {
	var cfgDir, addr, secret, joinCode, level string
	var tokenTTL time.Duration
	var dev bool
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.StringVar(&secret, "secret", os.Getenv("ARENA_SECRET"), "token signing secret (random when empty)")
	flag.StringVar(&joinCode, "join-code", "", "code players must present to get a team token")
	flag.DurationVar(&tokenTTL, "token-ttl", 6*time.Hour, "team token lifetime")
	flag.StringVar(&level, "log-level", "info", "log level")
	flag.BoolVar(&dev, "dev", false, "console logging")
	flag.Parse()

	log, err := logging.New(level, dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(log, cfgDir, addr, secret, joinCode, tokenTTL); err != nil {
		log.Fatal("arenasrv", zap.Error(err))
	}
}

func run(log *zap.Logger, cfgDir, addr, secret, joinCode string, tokenTTL time.Duration) error {
	cfg, err := config.LoadAll(cfgDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hub := server.NewHub(log)
	ctl, err := match.New(cfg, hub.Publish, log.Named("match"))
	if err != nil {
		return err
	}
	runner := server.NewRunner(ctl, cfg.Battle.TickRate, log)

	iss := auth.NewIssuer(secret, tokenTTL)
	if secret == "" {
		log.Warn("no -secret given, tokens will not survive a restart")
	}
	if err := iss.SetJoinCode(joinCode); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(runner, hub, iss, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go hub.Run(ctx)
	go runner.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("match", runner.MatchID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
