package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtu333/rogue-emblem-sub003/internal/config"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/meta"
	servernet "github.com/virtu333/rogue-emblem-sub003/internal/net"
	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/internal/save"
	"github.com/virtu333/rogue-emblem-sub003/internal/session"
	"github.com/virtu333/rogue-emblem-sub003/internal/telemetry"
	"github.com/virtu333/rogue-emblem-sub003/logging"
	loggingSinks "github.com/virtu333/rogue-emblem-sub003/logging/sinks"
)

// Run wires the process from cfg and serves until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg config.Env) error {
	logger := log.Default()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}
	catalog, err := gamedata.Default()
	if err != nil {
		return fmt.Errorf("load game data: %w", err)
	}

	logConfig := cfg.Logging()
	namedSinks, closeSinks, err := buildSinks(logConfig)
	if err != nil {
		return err
	}
	defer closeSinks()
	router := logging.NewRouter(logging.ClockFunc(time.Now), logConfig, logger, namedSinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	counters := telemetry.NewCounters()
	var mirror *save.RedisMirror
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		mirror = save.NewRedisMirror(client, save.MirrorOptions{
			TTL:       cfg.RedisTTL,
			Fallback:  logger,
			Telemetry: counters,
		})
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if cerr := mirror.Close(closeCtx); cerr != nil {
				logger.Printf("failed to drain save mirror: %v", cerr)
			}
		}()
	}

	sessCfg := session.Config{
		Slot:  cfg.Slot,
		Store: store,
		Env: run.Env{
			Catalog:   catalog,
			Config:    rules,
			Publisher: router,
			Telemetry: counters,
		},
		Meta: meta.NewLedger(meta.Effects{}),
	}
	if mirror != nil {
		sessCfg.Mirror = mirror
	}
	mgr, err := session.New(sessCfg)
	if err != nil {
		return err
	}
	if err := mgr.Resume(ctx); err != nil {
		if !errors.Is(err, save.ErrNoSavedRun) {
			return err
		}
		logger.Printf("no saved run in slot %q: %v", cfg.Slot, err)
	}

	handler := servernet.NewHTTPHandler(mgr, servernet.HTTPHandlerConfig{
		Logger:      logger,
		EnablePprof: cfg.EnablePprof,
		Diagnostics: func() any {
			diag := map[string]any{
				"logging":  router.Stats(),
				"counters": counters.Snapshot(),
			}
			if mirror != nil {
				diag["mirror"] = mirror.Stats()
			}
			return diag
		},
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func openStore(cfg config.Env) (save.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return save.OpenSQLite(cfg.SQLitePath)
	default:
		return save.NewFileStore(cfg.SaveDir)
	}
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, func(), error) {
	var (
		named   []logging.NamedSink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout), MinSeverity: logging.SeverityInfo})
	}
	if cfg.HasSink("json") {
		out := os.Stdout
		if cfg.JSON.FilePath != "" {
			f, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, closeAll, fmt.Errorf("open json log: %w", err)
			}
			closers = append(closers, func() { f.Close() })
			out = f
		}
		named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(out, cfg.JSON.FlushInterval)})
	}
	return named, closeAll, nil
}
