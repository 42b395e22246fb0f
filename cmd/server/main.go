package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/surveyflow/internal/api"
	"github.com/gyaneshwarpardhi/surveyflow/internal/config"
	"github.com/gyaneshwarpardhi/surveyflow/internal/editor"
	"github.com/gyaneshwarpardhi/surveyflow/internal/logging"
	"github.com/gyaneshwarpardhi/surveyflow/internal/store"
	"github.com/gyaneshwarpardhi/surveyflow/internal/transform"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "", "Path to service YAML config")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := logging.New(level)
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	var loader *config.Loader
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		loader, err = config.NewLoader(*cfgPath, logger)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loader.Config()
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	lvl, _ := logging.ParseLevel(cfg.Log.Level)
	level.Set(lvl)
	strictness, _ := validator.ParseStrictness(cfg.Validation.Strictness)

	// ── Storage ──────────────────────────────────────────────────────────────
	var st store.Store
	switch cfg.Storage.Driver {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st = store.NewFileStore(cfg.Storage.Dir)
	}

	// ── Edit session ─────────────────────────────────────────────────────────
	sess := editor.New(
		editor.WithLogger(logger),
		editor.WithStrictness(strictness),
		editor.WithTransformer(transform.New(
			transform.WithLogger(logger),
			transform.WithLayout(cfg.Layout),
		)),
	)
	if cfg.Storage.Import != "" {
		data, err := os.ReadFile(cfg.Storage.Import)
		if err != nil {
			slog.Error("failed to read import", "path", cfg.Storage.Import, "err", err)
			os.Exit(1)
		}
		doc, err := store.DecodeDocument(cfg.Storage.Import, data)
		if err != nil {
			slog.Error("failed to decode import", "path", cfg.Storage.Import, "err", err)
			os.Exit(1)
		}
		sess.Load(doc)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(newCfg *config.Config) {
			if l, err := logging.ParseLevel(newCfg.Log.Level); err == nil {
				level.Set(l)
			}
			if s, err := validator.ParseStrictness(newCfg.Validation.Strictness); err == nil {
				sess.SetStrictness(s)
			}
			slog.Info("config hot-reloaded", "log_level", newCfg.Log.Level, "strictness", newCfg.Validation.Strictness)
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(sess, st, api.WithLogger(logger), api.WithMaxRuns(cfg.Runs.MaxActive))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "strictness", strictness)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if sess.Dirty() {
		slog.Warn("unsaved edits discarded", "survey_id", sess.Meta().SurveyID)
	}
	slog.Info("goodbye")
}
