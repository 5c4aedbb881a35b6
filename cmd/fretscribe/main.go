// Command fretscribe raises the confidence of guitar terminology in
// word-level transcription JSON.
//
// In batch mode (the default) it enhances a single document or every *.json
// file in a directory. With -serve it runs the HTTP service instead. With
// -seed it upserts a YAML term collection into the PostgreSQL library named
// by library.postgres_dsn and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/fretscribe/internal/app"
	"github.com/MrWong99/fretscribe/internal/config"
	"github.com/MrWong99/fretscribe/internal/enhance"
	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/internal/server"
	"github.com/MrWong99/fretscribe/internal/terminology/library"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (built-in defaults when empty)")
	in := flag.String("in", "-", "input document or directory of *.json documents; - reads stdin")
	out := flag.String("out", "-", "output document or directory; - writes stdout")
	parallel := flag.Int("parallel", app.DefaultParallel, "documents enhanced concurrently in directory mode")
	serve := flag.Bool("serve", false, "run the HTTP service instead of batch mode")
	addr := flag.String("addr", "", "listen address in serve mode (overrides server.listen_addr)")
	seed := flag.String("seed", "", "YAML term collection to load into the PostgreSQL library, then exit")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fretscribe: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fretscribe: %v\n", err)
		}
		return 1
	}
	if *addr != "" {
		cfg.Server.ListenAddr = *addr
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, level := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *seed != "" {
		return runSeed(ctx, cfg, *seed)
	}

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: enhance.Version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	application, err := app.New(ctx, cfg, reg, app.WithLogLevel(level))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	if *serve {
		printStartupSummary(cfg, application)
		return runServer(ctx, *configPath, cfg, application)
	}
	return runBatch(ctx, application, *in, *out, *parallel)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// runSeed loads the collection at path into cfg.Library.PostgresDSN.
func runSeed(ctx context.Context, cfg *config.Config, path string) int {
	if cfg.Library.PostgresDSN == "" {
		slog.Error("seeding needs library.postgres_dsn in the configuration", "collection", path)
		return 1
	}
	n, err := library.SeedFromFile(ctx, cfg.Library.PostgresDSN, path)
	if err != nil {
		slog.Error("failed to seed term library", "collection", path, "err", err)
		return 1
	}
	slog.Info("term library seeded", "collection", path, "terms", n)
	return 0
}

// runServer serves HTTP until ctx is cancelled. When the config came from a
// file, the file is watched and reloadable changes are applied in place.
func runServer(ctx context.Context, configPath string, cfg *config.Config, application *app.App) int {
	if configPath != "" {
		w, err := config.NewWatcher(configPath, application.Reload, config.WithInterval(cfg.Server.ReloadInterval))
		if err != nil {
			slog.Error("failed to start config watcher", "err", err)
			return 1
		}
		go w.Run(ctx)
		slog.Info("watching config for changes", "path", configPath, "interval", cfg.Server.ReloadInterval)
	}

	srv := server.New(application,
		server.WithCheckers(application.Checkers()...),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithInfo(func() any { return info(application) }),
	)

	var certFile, keyFile string
	if cfg.Server.TLS != nil {
		certFile, keyFile = cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile
	}

	slog.Info("server ready; press Ctrl+C to shut down")
	if err := srv.ListenAndServe(ctx, cfg.Server.ListenAddr, certFile, keyFile); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// runBatch enhances stdin, a file or a directory.
func runBatch(ctx context.Context, application *app.App, in, out string, parallel int) int {
	if in == "-" || in == "" {
		w := os.Stdout
		if out != "-" && out != "" {
			f, err := os.Create(out)
			if err != nil {
				slog.Error("failed to create output", "err", err)
				return 1
			}
			defer f.Close()
			w = f
		}
		if _, err := application.EnhanceStream(ctx, os.Stdin, w); err != nil {
			slog.Error("enhancement failed", "err", err)
			return 1
		}
		return 0
	}

	if out == "-" || out == "" {
		info, err := os.Stat(in)
		if err != nil {
			slog.Error("failed to read input", "err", err)
			return 1
		}
		if info.IsDir() {
			slog.Error("directory input requires -out")
			return 1
		}
		f, err := os.Open(in)
		if err != nil {
			slog.Error("failed to read input", "err", err)
			return 1
		}
		defer f.Close()
		if _, err := application.EnhanceStream(ctx, f, os.Stdout); err != nil {
			slog.Error("enhancement failed", "input", in, "err", err)
			return 1
		}
		return 0
	}

	start := time.Now()
	stats, err := application.ProcessPath(ctx, in, out, parallel)
	slog.Info("batch complete",
		"documents", stats.Documents,
		"enhanced", stats.Enhanced,
		"failed", stats.Failed,
		"boosted", stats.Boosted,
		"duration", time.Since(start),
	)
	if err != nil {
		slog.Error("batch failed", "err", err)
		return 1
	}
	return 0
}

// info is served on /v1/info.
func info(a *app.App) map[string]any {
	cfg := a.Config()
	return map[string]any{
		"library":              a.Library().Stats(),
		"dictionary":           a.Dictionary().Name(),
		"classifier_enabled":   cfg.Classifier.Enabled,
		"classifier_backends":  a.Backends(),
		"confidence_threshold": cfg.Engine.ConfidenceThreshold,
		"boost_target":         cfg.Engine.BoostTarget,
		"context_window":       cfg.Engine.Window(),
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, a *app.App) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       fretscribe — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	if cfg.Classifier.Enabled {
		printRow("Classifier", cfg.Classifier.Provider.Name+" / "+cfg.Classifier.Provider.Model)
		printRow("Fallbacks", fmt.Sprint(len(cfg.Classifier.Fallbacks)))
	} else {
		printRow("Classifier", "(disabled)")
	}
	stats := a.Library().Stats()
	printRow("Library", fmt.Sprintf("%s (%d terms)", stats.Type, stats.TotalTerms))
	printRow("Dictionary", a.Dictionary().Name())
	printRow("Threshold", fmt.Sprintf("%.2f", cfg.Engine.ConfidenceThreshold))
	printRow("Boost target", fmt.Sprintf("%.2f", cfg.Engine.BoostTarget))
	printRow("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger returns a text logger on stderr whose level can be changed at
// runtime through the returned LevelVar.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(app.SlogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})), lv
}
