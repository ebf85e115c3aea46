package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/CodecEval/internal/api"
	"github.com/MikeSquared-Agency/CodecEval/internal/config"
	"github.com/MikeSquared-Agency/CodecEval/internal/engine"
	"github.com/MikeSquared-Agency/CodecEval/internal/hermes"
	"github.com/MikeSquared-Agency/CodecEval/internal/measure"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/remote"
	"github.com/MikeSquared-Agency/CodecEval/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	sweep := flag.Bool("sweep", false, "run one quality sweep over sweep.corpus_dir, print the outcome and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store: postgres when configured, in-memory otherwise
	var db store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := store.MigrateUp(cfg.Database.URL, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		db = pg
		logger.Info("connected to database")
	} else {
		db = store.NewMemoryStore()
		logger.Warn("no database configured, calibrations are kept in memory")
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	scheme, _ := cfg.BinScheme()
	eng := engine.New(db, hermesClient, engine.Options{
		Frame:              cfg.FixedFrame(),
		Scheme:             scheme,
		DefaultCalibration: cfg.Calibration.Default,
	}, logger)

	if *sweep {
		if err := runSweep(ctx, cfg, eng, logger); err != nil {
			logger.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := eng.SetupSubscriptions(ctx); err != nil {
		logger.Error("failed to subscribe to submitted aggregates", "error", err)
	}

	// API server
	router := api.NewRouter(db, eng, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func runSweep(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
	if cfg.Sweep.CorpusDir == "" {
		return fmt.Errorf("sweep.corpus_dir is required")
	}
	corpus, err := measure.LoadCorpus(cfg.Sweep.CorpusDir)
	if err != nil {
		return err
	}
	qualities, err := cfg.Qualities()
	if err != nil {
		return err
	}

	client := remote.NewHTTPClient(cfg.Encoder.URL, cfg.Encoder.Token).WithTimeout(cfg.EncoderTimeout())
	sw := &measure.Sweep{
		Codec:       client.Codec(rd.NewCodecConfig(cfg.Sweep.Codec, cfg.Sweep.CodecVersion)),
		Ssimulacra2: client.Ssimulacra2(),
		Butteraugli: client.Butteraugli(),
		Qualities:   qualities,
		Workers:     cfg.Sweep.Workers,
		Logger:      logger,
	}

	corpusName := cfg.Sweep.Corpus
	if corpusName == "" {
		corpusName = cfg.Sweep.CorpusDir
	}
	logger.Info("sweep starting", "codec", cfg.Sweep.Codec, "corpus", corpusName, "images", len(corpus), "qualities", len(qualities))

	out, err := eng.RunSweep(ctx, sw, corpusName, corpus)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
