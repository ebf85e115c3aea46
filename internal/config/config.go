package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/CodecEval/internal/measure"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Hermes      HermesConfig      `yaml:"hermes"`
	Encoder     EncoderConfig     `yaml:"encoder"`
	Frame       FrameConfig       `yaml:"frame"`
	Bins        BinsConfig        `yaml:"bins"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// EncoderConfig points at the remote encode/metric service used by sweeps.
type EncoderConfig struct {
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type FrameConfig struct {
	BppMax float64 `yaml:"bpp_max"`
	S2Max  float64 `yaml:"s2_max"`
	BaMax  float64 `yaml:"ba_max"`
	Aspect float64 `yaml:"aspect"`
}

type BinsConfig struct {
	Count int `yaml:"count"`
}

type CalibrationConfig struct {
	// Default names the measured default used when a request carries no
	// calibration.
	Default string `yaml:"default"`
}

type SweepConfig struct {
	Workers      int    `yaml:"workers"`
	QualityRange string `yaml:"quality_range"`
	Codec        string `yaml:"codec"`
	CodecVersion string `yaml:"codec_version"`
	Corpus       string `yaml:"corpus"`
	CorpusDir    string `yaml:"corpus_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) EncoderTimeout() time.Duration {
	return time.Duration(c.Encoder.TimeoutMs) * time.Millisecond
}

func (c *Config) FixedFrame() rd.FixedFrame {
	return rd.FixedFrame{
		BppMax: c.Frame.BppMax,
		S2Max:  c.Frame.S2Max,
		BaMax:  c.Frame.BaMax,
		Aspect: c.Frame.Aspect,
	}
}

func (c *Config) BinScheme() (rd.BinScheme, error) {
	return rd.BinsForCount(c.Bins.Count)
}

func (c *Config) Qualities() ([]float64, error) {
	return measure.ParseQualityRange(c.Sweep.QualityRange)
}

// SlogLevel maps logging.level onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the sections the engine cannot run without.
func (c *Config) Validate() error {
	if err := c.FixedFrame().Validate(); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if _, err := c.BinScheme(); err != nil {
		return fmt.Errorf("bins: %w", err)
	}
	if _, err := c.Qualities(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if _, ok := rd.MeasuredDefaults()[c.Calibration.Default]; !ok {
		return fmt.Errorf("calibration: unknown default %q (have %s)",
			c.Calibration.Default, strings.Join(rd.MeasuredDefaultNames(), ", "))
	}
	return nil
}

func Load(path string) (*Config, error) {
	web := rd.WebFrame
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Encoder: EncoderConfig{
			URL:       "http://localhost:8710",
			TimeoutMs: 60000,
		},
		Frame: FrameConfig{
			BppMax: web.BppMax,
			S2Max:  web.S2Max,
			BaMax:  web.BaMax,
			Aspect: web.Aspect,
		},
		Bins: BinsConfig{
			Count: rd.DefaultBins().Count,
		},
		Calibration: CalibrationConfig{
			Default: rd.DefaultCalibrationName,
		},
		Sweep: SweepConfig{
			QualityRange: measure.DefaultQualityRange,
			Codec:        "mozjpeg",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CODECEVAL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CODECEVAL_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CODECEVAL_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("CODECEVAL_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CODECEVAL_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("CODECEVAL_ENCODER_URL"); v != "" {
		cfg.Encoder.URL = v
	}
	if v := os.Getenv("CODECEVAL_ENCODER_TOKEN"); v != "" {
		cfg.Encoder.Token = v
	}
	if v := os.Getenv("CODECEVAL_BINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bins.Count = n
		}
	}
	if v := os.Getenv("CODECEVAL_DEFAULT_CALIBRATION"); v != "" {
		cfg.Calibration.Default = v
	}
	if v := os.Getenv("CODECEVAL_SWEEP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sweep.Workers = n
		}
	}
	if v := os.Getenv("CODECEVAL_QUALITY_RANGE"); v != "" {
		cfg.Sweep.QualityRange = v
	}
	if v := os.Getenv("CODECEVAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
