package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"paper-evolve/evolution"
	"paper-evolve/gateway"
	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/sim"
)

// 行情源
const (
	FeedMock = "mock"
	FeedWS   = "ws"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env       string              `yaml:"env"`
	Log       logger.Config       `yaml:"log"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Feed      FeedConfig          `yaml:"feed"`
	Journal   JournalConfig       `yaml:"journal"`
	Paper     sim.Config          `yaml:"paper"`
	Evolution evolution.Config    `yaml:"evolution"`
	Variants  []evolution.Variant `yaml:"variants"`
}

type MetricsConfig struct {
	Addr    string         `yaml:"addr"` // 为空时不启动 /metrics
	Monitor monitor.Config `yaml:"monitor"`
}

type FeedConfig struct {
	Mode string               `yaml:"mode"` // mock 或 ws
	WS   gateway.WSFeedConfig `yaml:"ws"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseDir string `yaml:"base_dir"`
}

// Default 所有字段的默认值；YAML 只需覆盖需要修改的部分。
func Default() AppConfig {
	return AppConfig{
		Env:       "dev",
		Log:       logger.DefaultConfig(),
		Metrics:   MetricsConfig{Monitor: monitor.DefaultConfig()},
		Feed:      FeedConfig{Mode: FeedMock},
		Journal:   JournalConfig{Enabled: true, BaseDir: "./runs"},
		Paper:     sim.DefaultConfig(),
		Evolution: evolution.DefaultConfig(),
	}
}

// Load reads YAML config from path over Default and applies validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("PAPER_FEED_URL"); v != "" {
		cfg.Feed.WS.URL = v
	}
	if v := os.Getenv("PAPER_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("PAPER_JOURNAL_DIR"); v != "" {
		cfg.Journal.BaseDir = v
	}
	return cfg, Validate(cfg)
}
