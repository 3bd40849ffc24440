package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration for the plancraft command.
type FileConfig struct {
	LogLevel string `yaml:"log_level"`

	Store struct {
		// Driver is one of memory, sqlite, redis.
		Driver string `yaml:"driver"`
		// DSN is the sqlite file path or redis URL.
		DSN string `yaml:"dsn"`
	} `yaml:"store"`

	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	// ArtifactsDir is where final plan documents are written. Empty
	// disables artifact persistence.
	ArtifactsDir string `yaml:"artifacts_dir"`

	Pipeline struct {
		MaxRefineLoops int           `yaml:"max_refine_loops"`
		HITLMaxRetries int           `yaml:"hitl_max_retries"`
		StepTimeout    time.Duration `yaml:"step_timeout"`
	} `yaml:"pipeline"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// loadConfig reads the YAML config file, falling back to defaults and
// environment variables for anything unset.
func loadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	cfg.LogLevel = "info"
	cfg.Store.Driver = "memory"
	cfg.Server.Addr = ":8080"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}
