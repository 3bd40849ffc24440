package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/artifact"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/checkpoint/memory"
	redisstore "github.com/plancraft/plancraft/checkpoint/redis"
	sqlitestore "github.com/plancraft/plancraft/checkpoint/sqlite"
	"github.com/plancraft/plancraft/engine"
	"github.com/plancraft/plancraft/hooks"
	"github.com/plancraft/plancraft/llm/openai"
	"github.com/plancraft/plancraft/observability"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "plancraft",
	Short: "PlanCraft turns one-line ideas into structured planning documents",
	Long: `PlanCraft drives a multi-agent planning pipeline: it analyzes a request,
designs an outline, writes and reviews the draft, and refines it until it
passes review. Runs are checkpointed and can pause for human input and
resume later, including across process restarts.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func initLogger() {
	level := slog.LevelInfo
	switch flagValue(rootCmd, "log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func flagValue(cmd *cobra.Command, name string) string {
	v, err := cmd.PersistentFlags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// openStore builds the checkpoint store named by the config.
func openStore(cfg FileConfig) (checkpoint.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the sqlite driver")
		}
		db, err := sql.Open("sqlite3", cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlitestore.New(db, sqlitestore.WithLogger(logger)), nil
	case "redis":
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the redis driver")
		}
		opt, err := goredis.ParseURL(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redisstore.New(goredis.NewClient(opt), redisstore.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildEngine assembles the engine from the loaded config.
func buildEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	model, err := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		return nil, err
	}

	pcfg := plancraft.DefaultConfig()
	if cfg.Pipeline.MaxRefineLoops > 0 {
		pcfg.MaxRefineLoops = cfg.Pipeline.MaxRefineLoops
	}
	if cfg.Pipeline.HITLMaxRetries > 0 {
		pcfg.HITLMaxRetries = cfg.Pipeline.HITLMaxRetries
	}
	if cfg.Pipeline.StepTimeout > 0 {
		pcfg.StepTimeout = cfg.Pipeline.StepTimeout
	}

	opts := []engine.Option{
		engine.WithStore(store),
		engine.WithLLM(model),
		engine.WithLogger(logger),
		engine.WithConfig(pcfg),
		engine.WithArchive(archive.NewMemoryStore()),
		engine.WithExtension(hooks.NewLoggingExtension(logger)),
		engine.WithExtension(observability.NewMetricsExtension()),
	}
	if cfg.ArtifactsDir != "" {
		arts, err := artifact.NewStore(cfg.ArtifactsDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithArtifacts(arts))
	}
	return engine.New(opts...)
}
