package benchmarks

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/dual-ac/network"
	"github.com/zeu5/dual-ac/server"
	"gopkg.in/yaml.v3"
)

// CheckpointConfig selects where parameters are stored
type CheckpointConfig struct {
	Store       string `yaml:"store"` // "file" or "redis"
	Dir         string `yaml:"dir"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
	Key         string `yaml:"key"`
}

type RolloutConfig struct {
	Episodes string        `yaml:"episodes"`
	Workers  int           `yaml:"workers"`
	Plot     bool          `yaml:"plot"`
	Progress time.Duration `yaml:"progress"` // terminal refresh interval, zero disables it
}

// FileConfig is the layout of the optional YAML configuration file
type FileConfig struct {
	Model      network.Config   `yaml:"model"`
	Server     server.Config    `yaml:"server"`
	Rollout    RolloutConfig    `yaml:"rollout"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	LogLevel   string           `yaml:"log_level"`
}

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Model: network.Config{
			StateSize:  4,
			ActionSize: 2,
			HiddenSize: 32,
		},
		Server: server.Config{
			Addr: "localhost:8080",
		},
		Rollout: RolloutConfig{
			Workers:  4,
			Plot:     true,
			Progress: time.Second,
		},
		Checkpoint: CheckpointConfig{
			Store:       "file",
			Dir:         "checkpoints",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "dualac:",
		},
		LogLevel: "info",
	}
}

// LoadFileConfig reads a YAML file on top of the defaults
func LoadFileConfig(file string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	if file == "" {
		return cfg, nil
	}
	bs, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", file, err)
	}
	return cfg, nil
}

// settings loads the config file and applies the flags set on the command line
func settings(cmd *cobra.Command) (*FileConfig, error) {
	cfg, err := LoadFileConfig(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("state-size") {
		cfg.Model.StateSize = stateSize
	}
	if flags.Changed("action-size") {
		cfg.Model.ActionSize = actionSize
	}
	if flags.Changed("hidden-size") {
		cfg.Model.HiddenSize = hiddenSize
	}
	if flags.Changed("seed") {
		cfg.Model.Seed = seed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("store") {
		cfg.Checkpoint.Store = storeKind
	}
	if flags.Changed("store-dir") {
		cfg.Checkpoint.Dir = storeDir
	}
	if flags.Changed("redis-addr") {
		cfg.Checkpoint.RedisAddr = redisAddr
	}
	if flags.Changed("key") {
		cfg.Checkpoint.Key = checkpointKey
	}
	return cfg, nil
}
