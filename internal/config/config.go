package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultChunkSize     = 81920
	DefaultLevel         = "medium"
	DefaultConcurrency   = 4
	DefaultRemoteRetries = 2
	DefaultProgressRate  = 10.0
	DefaultMaxLogLines   = 200
)

// Config holds runtime configuration values.
type Config struct {
	// Timeout bounds a whole command; zero means no limit.
	Timeout      time.Duration
	Verbose      bool
	Quiet        bool
	JSON         bool
	LogFile      string
	PersistRuns  bool
	Workdir      string
	MaxLogLines  int
	ChunkSize    int
	Level        string
	Concurrency  int
	Remote       bool
	Retries      int
	ProgressRate float64
}

type rawConfig struct {
	Timeout      string  `mapstructure:"timeout"`
	Verbose      bool    `mapstructure:"verbose"`
	Quiet        bool    `mapstructure:"quiet"`
	JSON         bool    `mapstructure:"json"`
	OutputFormat string  `mapstructure:"output_format"`
	LogFile      string  `mapstructure:"log_file"`
	PersistRuns  bool    `mapstructure:"persist_runs"`
	Workdir      string  `mapstructure:"workdir"`
	MaxLogLines  int     `mapstructure:"max_log_lines"`
	Hash         rawHash `mapstructure:"hash"`
	Compress     struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"compress"`
	Batch struct {
		Concurrency int `mapstructure:"concurrency"`
	} `mapstructure:"batch"`
	Remote struct {
		Enabled bool `mapstructure:"enabled"`
		Retries int  `mapstructure:"retries"`
	} `mapstructure:"remote"`
	Progress struct {
		Rate float64 `mapstructure:"rate"`
	} `mapstructure:"progress"`
}

type rawHash struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWISSKNIFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("timeout", "0s")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("json", false)
	v.SetDefault("output_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("persist_runs", false)
	v.SetDefault("workdir", "")
	v.SetDefault("max_log_lines", DefaultMaxLogLines)
	v.SetDefault("hash.chunk_size", DefaultChunkSize)
	v.SetDefault("compress.level", DefaultLevel)
	v.SetDefault("batch.concurrency", DefaultConcurrency)
	v.SetDefault("remote.enabled", true)
	v.SetDefault("remote.retries", DefaultRemoteRetries)
	v.SetDefault("progress.rate", DefaultProgressRate)

	if cmd != nil {
		bind(v, cmd, "timeout", "timeout")
		bind(v, cmd, "verbose", "verbose")
		bind(v, cmd, "quiet", "quiet")
		bind(v, cmd, "json", "json")
		bind(v, cmd, "log_file", "log-file")
		bind(v, cmd, "persist_runs", "persist-runs")
		bind(v, cmd, "workdir", "workdir")
		bind(v, cmd, "hash.chunk_size", "chunk-size")
		bind(v, cmd, "compress.level", "level")
		bind(v, cmd, "batch.concurrency", "concurrency")
		bind(v, cmd, "remote.enabled", "remote")
	}

	if seconds := os.Getenv("SWISSKNIFE_TIMEOUT_SECONDS"); seconds != "" {
		v.Set("timeout", seconds+"s")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	var timeout time.Duration
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	jsonOutput := raw.JSON
	if cmd != nil && flagChanged(cmd, "json") {
		jsonOutput = v.GetBool("json")
	} else if strings.EqualFold(raw.OutputFormat, "json") {
		jsonOutput = true
	}

	cfg := Config{
		Timeout:      timeout,
		Verbose:      raw.Verbose,
		Quiet:        raw.Quiet,
		JSON:         jsonOutput,
		LogFile:      raw.LogFile,
		PersistRuns:  raw.PersistRuns,
		Workdir:      raw.Workdir,
		MaxLogLines:  raw.MaxLogLines,
		ChunkSize:    raw.Hash.ChunkSize,
		Level:        raw.Compress.Level,
		Concurrency:  raw.Batch.Concurrency,
		Remote:       raw.Remote.Enabled,
		Retries:      raw.Remote.Retries,
		ProgressRate: raw.Progress.Rate,
	}

	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if strings.TrimSpace(cfg.Level) == "" {
		cfg.Level = DefaultLevel
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.ProgressRate <= 0 {
		cfg.ProgressRate = DefaultProgressRate
	}
	if cfg.MaxLogLines < 0 {
		cfg.MaxLogLines = 0
	}

	return cfg, nil
}

func bind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := lookupFlag(cmd, flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func flagChanged(cmd *cobra.Command, flag string) bool {
	f := lookupFlag(cmd, flag)
	return f != nil && f.Changed
}

func lookupFlag(cmd *cobra.Command, flag string) *pflag.Flag {
	if f := cmd.Flags().Lookup(flag); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(flag)
}

func loadConfigFile(v *viper.Viper) error {
	if path := os.Getenv("SWISSKNIFE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "swissknife")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
