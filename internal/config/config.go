// Package config merges rmlstream's CLI flags with an optional
// key=value properties file, the file taking priority over every flag
// when present. Grounded on cmd/cayley/command/database.go's
// viper-key-constant-plus-cobra-flag idiom.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmlstream/rmlstream/estimate"
)

// Viper keys, one per operator-surface flag (spec §6).
const (
	KeyMapping     = "mapping"
	KeyOutput      = "output"
	KeyDedup       = "dedup"
	KeyThreaded    = "threaded"
	KeyThreadCount = "thread_count"
	KeyAdaptive    = "adaptive"
	KeyFixedWidth  = "fixed_width"
	KeySampleRate  = "sample_rate"
	KeyEmptyTokens = "empty_tokens"
	KeyConfigFile  = "config_file"
)

// Config is the resolved operator surface, after flags and any -c
// properties file have been merged.
type Config struct {
	MappingPath    string
	OutputPath     string
	Dedup          bool
	Threaded       bool
	ThreadCount    int
	Adaptive       bool
	FixedWidth     estimate.HashWidth
	HasFixedWidth  bool
	SampleRate     float64
	EmptyTokens    []string
	ConfigFilePath string
}

// RegisterFlags adds every flag from spec §6's operator surface to cmd
// and binds each to its viper key, so Load can read either source
// uniformly.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("mapping", "m", "", "path to the RML document (required)")
	flags.StringP("output", "o", "output.nq", "output path")
	flags.BoolP("dedup", "d", false, "whole-quad deduplication")
	flags.BoolP("threaded", "t", false, "enable multi-threading")
	flags.IntP("thread-count", "", 0, "thread count (0 = hardware)")
	flags.BoolP("adaptive", "a", false, "enable adaptive estimation")
	flags.IntP("hash-width", "b", 0, "fixed hash width, one of 32/64/128 (overrides -a)")
	flags.Float64P("sample-rate", "p", 0.05, "sampling probability (0,1)")
	flags.StringP("empty-tokens", "r", "", "comma-separated tokens treated as empty")
	flags.StringP("config", "c", "", "config file (key=value; overrides all other flags when present)")

	viper.BindPFlag(KeyMapping, flags.Lookup("mapping"))
	viper.BindPFlag(KeyOutput, flags.Lookup("output"))
	viper.BindPFlag(KeyDedup, flags.Lookup("dedup"))
	viper.BindPFlag(KeyThreaded, flags.Lookup("threaded"))
	viper.BindPFlag(KeyThreadCount, flags.Lookup("thread-count"))
	viper.BindPFlag(KeyAdaptive, flags.Lookup("adaptive"))
	viper.BindPFlag(KeyFixedWidth, flags.Lookup("hash-width"))
	viper.BindPFlag(KeySampleRate, flags.Lookup("sample-rate"))
	viper.BindPFlag(KeyEmptyTokens, flags.Lookup("empty-tokens"))
	viper.BindPFlag(KeyConfigFile, flags.Lookup("config"))
}

// Load resolves the final Config. When -c names a file, every key=value
// pair it defines forcibly overrides the corresponding flag, per spec
// §6's "config file ... overrides all other flags when present".
func Load() (*Config, error) {
	configFile := viper.GetString(KeyConfigFile)
	if configFile != "" {
		fileCfg := viper.New()
		fileCfg.SetConfigFile(configFile)
		fileCfg.SetConfigType("properties")
		if err := fileCfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
		for _, key := range fileCfg.AllKeys() {
			if isOperatorKey(key) {
				viper.Set(key, fileCfg.Get(key))
			}
		}
	}

	cfg := &Config{
		MappingPath:    viper.GetString(KeyMapping),
		OutputPath:     viper.GetString(KeyOutput),
		Dedup:          viper.GetBool(KeyDedup),
		Threaded:       viper.GetBool(KeyThreaded),
		ThreadCount:    viper.GetInt(KeyThreadCount),
		Adaptive:       viper.GetBool(KeyAdaptive),
		SampleRate:     viper.GetFloat64(KeySampleRate),
		ConfigFilePath: configFile,
	}
	if tokens := viper.GetString(KeyEmptyTokens); tokens != "" {
		cfg.EmptyTokens = strings.Split(tokens, ",")
	}
	if width := viper.GetInt(KeyFixedWidth); width != 0 {
		w, err := parseWidth(width)
		if err != nil {
			return nil, err
		}
		cfg.FixedWidth = w
		cfg.HasFixedWidth = true
	}

	if cfg.MappingPath == "" {
		return nil, fmt.Errorf("config: -m/--mapping is required")
	}
	return cfg, nil
}

func isOperatorKey(key string) bool {
	switch key {
	case KeyMapping, KeyOutput, KeyDedup, KeyThreaded, KeyThreadCount,
		KeyAdaptive, KeyFixedWidth, KeySampleRate, KeyEmptyTokens:
		return true
	}
	return false
}

func parseWidth(width int) (estimate.HashWidth, error) {
	switch width {
	case 32:
		return estimate.Width32, nil
	case 64:
		return estimate.Width64, nil
	case 128:
		return estimate.Width128, nil
	default:
		return 0, fmt.Errorf("config: invalid -b hash width %d, must be 32, 64, or 128", width)
	}
}
