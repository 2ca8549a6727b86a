package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmlstream/rmlstream/estimate"
)

func resetViper() { viper.Reset() }

func TestLoadReadsFlags(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	require := func(ok bool, msg string) {
		if !ok {
			t.Fatal(msg)
		}
	}
	require(cmd.Flags().Set("mapping", "map.ttl") == nil, "set mapping")
	require(cmd.Flags().Set("dedup", "true") == nil, "set dedup")
	require(cmd.Flags().Set("sample-rate", "0.2") == nil, "set sample-rate")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MappingPath != "map.ttl" {
		t.Fatalf("MappingPath = %q", cfg.MappingPath)
	}
	if !cfg.Dedup {
		t.Fatal("expected Dedup true")
	}
	if cfg.SampleRate != 0.2 {
		t.Fatalf("SampleRate = %v", cfg.SampleRate)
	}
	if cfg.OutputPath != "output.nq" {
		t.Fatalf("OutputPath default = %q", cfg.OutputPath)
	}
}

func TestLoadRequiresMapping(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	if _, err := Load(); err == nil {
		t.Fatal("expected error when -m is missing")
	}
}

func TestLoadFixedWidth(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	cmd.Flags().Set("mapping", "map.ttl")
	cmd.Flags().Set("hash-width", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.HasFixedWidth || cfg.FixedWidth != estimate.Width64 {
		t.Fatalf("expected fixed width 64, got %+v", cfg)
	}
}

func TestLoadConfigFileOverridesFlags(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "rmlstream.properties")
	if err := os.WriteFile(propsPath, []byte("output=from-config.nq\ndedup=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	cmd.Flags().Set("mapping", "map.ttl")
	cmd.Flags().Set("output", "from-flag.nq")
	cmd.Flags().Set("config", propsPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputPath != "from-config.nq" {
		t.Fatalf("expected config file to override flag, got %q", cfg.OutputPath)
	}
	if !cfg.Dedup {
		t.Fatal("expected dedup=true from config file")
	}
}
