package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/linksim/sim"
)

// fileBaseConfig is the starting point a config file is decoded onto.
// Radio and latency-model constants keep their defaults; the run-defining options
// (user count, bandwidth, steps, path-loss exponent, policy, user positions and
// demands) are cleared so a file that omits them fails validation.
func fileBaseConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.NumUsers = 0
	cfg.TotalBandwidthHz = 0
	cfg.NumSteps = 0
	cfg.PathLossExponent = 0
	cfg.SchedulingPolicy = ""
	cfg.MasterSeed = 0
	cfg.UniformDemandBps = nil
	cfg.Placement = nil
	return cfg
}

// loadConfigFile parses a YAML (.yaml/.yml) or TOML (.toml) run configuration.
// Unknown keys are rejected so typos cannot silently fall back to defaults.
// The result is not validated; callers apply flag overrides first.
func loadConfigFile(path string) (sim.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Config{}, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return parseTOMLConfig(data)
	case ".yaml", ".yml", "":
		return parseYAMLConfig(data)
	default:
		return sim.Config{}, fmt.Errorf("%w: unsupported config format %q", sim.ErrInvalidConfiguration, filepath.Ext(path))
	}
}

func parseYAMLConfig(data []byte) (sim.Config, error) {
	cfg := fileBaseConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return sim.Config{}, fmt.Errorf("%w: parsing yaml config: %v", sim.ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

func parseTOMLConfig(data []byte) (sim.Config, error) {
	cfg := fileBaseConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return sim.Config{}, fmt.Errorf("%w: parsing toml config: %v", sim.ErrInvalidConfiguration, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return sim.Config{}, fmt.Errorf("%w: unknown toml keys %v", sim.ErrInvalidConfiguration, undecoded)
	}
	return cfg, nil
}

// encodeConfig renders cfg as YAML or TOML for the defaults command.
func encodeConfig(cfg sim.Config, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("encoding toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want yaml or toml)", format)
	}
	return buf.Bytes(), nil
}
