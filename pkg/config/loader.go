package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadPolicyConfig reads a PolicyConfig from a YAML file at path,
// overlaying environment variables prefixed FP_ (e.g. FP_MODE,
// FP_HARDENED_JOIN_ROW_CAP), matching the env-override convenience the
// teacher's CLI provides for connector configs. An empty path returns
// the defaults with only the environment overlay applied.
func LoadPolicyConfig(path string) (*PolicyConfig, error) {
	cfg := NewDefaultPolicyConfig()

	v := viper.New()
	v.SetEnvPrefix("FP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configTypeFromExt(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading policy config %s: %w", path, err)
		}
	}

	bindPolicyDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling policy config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy config: %w", err)
	}
	return cfg, nil
}

// LoadGateConfig reads a single GateConfig from a YAML file.
func LoadGateConfig(path string) (*GateConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configTypeFromExt(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading gate config %s: %w", path, err)
	}

	var cfg GateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling gate config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadGateConfigDir reads every *.yaml/*.yml file in dir as a GateConfig,
// keyed by packet_id.
func LoadGateConfigDir(dir string) (map[string]*GateConfig, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("globbing gate config dir %s: %w", dir, err)
	}
	ymlMatches, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("globbing gate config dir %s: %w", dir, err)
	}
	matches = append(matches, ymlMatches...)

	out := make(map[string]*GateConfig, len(matches))
	for _, m := range matches {
		cfg, err := LoadGateConfig(m)
		if err != nil {
			return nil, err
		}
		out[cfg.PacketID] = cfg
	}
	return out, nil
}

func bindPolicyDefaults(v *viper.Viper, cfg *PolicyConfig) {
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("fail_closed_unknown_features", cfg.FailClosedUnknownFeatures)
	v.SetDefault("arena_budget_bytes", cfg.ArenaBudgetBytes)
	v.SetDefault("prior", cfg.Prior)
	v.SetDefault("conformal_alpha", cfg.ConformalAlpha)
	v.SetDefault("conformal_window", cfg.ConformalWindow)
	v.SetDefault("conformal_min_coverage_evals", cfg.ConformalMinCoverageEvals)
}

func configTypeFromExt(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}
