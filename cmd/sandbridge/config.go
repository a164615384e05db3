package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hostbridge/sandbridge/internal/core"
)

// fileConfig is the on-disk configuration shape.
type fileConfig struct {
	Runtime struct {
		MemoryLimitMB int    `koanf:"memory_limit_mb"`
		StorageDir    string `koanf:"storage_dir"`
	} `koanf:"runtime"`
	Preload struct {
		Path      string `koanf:"path"`
		Bundling  bool   `koanf:"bundling"`
		MaxSizeKB int    `koanf:"max_size_kb"`
	} `koanf:"preload"`
	Feed struct {
		URL   string `koanf:"url"`
		Codec string `koanf:"codec"`
	} `koanf:"feed"`
}

// loadConfig merges defaults, an optional YAML file, and SANDBRIDGE_*
// environment variables, in that order of precedence.
// SANDBRIDGE_PRELOAD__PATH=/p.js overrides preload.path.
func loadConfig(configPath string) (fileConfig, error) {
	k := koanf.New(".")

	base := core.Defaults()
	defaults := map[string]interface{}{
		"runtime.memory_limit_mb": base.MemoryLimitMB,
		"runtime.storage_dir":     base.StorageDir,
		"preload.path":            "",
		"preload.bundling":        base.PreloadBundling,
		"preload.max_size_kb":     base.MaxPreloadSizeKB,
		"feed.url":                "",
		"feed.codec":              "json",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fileConfig{}, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SANDBRIDGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "SANDBRIDGE_")), "__", ".", -1)
	}), nil); err != nil {
		return fileConfig{}, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg fileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// coreConfig maps the file configuration onto the runtime configuration.
func (c fileConfig) coreConfig() core.Config {
	return core.Config{
		MemoryLimitMB:    c.Runtime.MemoryLimitMB,
		StorageDir:       c.Runtime.StorageDir,
		PreloadBundling:  c.Preload.Bundling,
		MaxPreloadSizeKB: c.Preload.MaxSizeKB,
	}
}
