// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config loads wasmrunner's layered startup configuration:
// built-in defaults, overridden by a YAML config file, overridden in
// turn by --set/--set-file command line values, with explicitly set
// command-line flags winning over all of them, the way OPA's
// runtime.loadConfig composes a config document before handing it to
// the plugin manager.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultAddr is the bind address used when none is configured.
	DefaultAddr = ":8181"

	// DefaultTickInterval is how often the reconciler scans the
	// watched directory when no filesystem event wakes it sooner.
	DefaultTickInterval = 1000 // milliseconds

	// DefaultCacheDir is the cache directory the runtime creates at
	// startup when none is configured.
	DefaultCacheDir = ".wasmrunner-cache"
)

// Config is the fully resolved set of values the runtime needs to
// start serving. Every field has a spec-given default, so a caller
// that supplies no file and no overrides still gets a runnable
// configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8181".
	Addr string

	// Dir is the watched directory the controller reconciles against.
	Dir string

	// TickIntervalMS is the reconciler's poll interval, in milliseconds.
	TickIntervalMS int

	// CacheDir is a directory the runtime creates at startup. It is not
	// passed to the compiler, whose wasmtime module cache stays in
	// wasmtime's default location.
	CacheDir string

	// LogLevel is one of debug, info, error.
	LogLevel string

	// LogFormat is one of text, json.
	LogFormat string

	// ShutdownGracePeriod is how long, in seconds, Serve waits for
	// in-flight requests to finish before forcing a shutdown.
	ShutdownGracePeriod int
}

// Params carries the raw command-line inputs consumed by Load.
type Params struct {
	ConfigFile          string
	ConfigOverrides     []string
	ConfigOverrideFiles []string

	Addr                string
	Dir                 string
	TickIntervalMS      int
	CacheDir            string
	LogLevel            string
	LogFormat           string
	ShutdownGracePeriod int
}

// Load resolves a Config from p: built-in defaults seed viper, an
// optional YAML file is merged on top, then --set/--set-file overrides
// are applied, mirroring the precedence OPA's runtime.loadConfig
// documents (file, then --set, then --set-file). Non-empty (or, for
// the integer settings, positive) flag values in p are applied last
// and win over everything else.
func Load(p Params) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WASMRUNNER")
	v.AutomaticEnv()

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("dir", ".")
	v.SetDefault("tick_interval_ms", DefaultTickInterval)
	v.SetDefault("cache_dir", DefaultCacheDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_grace_period", 10)

	if p.ConfigFile != "" {
		v.SetConfigFile(p.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", p.ConfigFile, err)
		}
	}

	if err := applyOverrides(v, p.ConfigOverrides); err != nil {
		return nil, fmt.Errorf("config: --set: %w", err)
	}

	if err := applyOverrideFiles(v, p.ConfigOverrideFiles); err != nil {
		return nil, fmt.Errorf("config: --set-file: %w", err)
	}

	// Explicit flag values win over everything else, the same way
	// a non-zero-value flag always wins in OPA's cobra commands.
	applyFlag(v, "addr", p.Addr)
	applyFlag(v, "dir", p.Dir)
	if p.TickIntervalMS > 0 {
		v.Set("tick_interval_ms", p.TickIntervalMS)
	}
	applyFlag(v, "cache_dir", p.CacheDir)
	applyFlag(v, "log_level", p.LogLevel)
	applyFlag(v, "log_format", p.LogFormat)
	if p.ShutdownGracePeriod > 0 {
		v.Set("shutdown_grace_period", p.ShutdownGracePeriod)
	}

	return &Config{
		Addr:                v.GetString("addr"),
		Dir:                 v.GetString("dir"),
		TickIntervalMS:      v.GetInt("tick_interval_ms"),
		CacheDir:            v.GetString("cache_dir"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
		ShutdownGracePeriod: v.GetInt("shutdown_grace_period"),
	}, nil
}

func applyFlag(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// applyOverrides parses "--set" values of the form key=value or
// comma-separated key=value,key=value pairs, following OPA's --set
// syntax (without the full strvals dotted-path grammar, since
// wasmrunner's config is a flat key set).
func applyOverrides(v *viper.Viper, overrides []string) error {
	for _, override := range overrides {
		for _, pair := range strings.Split(override, ",") {
			if pair == "" {
				continue
			}
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --set value %q: expected key=value", pair)
			}
			setTyped(v, k, val)
		}
	}
	return nil
}

// applyOverrideFiles parses "--set-file" values of the form
// key=/path/to/file, reading the file contents as the value.
func applyOverrideFiles(v *viper.Viper, overrides []string) error {
	for _, override := range overrides {
		k, path, ok := strings.Cut(override, "=")
		if !ok {
			return fmt.Errorf("invalid --set-file value %q: expected key=path", override)
		}
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		setTyped(v, k, strings.TrimSpace(string(bs)))
	}
	return nil
}

func setTyped(v *viper.Viper, key, val string) {
	if n, err := strconv.Atoi(val); err == nil {
		v.Set(key, n)
		return
	}
	v.Set(key, val)
}
