// Package config loads process settings from the environment and game
// rules from an optional TOML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/logging"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Env is the process configuration.
type Env struct {
	ListenAddr  string        `env:"ROGUE_LISTEN_ADDR" envDefault:":8080"`
	Store       string        `env:"ROGUE_STORE" envDefault:"file"`
	SaveDir     string        `env:"ROGUE_SAVE_DIR" envDefault:"saves"`
	SQLitePath  string        `env:"ROGUE_SQLITE_PATH" envDefault:"saves.db"`
	Slot        string        `env:"ROGUE_SAVE_SLOT" envDefault:"main"`
	RedisAddr   string        `env:"ROGUE_REDIS_ADDR"`
	RedisTTL    time.Duration `env:"ROGUE_REDIS_TTL" envDefault:"0s"`
	RulesFile   string        `env:"ROGUE_RULES_FILE"`
	LogSinks    []string      `env:"ROGUE_LOG_SINKS" envSeparator:"," envDefault:"console"`
	LogJSONPath string        `env:"ROGUE_LOG_JSON_PATH"`
	LogDebug    bool          `env:"ROGUE_LOG_DEBUG"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalized()
}

// ParseEnvFrom reads Env from the given variables instead of the process
// environment.
func ParseEnvFrom(vars map[string]string) (Env, error) {
	var cfg Env
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalized()
}

func (e Env) normalized() (Env, error) {
	e.Store = strings.ToLower(strings.TrimSpace(e.Store))
	switch e.Store {
	case "":
		e.Store = StoreFile
	case StoreFile, StoreSQLite:
	default:
		return Env{}, fmt.Errorf("unknown store kind %q", e.Store)
	}
	sinks := e.LogSinks[:0]
	for _, s := range e.LogSinks {
		if s = strings.TrimSpace(s); s != "" {
			sinks = append(sinks, s)
		}
	}
	e.LogSinks = sinks
	return e, nil
}

// Logging returns the router configuration for e.
func (e Env) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if len(e.LogSinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), e.LogSinks...)
	}
	cfg.JSON.FilePath = e.LogJSONPath
	if e.LogDebug {
		cfg.MinimumSeverity = logging.SeverityDebug
	}
	return cfg
}

// LoadRules returns the default rules overlaid with the keys defined in
// the TOML file at path. An empty path yields the defaults.
func LoadRules(path string) (run.Config, error) {
	cfg := run.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return run.Config{}, fmt.Errorf("load rules: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return run.Config{}, fmt.Errorf("load rules: unknown keys %s", strings.Join(keys, ", "))
	}
	return cfg.Normalized(), nil
}
