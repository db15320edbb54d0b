package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/logging"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := ParseEnvFrom(map[string]string{})
	if err != nil {
		t.Fatalf("ParseEnvFrom: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Store != StoreFile || cfg.Slot != "main" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != "console" {
		t.Fatalf("unexpected default sinks %v", cfg.LogSinks)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	cfg, err := ParseEnvFrom(map[string]string{
		"ROGUE_STORE":         "SQLite",
		"ROGUE_REDIS_ADDR":    "localhost:6379",
		"ROGUE_REDIS_TTL":     "1h",
		"ROGUE_LOG_SINKS":     "console, json",
		"ROGUE_LOG_JSON_PATH": "events.jsonl",
		"ROGUE_LOG_DEBUG":     "true",
	})
	if err != nil {
		t.Fatalf("ParseEnvFrom: %v", err)
	}
	if cfg.Store != StoreSQLite || cfg.RedisAddr != "localhost:6379" || cfg.RedisTTL != time.Hour {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	logCfg := cfg.Logging()
	if !logCfg.HasSink("json") || logCfg.JSON.FilePath != "events.jsonl" || logCfg.MinimumSeverity != logging.SeverityDebug {
		t.Fatalf("unexpected logging config %+v", logCfg)
	}
}

func TestParseEnvRejectsUnknownStore(t *testing.T) {
	if _, err := ParseEnvFrom(map[string]string{"ROGUE_STORE": "postgres"}); err == nil {
		t.Fatalf("expected unknown store kind rejected")
	}
}

func TestLoadRulesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte("starting_gold = 250\nsell_ratio = 2.0\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	cfg, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	def := run.DefaultConfig()
	if cfg.StartingGold != 250 {
		t.Fatalf("expected starting gold overlaid, got %d", cfg.StartingGold)
	}
	if cfg.SellRatio != def.SellRatio {
		t.Fatalf("expected out-of-range sell ratio normalized, got %v", cfg.SellRatio)
	}
	if cfg.RosterCap != def.RosterCap {
		t.Fatalf("expected untouched keys to keep defaults, got %d", cfg.RosterCap)
	}
}

func TestLoadRulesRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte("startng_gold = 250\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected unknown key rejected")
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	cfg, err := LoadRules("")
	if err != nil || cfg != run.DefaultConfig() {
		t.Fatalf("expected defaults, got %+v %v", cfg, err)
	}
}
