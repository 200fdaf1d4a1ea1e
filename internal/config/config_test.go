package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/join/internal/dnd"
	"github.com/evanschultz/join/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/join.db")
	if cfg.Database.Path != "/tmp/join.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Store.Backend != StoreSQLite {
		t.Fatalf("unexpected store backend %q", cfg.Store.Backend)
	}
	if cfg.Drag.Input != InputPointer || cfg.Drag.LongPressMS != 500 || cfg.Drag.PlaceholderWidth != 252 {
		t.Fatalf("unexpected drag defaults %#v", cfg.Drag)
	}
	if cfg.Drag.FailurePolicy != "notify" {
		t.Fatalf("unexpected failure policy %q", cfg.Drag.FailurePolicy)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/join.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/join.db"

[store]
backend = "docstore"
base_url = "https://join.example.firebasedatabase.app"
timeout = "5s"

[cache]
redis_addr = "127.0.0.1:6379"
ttl = "1m"

[drag]
input = "touch"
long_press_ms = 650
placeholder_width = 200
failure_policy = "rollback"

[board.empty_messages]
in-progress = "Nothing in flight"

[auth]
secret = "s3cret"
token_ttl = "2h"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/join.db" || cfg.Store.Backend != StoreDocStore {
		t.Fatalf("unexpected store config %#v %#v", cfg.Database, cfg.Store)
	}
	if cfg.Store.Timeout.Duration != 5*time.Second || cfg.Cache.TTL.Duration != time.Minute {
		t.Fatalf("unexpected durations %v %v", cfg.Store.Timeout, cfg.Cache.TTL)
	}
	if cfg.Auth.TokenTTL.Duration != 2*time.Hour || cfg.Auth.MinPasswordLength != 8 {
		t.Fatalf("unexpected auth config %#v", cfg.Auth)
	}
	if cfg.DragMode() != dnd.ModeTouch {
		t.Fatalf("expected touch mode, got %v", cfg.DragMode())
	}

	opts, err := cfg.DragOptions()
	if err != nil {
		t.Fatalf("DragOptions() error = %v", err)
	}
	if opts.LongPress != 650*time.Millisecond || opts.PlaceholderWidth != 200 || opts.FailurePolicy != dnd.FailureRollback {
		t.Fatalf("unexpected drag options %#v", opts)
	}
	if opts.EmptyMessages[domain.StatusInProgress] != "Nothing in flight" {
		t.Fatalf("unexpected empty messages %#v", opts.EmptyMessages)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"failure policy": "[drag]\nfailure_policy = \"explode\"\n",
		"input mode":     "[drag]\ninput = \"pen\"\n",
		"long press":     "[drag]\nlong_press_ms = 0\n",
		"backend":        "[store]\nbackend = \"mongo\"\n",
		"docstore url":   "[store]\nbackend = \"docstore\"\nbase_url = \"ftp://x\"\n",
		"empty message":  "[board.empty_messages]\narchived = \"x\"\n",
		"bind":           "[server]\nbind = \"nope\"\n",
		"duration":       "[auth]\ntoken_ttl = \"soon\"\n",
		"log level":      "[logging]\nlevel = \"loud\"\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := Load(path, Default("/tmp/default.db")); err == nil {
			t.Fatalf("%s: expected load error", name)
		}
	}
}

func TestValidateDocStoreSkipsDatabasePath(t *testing.T) {
	cfg := Default("")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "database path") {
		t.Fatalf("expected database path error, got %v", err)
	}
	cfg.Store.Backend = StoreDocStore
	cfg.Store.BaseURL = "http://localhost:9000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
