package shared

import (
	"path/filepath"
	"testing"
)

func TestHandshakeChallenge(t *testing.T) {
	passwordHash := SHA256Hex("hunter2")

	t.Run("deterministic", func(t *testing.T) {
		a := HandshakeChallenge(1700000000, passwordHash)
		b := HandshakeChallenge(1700000000, passwordHash)
		if a != b {
			t.Errorf("same (timestamp, hash) pair should yield same challenge: %s != %s", a, b)
		}
	})

	t.Run("timestamp binds the challenge", func(t *testing.T) {
		a := HandshakeChallenge(1700000000, passwordHash)
		b := HandshakeChallenge(1700000001, passwordHash)
		if a == b {
			t.Error("changing the timestamp must change the challenge")
		}
	})

	t.Run("matches manual derivation", func(t *testing.T) {
		want := SHA256Hex("42" + passwordHash)
		got := HandshakeChallenge(42, passwordHash)
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestConfig(t *testing.T) {
	t.Run("defaults parse", func(t *testing.T) {
		cfg := DefaultConfig()
		if cfg.Database.Path == "" {
			t.Error("default config should set a database path")
		}
		if cfg.Downloads.MaxAttempts <= 0 {
			t.Error("default config should allow at least one download attempt")
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("AMPWAVE_SERVER_URL", "https://music.example.org")
		cfg := DefaultConfig()
		if cfg.Server.URL != "https://music.example.org" {
			t.Errorf("expected env override, got %q", cfg.Server.URL)
		}
	})

	t.Run("create and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("creating over an existing config should fail")
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if cfg.Downloads.Dir == "" {
			t.Error("loaded config should set a downloads dir")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// idempotent on a second run
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second migration run should be a no-op: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sessions'").Scan(&n); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if n != 1 {
		t.Error("sessions table should exist after migrations")
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("failed to rollback: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sessions'").Scan(&n); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("sessions table should be gone after rollback")
	}
}
