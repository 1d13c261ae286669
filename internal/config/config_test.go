package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storytime.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Storage.Driver != DriverFile {
		t.Errorf("Driver = %q, want %q", cfg.Storage.Driver, DriverFile)
	}
	if cfg.Storage.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Storage.Timeout)
	}
	if cfg.Broadcast.SnapshotInterval != 30*time.Second {
		t.Errorf("SnapshotInterval = %v, want 30s", cfg.Broadcast.SnapshotInterval)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
  auth_token: secret
  allowed_origins: ["http://localhost:3000"]
storage:
  driver: sqlite
  sqlite_path: /tmp/progress.db
  timeout: 2s
engine:
  timezone: Europe/Madrid
log:
  level: debug
  format: json
broadcast:
  snapshot_interval: 10s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Server.AuthToken != "secret" {
		t.Errorf("AuthToken = %q", cfg.Server.AuthToken)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "/tmp/progress.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Storage.Timeout)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc.String() != "Europe/Madrid" {
		t.Errorf("Location() = %v", loc)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\nstorage:\n  driver: file\n")
	t.Setenv("STORYTIME_SERVER_PORT", "9100")
	t.Setenv("STORYTIME_STORAGE_DRIVER", "memory")
	t.Setenv("STORYTIME_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("STORYTIME_STORAGE_TIMEOUT", "750ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", got)
	}
	if cfg.Storage.Timeout != 750*time.Millisecond {
		t.Errorf("Timeout = %v, want 750ms", cfg.Storage.Timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing); err == nil {
		t.Fatal("Load() on a missing file should fail")
	}

	cfg, err := LoadOrDefault(missing)
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.Port != 8420 {
		t.Errorf("Port = %d, want default 8420", cfg.Server.Port)
	}

	if _, err := LoadOrDefault(""); err != nil {
		t.Errorf("LoadOrDefault(\"\") error: %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad driver":   "storage:\n  driver: postgres\n",
		"bad port":     "server:\n  port: 70000\n",
		"bad timezone": "engine:\n  timezone: Mars/Olympus\n",
		"bad yaml":     "server: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLocationDefaultsToLocal(t *testing.T) {
	cfg := defaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc != time.Local {
		t.Errorf("Location() = %v, want time.Local", loc)
	}
}
