package app

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv neutralizes ambient overrides so tests see file and default
// behavior only.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CHEMVIZ_SERVER_URL", "")
	t.Setenv("CHEMVIZ_ADMIN_USER", "")
	t.Setenv("CHEMVIZ_DOWNLOAD_DIR", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.AdminUsername != "admin" {
		t.Fatalf("AdminUsername = %q", cfg.AdminUsername)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Fatalf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	if cfg.DownloadDir == "" {
		t.Fatalf("DownloadDir must have a default")
	}
}

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "server_url: http://backend:9000\nadmin_username: root\ntimeout_seconds: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://backend:9000" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.AdminUsername != "root" {
		t.Fatalf("AdminUsername = %q", cfg.AdminUsername)
	}
	if cfg.TimeoutSeconds != 5 {
		t.Fatalf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	// Fields the file omits keep their defaults.
	if cfg.DownloadDir == "" || cfg.LogFile == "" {
		t.Fatalf("omitted fields must default: dir=%q log=%q", cfg.DownloadDir, cfg.LogFile)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("server_url: http://backend:9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHEMVIZ_SERVER_URL", "http://env-wins:8000")
	t.Setenv("CHEMVIZ_ADMIN_USER", "superuser")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://env-wins:8000" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.AdminUsername != "superuser" {
		t.Fatalf("AdminUsername = %q", cfg.AdminUsername)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	in := Config{
		ServerURL:      "http://example:8000",
		AdminUsername:  "ops",
		DownloadDir:    "/tmp/reports",
		TimeoutSeconds: 12,
		LogFile:        "/tmp/chemviz.log",
	}
	if err := SaveConfig(in, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	out, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}
