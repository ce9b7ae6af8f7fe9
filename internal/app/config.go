package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL      string `yaml:"server_url"`
	AdminUsername  string `yaml:"admin_username"`
	DownloadDir    string `yaml:"download_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LogFile        string `yaml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		AdminUsername:  "admin",
		DownloadDir:    defaultDownloadDir(),
		TimeoutSeconds: 30,
		LogFile:        defaultLogPath(),
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return applyEnv(cfg), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8000"
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = defaultDownloadDir()
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogPath()
	}
	return applyEnv(cfg), nil
}

// applyEnv lets the environment override the file, which is how the
// scripted subcommands are pointed at a non-default backend.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("CHEMVIZ_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("CHEMVIZ_ADMIN_USER"); v != "" {
		cfg.AdminUsername = v
	}
	if v := os.Getenv("CHEMVIZ_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	return cfg
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "chemviz", "config.yml")
}

func defaultLogPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chemviz", "chemviz.log")
	}
	return filepath.Join(base, "chemviz", "chemviz.log")
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
