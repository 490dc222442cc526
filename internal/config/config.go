package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"development"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"data/fieldops.db"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"log"`

	Server struct {
		Port         int `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
		ReadTimeout  int `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15"`
		WriteTimeout int `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15"`
		IdleTimeout  int `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60"`
	} `yaml:"server"`

	// Workspace is the external-document workspace edits are synced from.
	// Sync endpoints are disabled when base_url is empty.
	Workspace struct {
		BaseURL  string `yaml:"base_url" env:"WORKSPACE_BASE_URL"`
		APIKey   string `yaml:"api_key" env:"WORKSPACE_API_KEY"`
		Timeout  int    `yaml:"timeout" env:"WORKSPACE_TIMEOUT" env-default:"30"`
		PageSize int    `yaml:"page_size" env:"WORKSPACE_PAGE_SIZE" env-default:"50"`
	} `yaml:"workspace"`
}

// LoadConfig reads the YAML config at path with environment overrides. A
// missing file is not fatal; the environment alone is enough to run.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}
