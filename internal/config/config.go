package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/postcardmijo/food/internal/assistant"
	"github.com/postcardmijo/food/internal/inventory"
	"github.com/postcardmijo/food/internal/meals"
	"github.com/postcardmijo/food/internal/menu"
	"github.com/postcardmijo/food/internal/tracker"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Meals     MealsConfig     `yaml:"meals"`
	Menu      menu.Config     `yaml:"menu"`
	Assistant AssistantConfig `yaml:"assistant"`
	Inventory InventoryConfig `yaml:"inventory"`
}

// ServerConfig holds the listening ports
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// DatabaseConfig selects the gorm dialect and connection string
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MealsConfig tunes the meal log
type MealsConfig struct {
	StorageKey    string `yaml:"storage_key"`
	DefaultWindow int    `yaml:"default_window"`
}

// AssistantConfig configures the chat model and how it is prompted
type AssistantConfig struct {
	assistant.ProviderConfig `yaml:",inline"`
	assistant.Options        `yaml:",inline"`
}

// InventoryConfig configures the stock backend
type InventoryConfig struct {
	HallMapping  map[string]string        `yaml:"hall_mapping"`
	SeedQuantity float64                  `yaml:"seed_quantity"`
	Forecast     inventory.ForecastParams `yaml:"forecast"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, MetricsPort: 9090},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "dininghall.db",
		},
		Meals: MealsConfig{
			StorageKey:    meals.DefaultKey,
			DefaultWindow: meals.DefaultWindow,
		},
		Menu: menu.DefaultConfig(),
		Assistant: AssistantConfig{
			ProviderConfig: assistant.ProviderConfig{
				Provider: assistant.OpenAIProvider,
				Model:    "gpt-4o-mini",
			},
			Options: assistant.DefaultOptions(),
		},
		Inventory: InventoryConfig{
			HallMapping:  tracker.DefaultHallMapping(),
			SeedQuantity: inventory.DefaultSeedQuantity,
			Forecast:     inventory.DefaultForecastParams(),
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file or .env is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, "DININGHALL_DATABASE_DRIVER")
	setString(&c.Database.DSN, "DININGHALL_DATABASE_DSN")
	setString(&c.Assistant.APIKey, "OPENAI_API_KEY")
	setString(&c.Assistant.Model, "DININGHALL_LLM_MODEL")
	setString(&c.Assistant.BaseURL, "DININGHALL_LLM_BASE_URL")
	if err := setInt(&c.Server.Port, "DININGHALL_PORT"); err != nil {
		return err
	}
	return setInt(&c.Server.MetricsPort, "DININGHALL_METRICS_PORT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
