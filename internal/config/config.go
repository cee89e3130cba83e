// Package config loads service settings from a YAML file with ${VAR}
// expansion, after pulling an optional .env into the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Local       LocalConfig       `yaml:"local"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Calories    CaloriesConfig    `yaml:"calories"`
	Recognition RecognitionConfig `yaml:"recognition"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Mode       string `yaml:"mode"` // gin mode: debug, release or test
}

// DatabaseConfig is the durable Postgres store. An empty URL runs local-only.
type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	AutoMigrate    bool          `yaml:"auto_migrate"`
	DurableTimeout time.Duration `yaml:"durable_timeout"`
}

// LocalConfig selects the on-device store.
type LocalConfig struct {
	Driver string `yaml:"driver"` // memory or sqlite
	Path   string `yaml:"path"`
}

// RedisConfig backs onboarding drafts. An empty address keeps drafts in memory.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DraftTTL time.Duration `yaml:"draft_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type CaloriesConfig struct {
	// DefaultDailyTarget is used for users who have not finished onboarding.
	DefaultDailyTarget int `yaml:"default_daily_target"`
}

type RecognitionConfig struct {
	Seed int64 `yaml:"seed"` // 0 seeds from the clock
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Default returns the settings used for anything a file leaves out.
func Default() Config {
	return Config{
		Server:   ServerConfig{ListenAddr: ":8080", Mode: "release"},
		Database: DatabaseConfig{DurableTimeout: 5 * time.Second},
		Local:    LocalConfig{Driver: DriverSQLite, Path: "data/calories.db"},
		Redis:    RedisConfig{DraftTTL: 7 * 24 * time.Hour},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Calories: CaloriesConfig{DefaultDailyTarget: 2000},
	}
}

// Load reads configPath (a missing file means defaults), then applies the
// DB_URL, REDIS_ADDR, LISTEN_ADDR and LOG_LEVEL environment overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RECOGNITION_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Recognition.Seed = seed
		}
	}
}

func (c Config) Validate() error {
	switch c.Local.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Local.Path == "" {
			return errors.New("local.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown local.driver %q (want memory or sqlite)", c.Local.Driver)
	}
	if c.Calories.DefaultDailyTarget <= 0 {
		return errors.New("calories.default_daily_target must be positive")
	}
	return nil
}
