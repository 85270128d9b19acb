package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Season   SeasonConfig   `yaml:"season"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Game     GameConfig     `yaml:"game"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type SeasonConfig struct {
	Name   string `yaml:"name"`
	File   string `yaml:"file"`
	Source string `yaml:"source"` // "csv" or "postgres"
	// Rank teams that never played at home as well.
	IncludeAwayOnly bool `yaml:"include_away_only"`
	// Display names keyed by the name used in the season file.
	TeamNames map[string]string `yaml:"team_names"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL        string        `yaml:"url"` // empty keeps sessions in memory
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type GameConfig struct {
	InitialBalance int64  `yaml:"initial_balance"`
	BracketSize    int    `yaml:"bracket_size"`
	Seed           uint64 `yaml:"seed"` // 0 = random
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Defaults returns a config usable without a file.
func Defaults() *Config {
	return &Config{
		Season: SeasonConfig{
			Name:   "sample",
			File:   "data/sample_season.csv",
			Source: SourceCSV,
		},
		Redis: RedisConfig{SessionTTL: 2 * time.Hour},
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Game: GameConfig{
			InitialBalance: 10000,
			BracketSize:    16,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config over the defaults. An empty path skips the file.
// Environment variables win over both.
func Load(configPath string) (*Config, error) {
	config := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	c.Season.Name = getEnv("SEASON_NAME", c.Season.Name)
	c.Season.File = getEnv("SEASON_FILE", c.Season.File)
	c.Season.Source = getEnv("SEASON_SOURCE", c.Season.Source)
	c.Postgres.DSN = getEnv("POSTGRES_DSN", c.Postgres.DSN)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("GAME_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid GAME_SEED %q: %w", v, err)
		}
		c.Game.Seed = seed
	}
	return nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Season.Source {
	case SourceCSV:
		if c.Season.File == "" {
			errs = append(errs, errors.New("season.file is required for csv source"))
		}
	case SourcePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown season.source %q", c.Season.Source))
	}
	if c.Season.Name == "" {
		errs = append(errs, errors.New("season.name is required"))
	}
	if c.Game.InitialBalance <= 0 {
		errs = append(errs, fmt.Errorf("game.initial_balance must be positive, got %d", c.Game.InitialBalance))
	}
	if n := c.Game.BracketSize; n < 2 || n&(n-1) != 0 {
		errs = append(errs, fmt.Errorf("game.bracket_size must be a power of two, got %d", n))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be greater than 0, got %d", c.Server.Port))
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("server.read_header_timeout must be specified"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
