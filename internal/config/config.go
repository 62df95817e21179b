package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 3323
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "marginalia"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig    `yaml:"database"`
	Redis          RedisConfig       `yaml:"redis"`
	JWTSecret      string            `yaml:"jwt_secret"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	AI             AIConfig          `yaml:"ai"`
	Agents         AgentsConfig      `yaml:"agents"`
	Share          ShareExportConfig `yaml:"share"`
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}

// Load reads and validates the YAML config file at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration used before YAML overrides.
func Default() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Agents: DefaultAgentsConfig(),
	}
}

func (c *AppConfig) validate(path string) error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d in %q, expected 1-65535", c.Port, path)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d in %q, expected 1-65535", c.Database.Port, path)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", c.Redis.Port, path)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d in %q, expected >= 0", c.Redis.DB, path)
	}
	if c.Agents.ContextBudget < 1 {
		return fmt.Errorf("invalid agents.context_budget %d in %q, expected >= 1", c.Agents.ContextBudget, path)
	}
	if c.Agents.StreamTimeoutSeconds < 1 {
		return fmt.Errorf("invalid agents.stream_timeout_seconds %d in %q, expected >= 1", c.Agents.StreamTimeoutSeconds, path)
	}
	switch c.Agents.DefaultVerbosity {
	case "brief", "normal":
	default:
		return fmt.Errorf("invalid agents.default_verbosity %q in %q, expected brief|normal", c.Agents.DefaultVerbosity, path)
	}
	for i, p := range c.AI.Providers {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("ai.providers[%d] in %q is missing an id", i, path)
		}
	}
	return nil
}
