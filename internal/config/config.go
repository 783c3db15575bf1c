package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	JWT         JWTConfig         `yaml:"jwt"`
	CORS        CORSConfig        `yaml:"cors"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Modules     ModulesConfig     `yaml:"modules"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

// DatabaseConfig MySQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Params   string `yaml:"params"`
}

// DSN builds the MySQL DSN string
func (d DatabaseConfig) DSN() string {
	params := d.Params
	if params == "" {
		params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", d.User, d.Password, d.Host, d.Port, d.Name, params)
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// PermissionsConfig maps roles to numeric levels and actions to
// the minimum level that may perform them.
type PermissionsConfig struct {
	Roles        map[string]int `yaml:"roles"`
	SaveLevel    int            `yaml:"save_level"`
	ApproveLevel int            `yaml:"approve_level"`
	StatusLevels map[string]int `yaml:"status_levels"`
}

// ModulesConfig declares editable root keys per module type for
// inline field edits. Empty list means any root key is accepted.
type ModulesConfig struct {
	Types map[string][]string `yaml:"types"`
}

// Load reads a YAML config file and applies env var overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadOrDefault returns defaults (plus env overrides) when the
// config file is absent, so local dev works without one.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = defaultConfig()
		applyEnvOverrides(cfg)
	}
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Env: "local"},
		Database: DatabaseConfig{
			Host: "127.0.0.1",
			Port: 3306,
			User: "pagecraft",
			Name: "pagecraft",
		},
		Redis: RedisConfig{Host: "127.0.0.1", Port: 6379, PoolSize: 10},
		JWT:   JWTConfig{ExpiresIn: 3600},
		Permissions: PermissionsConfig{
			Roles: map[string]int{
				"viewer":     1,
				"author":     2,
				"editor":     3,
				"admin":      4,
				"superadmin": 5,
			},
			SaveLevel:    2,
			ApproveLevel: 3,
			StatusLevels: map[string]int{
				"draft":     2,
				"scheduled": 3,
				"published": 3,
				"archived":  3,
			},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}

// IsDevelopment reports whether the server runs in a dev-like env
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev" || c.Server.Env == "local"
}
