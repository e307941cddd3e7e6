package config

import (
	"os"
	"regexp"
	"time"

	"github.com/clatterlab/clatter/pkg/helper"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the root configuration for the chat server.
	Config struct {
		Server   ServerConfig   `yaml:"server"`
		Logger   LoggerConfig   `yaml:"logger"`
		Database DatabaseConfig `yaml:"database"`
		Cache    CacheConfig    `yaml:"cache"`
		I18n     I18nConfig     `yaml:"i18n"`
		Metrics  MetricsConfig  `yaml:"metrics"`
	}

	// ServerConfig represents the WebSocket listener configuration
	ServerConfig struct {
		Addr          string        `yaml:"addr"`            // listen address, e.g. ":8080"
		ReadLimit     int64         `yaml:"read_limit"`      // max inbound frame size in bytes
		SendQueueSize int           `yaml:"send_queue_size"` // per-connection outbound queue length
		PingInterval  time.Duration `yaml:"ping_interval"`
		PongWait      time.Duration `yaml:"pong_wait"`
		WriteWait     time.Duration `yaml:"write_wait"`
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, default is local
		TimeFormat string `yaml:"time_format"` // time format for log timestamps
	}

	// DatabaseConfig represents the relational storage configuration
	DatabaseConfig struct {
		Type     string `yaml:"type"` // sqlite, postgres, mysql
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"` // file path for sqlite
		SSLMode  string `yaml:"sslmode"`
	}

	// CacheConfig represents the optional presence mirror configuration
	CacheConfig struct {
		Type  string      `yaml:"type"` // "none" or "redis"
		Redis RedisConfig `yaml:"redis"`
	}

	// RedisConfig represents the Redis connection configuration
	RedisConfig struct {
		Addr     string        `yaml:"addr"`
		Username string        `yaml:"username"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix"`
		TTL      time.Duration `yaml:"ttl"` // TTL for mirrored presence entries
	}

	// I18nConfig represents the localization configuration
	I18nConfig struct {
		Lang string `yaml:"lang"` // default language for user-facing messages
		Path string `yaml:"path"` // optional directory with extra catalogs
	}

	// MetricsConfig represents the metrics endpoint configuration
	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}
)

// LoadConfig loads configuration from a YAML file with environment variable support
func LoadConfig(filename string) (*Config, string, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfgPath := helper.GetCfgPath(filename)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	// Resolve environment variables
	data = resolveEnv(data)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, err
	}
	setDefaults(&cfg)

	return &cfg, cfgPath, nil
}

// setDefaults fills in zero values with sane defaults
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadLimit == 0 {
		cfg.Server.ReadLimit = 32 * 1024
	}
	if cfg.Server.SendQueueSize == 0 {
		cfg.Server.SendQueueSize = 64
	}
	if cfg.Server.PongWait == 0 {
		cfg.Server.PongWait = 60 * time.Second
	}
	if cfg.Server.PingInterval == 0 || cfg.Server.PingInterval >= cfg.Server.PongWait {
		cfg.Server.PingInterval = cfg.Server.PongWait * 9 / 10
	}
	if cfg.Server.WriteWait == 0 {
		cfg.Server.WriteWait = 10 * time.Second
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.DBName == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.DBName = "data/clatter.db"
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "none"
	}
	if cfg.I18n.Lang == "" {
		cfg.I18n.Lang = "ru"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "clatter"
	}
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
