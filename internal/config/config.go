package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the YAML file
const DefaultPath = "config/config.yml"

type AppConfig struct {
	Port          int    `yaml:"port"`
	GinMode       string `yaml:"gin_mode"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Origin  string `yaml:"origin"`
	Timeout string `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	IdleTTL      string `yaml:"idle_ttl"`
	CookieTTL    string `yaml:"cookie_ttl"`
	StartTimeout string `yaml:"start_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ConfigFile struct {
	App     AppConfig     `yaml:"app"`
	API     APIConfig     `yaml:"api"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

type Config struct {
	Port          string
	GinMode       string
	SecureCookies bool

	APIBaseURL string
	APIOrigin  string
	APITimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionIdleTTL      time.Duration
	SessionCookieTTL    time.Duration
	SessionStartTimeout time.Duration

	LogLevel  string
	LogFormat string
}

func defaults() ConfigFile {
	return ConfigFile{
		App:     AppConfig{Port: 8080, GinMode: "release"},
		API:     APIConfig{BaseURL: "/api", Origin: "http://localhost:3000", Timeout: "15s"},
		Session: SessionConfig{IdleTTL: "30m", CookieTTL: "168h", StartTimeout: "10s"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env files, then DefaultPath, then environment overrides
func Load() (*Config, error) {
	loadEnvFiles(".env."+env("APP_ENV", "local"), ".env")
	return LoadFrom(DefaultPath)
}

// loadEnvFiles sets variables from the given files without overriding ones
// already present in the environment. Missing files are skipped.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// LoadFrom builds a Config from the YAML file at path. A missing file means
// defaults; a malformed one is an error.
func LoadFrom(path string) (*Config, error) {
	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	apiTimeout, err := time.ParseDuration(env("RETAILDASH_API_TIMEOUT", file.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("invalid api timeout: %w", err)
	}

	idleTTL, err := time.ParseDuration(env("RETAILDASH_SESSION_IDLE_TTL", file.Session.IdleTTL))
	if err != nil {
		return nil, fmt.Errorf("invalid session idle ttl: %w", err)
	}

	cookieTTL, err := time.ParseDuration(env("RETAILDASH_SESSION_COOKIE_TTL", file.Session.CookieTTL))
	if err != nil {
		return nil, fmt.Errorf("invalid session cookie ttl: %w", err)
	}

	startTimeout, err := time.ParseDuration(env("RETAILDASH_SESSION_START_TIMEOUT", file.Session.StartTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid session start timeout: %w", err)
	}

	redisDB, err := strconv.Atoi(env("RETAILDASH_REDIS_DB", strconv.Itoa(file.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid redis db: %w", err)
	}

	cfg := &Config{
		Port:                env("RETAILDASH_PORT", strconv.Itoa(file.App.Port)),
		GinMode:             env("GIN_MODE", file.App.GinMode),
		SecureCookies:       env("RETAILDASH_SECURE_COOKIES", strconv.FormatBool(file.App.SecureCookies)) == "true",
		APIBaseURL:          env("RETAILDASH_API_URL", file.API.BaseURL),
		APIOrigin:           env("RETAILDASH_API_ORIGIN", file.API.Origin),
		APITimeout:          apiTimeout,
		RedisAddr:           env("RETAILDASH_REDIS_ADDR", file.Redis.Addr),
		RedisPassword:       env("RETAILDASH_REDIS_PASSWORD", file.Redis.Password),
		RedisDB:             redisDB,
		SessionIdleTTL:      idleTTL,
		SessionCookieTTL:    cookieTTL,
		SessionStartTimeout: startTimeout,
		LogLevel:            env("RETAILDASH_LOG_LEVEL", file.Log.Level),
		LogFormat:           env("RETAILDASH_LOG_FORMAT", file.Log.Format),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	config := defaults()

	bytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}
	return &config, nil
}

// Validate rejects settings the dashboard cannot start with
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	switch {
	case isAbsolute(c.APIBaseURL):
	case strings.HasPrefix(c.APIBaseURL, "/"):
		if !isAbsolute(c.APIOrigin) {
			return fmt.Errorf("api origin %q must be absolute when the base url is relative", c.APIOrigin)
		}
	default:
		return fmt.Errorf("api base url %q must be absolute or start with /", c.APIBaseURL)
	}

	for name, d := range map[string]time.Duration{
		"api timeout":           c.APITimeout,
		"session idle ttl":      c.SessionIdleTTL,
		"session cookie ttl":    c.SessionCookieTTL,
		"session start timeout": c.SessionStartTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// RedisEnabled reports whether visitor cookies go to Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
