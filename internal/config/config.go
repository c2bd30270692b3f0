package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "nexmoctl.toml"

// Config is the top-level nexmoctl configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig holds the account credentials and the endpoint they are sent to.
type APIConfig struct {
	Key     string `toml:"key"`
	Secret  string `toml:"secret"`
	BaseURL string `toml:"base_url"`
	Timeout int    `toml:"timeout"` // seconds, 0 = transport default
}

// ServerConfig controls `nexmoctl serve`.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	AuthToken          string   `toml:"auth_token"` // bearer token required on /api when set
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ShutdownTimeout    int      `toml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://rest.nexmo.com",
			Timeout: 30,
		},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8095,
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration with priority: defaults → nexmoctl.toml → env vars → CLI flags.
// The flags parameter allows CLI flag overrides to be passed in.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cfg, flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values. Credentials are not
// required here; see RequireCredentials.
func (c *Config) Validate() error {
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be non-negative, got %d", c.API.Timeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative, got %d", c.Server.ShutdownTimeout)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// RequireCredentials reports an error when the API key or secret is unset.
func (c *Config) RequireCredentials() error {
	if c.API.Key == "" {
		return fmt.Errorf("api.key is required (set NEXMO_API_KEY or --api-key)")
	}
	if c.API.Secret == "" {
		return fmt.Errorf("api.secret is required (set NEXMO_API_SECRET or --api-secret)")
	}
	return nil
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}

// Address returns the host:port string for the server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GenerateDefault writes a commented default nexmoctl.toml to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o600)
}

// ToTOML returns the config serialized as TOML.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("NEXMO_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("NEXMO_API_SECRET"); v != "" {
		cfg.API.Secret = v
	}
	if v := os.Getenv("NEXMO_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if err := envInt("NEXMO_TIMEOUT", &cfg.API.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("NEXMO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt("NEXMO_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("NEXMO_SERVER_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("NEXMO_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("NEXMO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEXMO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func applyFlags(cfg *Config, flags map[string]string) error {
	if flags == nil {
		return nil
	}
	if v, ok := flags["api-key"]; ok && v != "" {
		cfg.API.Key = v
	}
	if v, ok := flags["api-secret"]; ok && v != "" {
		cfg.API.Secret = v
	}
	if v, ok := flags["base-url"]; ok && v != "" {
		cfg.API.BaseURL = v
	}
	if v, ok := flags["host"]; ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := flags["port"]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid --port %q: not an integer", v)
		}
		cfg.Server.Port = port
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// validKeys is the complete set of dot-separated config keys.
var validKeys = map[string]bool{
	"api.key": true, "api.secret": true, "api.base_url": true, "api.timeout": true,
	"server.host": true, "server.port": true, "server.auth_token": true,
	"server.cors_allowed_origins": true, "server.shutdown_timeout": true,
	"logging.level": true, "logging.format": true,
}

// IsValidKey returns true if the dotted key is a recognized config key.
func IsValidKey(key string) bool {
	return validKeys[key]
}

// GetValue returns the value for a dotted config key (e.g. "server.port").
func GetValue(cfg *Config, key string) (any, error) {
	switch key {
	case "api.key":
		return cfg.API.Key, nil
	case "api.secret":
		return cfg.API.Secret, nil
	case "api.base_url":
		return cfg.API.BaseURL, nil
	case "api.timeout":
		return cfg.API.Timeout, nil
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return cfg.Server.Port, nil
	case "server.auth_token":
		return cfg.Server.AuthToken, nil
	case "server.cors_allowed_origins":
		return strings.Join(cfg.Server.CORSAllowedOrigins, ","), nil
	case "server.shutdown_timeout":
		return cfg.Server.ShutdownTimeout, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}

// SetValue writes a single dotted key into the TOML file at configPath,
// preserving the other keys already there.
func SetValue(configPath, key, value string) error {
	var data map[string]any
	if raw, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	if data == nil {
		data = make(map[string]any)
	}

	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format: %s (expected section.field)", key)
	}
	section, field := parts[0], parts[1]

	sectionMap, ok := data[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		data[section] = sectionMap
	}
	sectionMap[field] = coerceValue(key, value)

	out, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	// The file may hold the API secret.
	return os.WriteFile(configPath, out, 0o600)
}

// coerceValue converts a string value to the appropriate Go type for TOML serialization.
func coerceValue(key, value string) any {
	switch key {
	case "api.timeout", "server.port", "server.shutdown_timeout":
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "server.cors_allowed_origins":
		return strings.Split(value, ",")
	}
	return value
}

const defaultTOML = `# nexmoctl configuration

[api]
# Account credentials. Prefer NEXMO_API_KEY / NEXMO_API_SECRET in the environment.
# key = ""
# secret = ""

# Legacy REST endpoint.
base_url = "https://rest.nexmo.com"

# HTTP timeout in seconds (0 = no timeout).
timeout = 30

[server]
# Address for 'nexmoctl serve'.
host = "127.0.0.1"
port = 8095

# Bearer token required on /api routes. Leave empty to disable.
# auth_token = ""

# CORS allowed origins. Use ["*"] to allow all.
cors_allowed_origins = ["*"]

# Seconds to wait for in-flight requests during shutdown. 0 waits without
# a deadline.
shutdown_timeout = 10

[logging]
# debug, info, warn, error
level = "warn"
# text or json
format = "text"
`
