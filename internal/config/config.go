package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Environment string               `toml:"environment"`
	Server      ServerConfig         `toml:"server"`
	API         APIConfig            `toml:"api"`
	MCP         MCPConfig            `toml:"mcp"`
	Session     SessionConfig        `toml:"session"`
	Logging     common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=1,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

// APIConfig describes the upstream API and the documents that declare it.
type APIConfig struct {
	SpecDir        string   `toml:"spec_dir" validate:"required"`
	SpecFiles      []string `toml:"spec_files" validate:"required,min=1,dive,required"`
	DefaultBaseURL string   `toml:"default_base_url" validate:"required,url"`
	BaseURL        string   `toml:"base_url" validate:"omitempty,url"`
	APIKey         string   `toml:"api_key"`
	KeyHeader      string   `toml:"key_header" validate:"required"`
	Timeout        string   `toml:"timeout" validate:"duration"`
	MaxResponseMB  int      `toml:"max_response_mb" validate:"gte=1"`
}

// GetTimeout parses and returns the upstream request timeout.
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// SpecPaths returns the document paths, resolved against SpecDir.
func (c *APIConfig) SpecPaths() []string {
	paths := make([]string, 0, len(c.SpecFiles))
	for _, f := range c.SpecFiles {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(c.SpecDir, f))
	}
	return paths
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	Name      string `toml:"name" validate:"required"`
	Transport string `toml:"transport" validate:"oneof=http stdio"`
	Stateless bool   `toml:"stateless"`
}

// SessionConfig controls where per-session credentials are kept.
type SessionConfig struct {
	Backend    string      `toml:"backend" validate:"oneof=memory redis"`
	TTL        string      `toml:"ttl" validate:"duration"`
	MaxEntries int         `toml:"max_entries" validate:"gte=1"`
	Redis      RedisConfig `toml:"redis"`
}

// GetTTL parses and returns the session lifetime.
func (c *SessionConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RedisConfig contains Redis connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s (file %d of %d)", path, i+1, len(paths))
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies LITEAPI_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LITEAPI_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("LITEAPI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LITEAPI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if dir := os.Getenv("LITEAPI_SPEC_DIR"); dir != "" {
		config.API.SpecDir = dir
	}
	if baseURL := os.Getenv("LITEAPI_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if key := os.Getenv("LITEAPI_API_KEY"); key != "" {
		config.API.APIKey = key
	}
	if transport := os.Getenv("LITEAPI_MCP_TRANSPORT"); transport != "" {
		config.MCP.Transport = transport
	}
	if backend := os.Getenv("LITEAPI_SESSION_BACKEND"); backend != "" {
		config.Session.Backend = backend
	}
	if addr := os.Getenv("LITEAPI_REDIS_ADDR"); addr != "" {
		config.Session.Redis.Addr = addr
	}
	if level := os.Getenv("LITEAPI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string, stdio bool) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if stdio {
		config.MCP.Transport = "stdio"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks mandatory fields and value ranges. It returns one
// human-readable issue per invalid field, or nil when the config is usable.
func (c *Config) Validate() []string {
	var issues []string

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			issues = append(issues, describe(fe))
		}
	} else if err != nil {
		issues = append(issues, err.Error())
	}

	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		issues = append(issues, "session.redis.addr is required when session.backend is \"redis\"")
	}
	return issues
}

// describe renders a validation failure using the TOML key path.
func describe(fe validator.FieldError) string {
	key := tomlPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", key, fmt.Sprint(fe.Value()))
	case "duration":
		return fmt.Sprintf("%s must be a duration such as \"30s\", got %q", key, fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", key, fe.Param())
	}
	return fmt.Sprintf("%s failed %s=%s (value %v)", key, fe.Tag(), fe.Param(), fe.Value())
}

var tomlKeys = map[string]string{
	"Server": "server", "Port": "port", "Host": "host",
	"API": "api", "SpecDir": "spec_dir", "SpecFiles": "spec_files",
	"DefaultBaseURL": "default_base_url", "BaseURL": "base_url", "KeyHeader": "key_header",
	"Timeout": "timeout", "MaxResponseMB": "max_response_mb",
	"MCP": "mcp", "Name": "name", "Transport": "transport",
	"Session": "session", "Backend": "backend", "TTL": "ttl", "MaxEntries": "max_entries",
	"Redis": "redis", "DB": "db",
	"Logging": "logging", "Level": "level", "Outputs": "outputs",
	"MaxSizeMB": "max_size_mb", "MaxBackups": "max_backups",
}

// tomlPath converts "Config.Session.TTL" into "session.ttl".
func tomlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		name, index, _ := strings.Cut(p, "[")
		if key, ok := tomlKeys[name]; ok {
			name = key
		}
		if index != "" {
			name += "[" + index
		}
		parts[i] = name
	}
	return strings.Join(parts, ".")
}
