package config

import common "github.com/bobmcallan/liteapi-mcp/internal/common"

// DefaultSpecFiles are the LiteAPI description documents loaded at startup.
var DefaultSpecFiles = []string{
	"search.json",
	"booking.json",
	"voucher.json",
	"analytics.json",
	"static.json",
	"loyalty.json",
	"supplyCustomization.json",
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4250,
			Host: "localhost",
		},
		API: APIConfig{
			SpecDir:        "openapi-schemas",
			SpecFiles:      append([]string(nil), DefaultSpecFiles...),
			DefaultBaseURL: "https://api.liteapi.travel/v3.0",
			KeyHeader:      "X-API-Key",
			Timeout:        "60s",
			MaxResponseMB:  50,
		},
		MCP: MCPConfig{
			Name:      "liteapi-mcp",
			Transport: "http",
		},
		Session: SessionConfig{
			Backend:    "memory",
			TTL:        "1h",
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "liteapi-mcp:session:",
			},
		},
		Logging: common.LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console", "file"},
			FilePath: "logs/liteapi-mcp.log",
		},
	}
}
