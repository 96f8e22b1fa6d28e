package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bobmcallan/liteapi-mcp/internal/app"
	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/config"
	"github.com/bobmcallan/liteapi-mcp/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP = flag.Int("p", 0, "Server port (shorthand)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	useStdio    = flag.Bool("stdio", false, "Serve MCP over stdin/stdout instead of HTTP")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion {
		fmt.Printf("liteapi-mcp %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Auto-discover config file if not specified.
	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides (highest priority)
	config.ApplyFlagOverrides(cfg, finalPort, *serverHost, *useStdio)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Configuration error, fields are missing or invalid:")
		fmt.Fprintln(os.Stderr, "")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "See config/liteapi-mcp.toml for an annotated example.")
		fmt.Fprintln(os.Stderr, "Values can be set via TOML file, LITEAPI_* environment variables, or CLI flags.")
		fmt.Fprintln(os.Stderr, "")
		os.Exit(1)
	}

	// Console output goes to stderr, so stdout stays clean for stdio transport.
	logger := common.NewLoggerFromConfig(cfg.Logging)

	logger.Info().
		Str("version", common.GetVersion()).
		Str("transport", cfg.MCP.Transport).
		Str("environment", cfg.Environment).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize application")
		os.Exit(1)
	}

	if cfg.MCP.Transport == "stdio" {
		runStdio(ctx, application, logger)
	} else {
		runHTTP(ctx, application, logger)
	}

	if err := application.Close(); err != nil {
		logger.Error().Str("error", err.Error()).Msg("application shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

// runStdio serves MCP on stdin/stdout until the input closes or a signal arrives.
func runStdio(ctx context.Context, application *app.App, logger *common.Logger) {
	logger.Info().Int("tools", application.Registry.Len()).Msg("serving MCP over stdio")

	if err := application.MCPHandler.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Error().Str("error", err.Error()).Msg("stdio server failed")
	}
}

// runHTTP serves the HTTP surface until a signal arrives, then shuts down gracefully.
func runHTTP(ctx context.Context, application *app.App, logger *common.Logger) {
	cfg := application.Config
	srv := server.New(application)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d/mcp", cfg.Server.Host, cfg.Server.Port)).
		Int("tools", application.Registry.Len()).
		Msg("server ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errChan:
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed to start")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, then the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"liteapi-mcp.toml",
		"config/liteapi-mcp.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "liteapi-mcp.toml"),
		filepath.Join(binDir, "config", "liteapi-mcp.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
