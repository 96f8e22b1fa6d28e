package app

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/config"
	"github.com/bobmcallan/liteapi-mcp/internal/dispatch"
	"github.com/bobmcallan/liteapi-mcp/internal/handlers"
	"github.com/bobmcallan/liteapi-mcp/internal/mcp"
	"github.com/bobmcallan/liteapi-mcp/internal/metrics"
	"github.com/bobmcallan/liteapi-mcp/internal/openapi"
	"github.com/bobmcallan/liteapi-mcp/internal/session"
)

const (
	metricsNamespace = "liteapi_mcp"
	sweepInterval    = time.Minute
)

// ErrNoEndpoints is returned when none of the configured API descriptions
// yields an endpoint.
var ErrNoEndpoints = errors.New("no endpoints loaded from the configured API descriptions")

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Metrics    *metrics.Collector
	Sessions   session.Store
	Dispatcher *dispatch.Client
	Registry   *mcp.Registry

	// HTTP handlers
	MCPHandler     *mcp.Handler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ToolsHandler   *handlers.ToolsHandler

	stopSweeper context.CancelFunc
}

// New initializes the application with all dependencies. It fails when no
// API description produces an endpoint or the session backend is unreachable.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewCollector(metricsNamespace),
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if env != "prod" && env != "dev" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}
	if cfg.API.APIKey == "" {
		logger.Warn().Msg("no default API key configured; every client must supply its own")
	}

	endpoints, err := a.loadEndpoints()
	if err != nil {
		return nil, err
	}

	if err := a.initSessions(ctx); err != nil {
		return nil, err
	}

	a.Dispatcher = dispatch.NewClient(logger,
		dispatch.WithTimeout(cfg.API.GetTimeout()),
		dispatch.WithKeyHeader(cfg.API.KeyHeader),
		dispatch.WithMaxResponseSize(int64(cfg.API.MaxResponseMB)<<20),
		dispatch.WithRecorder(a.Metrics),
	)

	resolver := mcp.NewCredentialResolver(a.Sessions, cfg.API.APIKey, logger)
	a.Registry, err = mcp.Build(endpoints, resolver, a.Dispatcher,
		mcp.WithLogger(logger),
		mcp.WithCallRecorder(a.Metrics),
	)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed to build tool registry")
	}
	a.Metrics.SetToolsLoaded(a.Registry.Len())

	a.initHandlers()

	logger.Info().
		Int("tools", a.Registry.Len()).
		Str("session_backend", cfg.Session.Backend).
		Msg("application initialization complete")

	return a, nil
}

// loadEndpoints loads every configured API description. A document that
// fails to load is logged and skipped.
func (a *App) loadEndpoints() ([]openapi.Endpoint, error) {
	docs, loadErrs := openapi.LoadFiles(a.Config.API.SpecPaths())
	for _, err := range loadErrs {
		a.Logger.Warn().Str("error", err.Error()).Msg("skipping API description")
	}

	parser := openapi.NewParser(openapi.ParserOptions{
		FallbackBaseURL: a.Config.API.DefaultBaseURL,
		BaseURLOverride: a.Config.API.BaseURL,
	}, a.Logger)

	var endpoints []openapi.Endpoint
	for _, doc := range docs {
		eps, err := parser.Parse(doc)
		if err != nil {
			a.Logger.Warn().Str("document", doc.Name).Str("error", err.Error()).Msg("skipping API description")
			continue
		}
		a.Logger.Info().
			Str("document", doc.Name).
			Str("title", doc.Info.Title).
			Int("endpoints", len(eps)).
			Msg("loaded API description")
		endpoints = append(endpoints, eps...)
	}

	if len(endpoints) == 0 {
		return nil, errors.Wrapf(ErrNoEndpoints, "spec_dir %q", a.Config.API.SpecDir)
	}
	return endpoints, nil
}

// initSessions opens the configured session backend.
func (a *App) initSessions(ctx context.Context) error {
	sc := a.Config.Session
	switch sc.Backend {
	case "redis":
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Prefix:   sc.Redis.Prefix,
			TTL:      sc.GetTTL(),
		})
		if err != nil {
			return err
		}
		a.Sessions = store
	default:
		store := session.NewMemoryStore(sc.GetTTL(), sc.MaxEntries)
		sweepCtx, cancel := context.WithCancel(context.Background())
		a.stopSweeper = cancel
		go store.RunSweeper(sweepCtx, sweepInterval)
		a.Sessions = store
	}

	a.Logger.Debug().
		Str("backend", sc.Backend).
		Dur("ttl", sc.GetTTL()).
		Msg("session store ready")
	return nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.MCPHandler = mcp.NewHandler(a.Registry, mcp.ServerOptions{
		Name:      a.Config.MCP.Name,
		Version:   common.GetVersion(),
		Stateless: a.Config.MCP.Stateless,
		Store:     a.Sessions,
		Observer:  a.Metrics,
	}, a.Logger)

	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Registry.Len)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Logger, a.Registry)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.Sessions != nil {
		return a.Sessions.Close()
	}
	return nil
}
