package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/campaigns"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/handlers"
	"github.com/ternarybob/insightx/internal/indicators"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/marketdata"
	"github.com/ternarybob/insightx/internal/services/chat"
	"github.com/ternarybob/insightx/internal/services/events"
	"github.com/ternarybob/insightx/internal/services/insights"
	"github.com/ternarybob/insightx/internal/services/janitor"
	"github.com/ternarybob/insightx/internal/services/llm"
	"github.com/ternarybob/insightx/internal/services/pdf"
	"github.com/ternarybob/insightx/internal/services/report"
	"github.com/ternarybob/insightx/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Analysis engines (pure computation, no I/O)
	IndicatorEngine *indicators.Engine
	CampaignEngine  *campaigns.Engine

	// Event stream feeding the /ws/logs clients
	EventService interfaces.EventService

	// Domain services
	MarketData     interfaces.MarketDataService
	LLMService     interfaces.LLMService
	InsightService interfaces.InsightService
	ChatService    interfaces.ChatService
	PDFService     interfaces.PDFService
	ReportService  interfaces.ReportService
	Janitor        *janitor.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	AnalysisHandler *handlers.AnalysisHandler
	ChatHandler     *handlers.ChatHandler
	ReportHandler   *handlers.ReportHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize event service and WebSocket handler early so that every
	// service created below can publish progress events from the start.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Start the retention janitor AFTER all handlers are initialized so a
	// sweep never races service construction.
	if err := app.Janitor.Start(); err != nil {
		return nil, fmt.Errorf("failed to start retention janitor: %w", err)
	}

	// Log initialization summary
	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", cfg.LLM.DefaultProvider).
		Bool("retention_enabled", cfg.Retention.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Bool("in_memory", a.Config.Storage.Badger.InMemory).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
//
// ANALYSIS PIPELINE:
//  1. MarketData - fetches OHLCV history from the provider
//  2. Engines - indicator and campaign KPI computation
//  3. InsightService - narrates computed results via the LLM layer
//
// The LLM service sits underneath both insights and chat; a missing or
// invalid API key is not discovered here but at call time, where each
// request degrades independently.
func (a *App) initServices() error {
	// Analysis engines
	a.IndicatorEngine = indicators.NewEngine(a.Logger)
	a.CampaignEngine = campaigns.NewEngine(a.Logger)

	// Market data client, tuned from config
	opts := []marketdata.ClientOption{
		marketdata.WithTimeout(parseDuration(a.Config.MarketData.Timeout, 30*time.Second)),
	}
	if a.Config.MarketData.BaseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(a.Config.MarketData.BaseURL))
	}
	if a.Config.MarketData.RatePerSecond > 0 {
		opts = append(opts, marketdata.WithRateLimit(a.Config.MarketData.RatePerSecond, a.Config.MarketData.Burst))
	}
	a.MarketData = marketdata.NewClient(a.Logger, opts...)
	a.Logger.Debug().
		Float64("rate_per_second", a.Config.MarketData.RatePerSecond).
		Str("default_period", a.Config.MarketData.DefaultPeriod).
		Msg("Market data client initialized")

	// LLM service (Gemini and Claude providers)
	llmService, err := llm.NewService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	// Insight service narrates analysis results
	a.InsightService = insights.NewService(a.LLMService, a.Logger)

	// PDF rendering and report assembly
	a.PDFService = pdf.NewService(a.Logger)
	a.ReportService = report.NewService(a.InsightService, a.PDFService, a.Logger)

	// Chat tutor, persisting sessions through the storage layer
	a.ChatService = chat.NewService(
		a.LLMService,
		a.StorageManager.SessionStorage(),
		a.Logger,
		a.Config.Chat.HistoryTurns,
		a.Config.Chat.MaxTurnLength,
	)

	// Retention janitor sweeps expired sessions and bundles on a cron
	// schedule. Started in New() after handlers are wired.
	a.Janitor = janitor.NewService(a.StorageManager, &a.Config.Retention, a.Logger)

	return nil
}

func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()
	// WSHandler already initialized in New() before the services

	a.AnalysisHandler = handlers.NewAnalysisHandler(
		a.MarketData,
		a.IndicatorEngine,
		a.CampaignEngine,
		a.InsightService,
		a.StorageManager.BundleStorage(),
		a.EventService,
		a.Logger,
	)

	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.Logger)

	a.ReportHandler = handlers.NewReportHandler(
		a.ReportService,
		a.StorageManager.BundleStorage(),
		a.EventService,
		a.Logger,
	)

	return nil
}

// Close shuts down components in reverse dependency order.
func (a *App) Close() error {
	// Stop the retention janitor
	if a.Janitor != nil {
		a.Janitor.Stop()
		a.Logger.Info().Msg("Retention janitor stopped")
	}

	// Close event service (disconnects any remaining log stream clients)
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
