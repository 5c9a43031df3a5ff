// Package factory is the composition root: it builds every component in
// dependency order and owns their shutdown.
package factory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"portfolio-api/internal/auth"
	"portfolio-api/internal/client"
	"portfolio-api/internal/config"
	"portfolio-api/internal/csp"
	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/notify"
	"portfolio-api/internal/ratelimit"
	"portfolio-api/internal/repository/postgres"
	"portfolio-api/internal/repository/redis"
	"portfolio-api/internal/service"
	"portfolio-api/internal/tls"
	"portfolio-api/internal/util"
)

// Factory manages the lifecycle of all application dependencies.
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	// Detectors
	tracker  *ids.Tracker
	reporter *csp.Reporter
	limiter  *ratelimit.Limiter
	notifier *notify.Notifier

	// Clients and repositories
	redisClient   *client.RedisClient
	chatCache     *redis.ChatCache
	eventArchive  *postgres.EventArchive
	llmClient     *client.LLMClient
	authenticator auth.Authenticator

	// Services
	chatService     *service.ChatService
	contactService  *service.ContactService
	securityService *service.SecurityService

	closeOnce sync.Once
}

// NewFactory creates and initializes all application dependencies.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{config: cfg}

	if cfg.Server.EnableTLS {
		f.tlsManager = tls.NewManager(cfg.Server)
	}

	f.initializeDetectors()

	if err := f.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	f.initializeServices()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("redis_enabled", f.redisClient != nil),
		util.Bool("archive_enabled", f.eventArchive != nil),
	)

	return f, nil
}

// initializeDetectors builds the in-memory security core: tracker, CSP
// reporter, rate limiter, and the notifier hook chain.
func (f *Factory) initializeDetectors() {
	sec := f.config.Security

	f.tracker = ids.NewTracker(sec)
	f.reporter = csp.NewReporter(sec)
	f.limiter = ratelimit.NewLimiter(sec.RateLimits)

	f.notifier = notify.NewNotifier(f.config.Notify)
	if f.config.Notify.SendAlerts {
		f.tracker.AddHook(f.notifier.Alert)
	}

	util.Info("Security detectors initialized",
		util.Int("rate_limit_categories", len(sec.RateLimits)),
		util.Int("max_events", sec.MaxEvents),
		util.Int("max_violations", sec.MaxViolations),
	)
}

// initializeClients initializes the optional external services. Both Redis
// and Postgres are additive: the API runs fully in memory without either.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	if f.config.Redis.URL != "" {
		if rc, err := client.NewRedisClient(f.config.Redis, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
		} else {
			f.redisClient = rc
			if err := rc.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
			} else {
				f.chatCache = redis.NewChatCache(rc, f.config.Redis.CacheTTL)
				util.Info("Redis client initialized and healthy")
			}
		}
	}

	if f.config.Database.URL != "" {
		if archive, err := postgres.NewEventArchive(f.config.Database.URL); err != nil {
			initErrors = append(initErrors, fmt.Errorf("postgres: %w", err))
		} else {
			f.eventArchive = archive
			archive.Start()
			f.tracker.AddHook(func(evt models.SecurityEvent) {
				archive.Archive(evt)
			})
			util.Info("Postgres event archive initialized")
		}
	}

	f.llmClient = client.NewLLMClient(f.config.LLM, util.Get())

	if f.config.Auth.VerifyURL != "" {
		f.authenticator = auth.NewHTTPAuthenticator(f.config.Auth)
	} else {
		// Local development fallback. ADMIN_TOKEN must be set explicitly;
		// there is no default credential.
		tokens := map[string]auth.Principal{}
		if token := os.Getenv("ADMIN_TOKEN"); token != "" {
			tokens[token] = auth.Principal{UserID: "local-admin", Role: "admin"}
		}
		f.authenticator = &auth.StaticAuthenticator{Tokens: tokens}
		util.Warn("No auth provider configured, using static token table",
			util.Int("tokens", len(tokens)))
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

func (f *Factory) initializeServices() {
	f.chatService = service.NewChatService(f.config.Security, f.llmClient, f.tracker, f.chatCache)
	f.contactService = service.NewContactService(f.tracker, f.notifier)
	f.securityService = service.NewSecurityService(f.tracker, f.reporter, f.eventArchive)
}

// RunJanitor sweeps expired detector state until ctx is cancelled. Hourly it
// prunes the IDS and rate limiter; daily it prunes CSP violations and emits
// the security summary.
func (f *Factory) RunJanitor(ctx context.Context) {
	cleanup := time.NewTicker(f.config.Security.CleanupInterval)
	summary := time.NewTicker(f.config.Security.SummaryInterval)
	defer cleanup.Stop()
	defer summary.Stop()

	util.Info("Janitor started",
		util.Duration("cleanup_interval", f.config.Security.CleanupInterval),
		util.Duration("summary_interval", f.config.Security.SummaryInterval),
	)

	for {
		select {
		case <-cleanup.C:
			f.tracker.Cleanup()
			removed := f.limiter.Cleanup()
			util.Debug("Janitor cleanup pass completed", util.Int("rate_windows_removed", removed))

		case <-summary.C:
			f.reporter.Cleanup()
			f.notifier.DailySummary(f.tracker.Stats(), f.reporter.Stats(), f.tracker.SuspiciousIPs())

		case <-ctx.Done():
			util.Info("Janitor stopped")
			return
		}
	}
}

// Close shuts everything down in reverse initialization order.
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Info("Shutting down factory...")

		if f.eventArchive != nil {
			f.eventArchive.Stop()
			util.Info("Event archive stopped")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) Config() *config.Config            { return f.config }
func (f *Factory) TLSManager() *tls.Manager          { return f.tlsManager }
func (f *Factory) Tracker() *ids.Tracker             { return f.tracker }
func (f *Factory) Reporter() *csp.Reporter           { return f.reporter }
func (f *Factory) Limiter() *ratelimit.Limiter       { return f.limiter }
func (f *Factory) Authenticator() auth.Authenticator { return f.authenticator }

func (f *Factory) ChatService() *service.ChatService         { return f.chatService }
func (f *Factory) ContactService() *service.ContactService   { return f.contactService }
func (f *Factory) SecurityService() *service.SecurityService { return f.securityService }
