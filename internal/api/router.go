package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nametag-labs/nametag/internal/api/handlers"
	mw "github.com/nametag-labs/nametag/internal/api/middleware"
	"github.com/nametag-labs/nametag/internal/config"
	"github.com/nametag-labs/nametag/internal/directory"
	"github.com/nametag-labs/nametag/internal/domain"
	"github.com/nametag-labs/nametag/internal/nameservice"
	"github.com/nametag-labs/nametag/internal/service"
	"github.com/nametag-labs/nametag/internal/socialgraph"
	"github.com/nametag-labs/nametag/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Refresher *service.RefresherService
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	contactStore := store.NewContactStore(db)
	conversationStore := store.NewConversationStore(db)

	// External clients via provider factories
	nameClient, err := nameservice.NewClient(config.NameServiceProvider(), config.NameServiceURL(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("name-service client initialized", zap.String("provider", config.NameServiceProvider()))

	socialClient, err := socialgraph.NewClient(config.SocialGraphProvider(), config.NeynarAPIKey(), config.NeynarRPS(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("social-graph client initialized", zap.String("provider", config.SocialGraphProvider()))

	directoryClient, err := directory.NewClient(config.DirectoryProvider(), config.DirectoryURL(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("directory client initialized", zap.String("provider", config.DirectoryProvider()))

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := service.NewMetrics(registry)
	httpMetrics := mw.NewHTTPMetrics(registry)

	// Services
	resolver := service.NewResolver(
		contactStore, conversationStore,
		nameClient, socialClient,
		directoryClient, directoryClient,
		engineMetrics, logger,
	)

	var refresher *service.RefresherService
	if minutes := config.RefreshIntervalMinutes(); minutes > 0 {
		refresher = service.NewRefresherService(resolver, time.Duration(minutes)*time.Minute, logger)
	}

	// Handlers
	contactHandler := handlers.NewContactHandler(resolver, contactStore)
	conversationHandler := handlers.NewConversationHandler(conversationStore)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpMetrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Post("/resolve", contactHandler.ResolveIdentifier)
			r.Route("/{inboxID}", func(r chi.Router) {
				r.Get("/", contactHandler.GetByInboxID)
				r.Post("/resolve", contactHandler.Resolve)
			})
		})

		r.Get("/conversations", conversationHandler.ListByPeer)
	})

	return &App{Router: r, Refresher: refresher}, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ContactStore         = (*store.ContactStore)(nil)
	_ domain.ConversationStore    = (*store.ConversationStore)(nil)
	_ domain.NameServiceClient    = (*nameservice.ENSClient)(nil)
	_ domain.NameServiceClient    = (*nameservice.MockClient)(nil)
	_ domain.SocialGraphClient    = (*socialgraph.NeynarClient)(nil)
	_ domain.SocialGraphClient    = (*socialgraph.MockClient)(nil)
	_ domain.InboxDirectoryClient = (*directory.XMTPClient)(nil)
	_ domain.InboxProfileClient   = (*directory.XMTPClient)(nil)
	_ directory.Client            = (*directory.MockClient)(nil)
)
