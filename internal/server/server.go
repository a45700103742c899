package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"servicehub/internal/config"
	"servicehub/internal/database"
	"servicehub/internal/media"
	custommiddleware "servicehub/internal/middleware"
	"servicehub/internal/repository"
	"servicehub/internal/repository/inmem"
	"servicehub/internal/service"
	"servicehub/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies are the external handles the server is built on
type Dependencies struct {
	Repos *repository.Repositories
	Media media.Store
	// Redis enables rate limiting when set
	Redis *redis.Client
	// DB reports database health when set
	DB *database.Service
}

// Connect opens the store, media and Redis handles selected by cfg
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	switch cfg.Database.Driver {
	case config.DBDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		deps.Repos = inmem.New()
	default:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureIndexes(ctx, db.DB(), logger); err != nil {
			_ = db.Close(context.Background())
			return nil, err
		}
		deps.DB = db
		deps.Repos = repository.NewMongoRepositories(db.DB())
	}

	store, err := media.NewStore(ctx, cfg.Media)
	if err != nil {
		deps.Close(context.Background(), logger)
		return nil, err
	}
	deps.Media = store

	if cfg.Redis.Addr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			// the limiter fails open, so a missing Redis is not fatal
			logger.Warn("Redis unreachable; rate limiting will allow all requests", zap.Error(err))
		}
	}

	return deps, nil
}

// Close releases the handles that need it
func (d *Dependencies) Close(ctx context.Context, logger *zap.Logger) {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(ctx); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   *Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps *Dependencies) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           NewRouter(cfg, logger, deps),
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			// uploads of several images stream through the request
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 3 * time.Minute,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// NewRouter wires services and handlers over deps
func NewRouter(cfg *config.Config, logger *zap.Logger, deps *Dependencies) http.Handler {
	router := chi.NewRouter()
	metrics := custommiddleware.NewMetrics("servicehub")

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/health", healthHandler(deps.DB))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Initialize services
	repos := deps.Repos
	manager := media.NewManager(deps.Media, logger, cfg.Media.Timeout)
	tokenTTL := time.Duration(cfg.JWT.AccessExpiry) * time.Minute

	userService := service.NewUserService(repos.Users, manager, cfg.JWT.Secret, tokenTTL, logger)
	catalogService := service.NewCatalogService(repos.Categories, repos.Services, repos.Users, manager, logger)
	bookingService := service.NewBookingService(repos.Bookings, repos.Services, repos.Users, manager, logger,
		service.WithStrictTransitions(cfg.Booking.StrictTransitions))
	reviewService := service.NewReviewService(repos.Reviews, repos.Services, repos.Users, manager, logger)
	paymentService := service.NewPaymentService(repos.Payments, repos.Bookings, logger)

	// Create guards
	var rateLimit func(http.Handler) http.Handler
	if deps.Redis != nil {
		rateLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "servicehub:ratelimit",
		}, logger)
	}
	guards := transport.NewGuards(userService, rateLimit, logger)

	// Register routes
	router.Route("/api", func(r chi.Router) {
		transport.NewUserHandler(userService, transport.CookieConfig{Secure: cfg.Server.CookieSecure, TTL: tokenTTL}, logger).RegisterRoutes(r, guards)
		transport.NewCategoryHandler(catalogService, logger).RegisterRoutes(r, guards)
		transport.NewServiceHandler(catalogService, logger).RegisterRoutes(r, guards)
		transport.NewBookingHandler(bookingService, logger).RegisterRoutes(r, guards)
		transport.NewReviewHandler(reviewService, logger).RegisterRoutes(r, guards)
		transport.NewPaymentHandler(paymentService, logger).RegisterRoutes(r, guards)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

func healthHandler(db *database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		status := http.StatusOK
		if db != nil {
			stats := db.Health(r.Context())
			body["database"] = stats
			if stats["status"] != "up" {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		custommiddleware.RespondWithJSON(w, status, body)
	}
}

// Close releases the server's dependencies
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.deps.Close(ctx, s.logger)

	s.logger.Sync()
	return nil
}
