package api

import (
	"github.com/gin-gonic/gin"

	"gatepass/internal/cache"
	"gatepass/internal/clock"
	"gatepass/internal/config"
	"gatepass/internal/database"
	"gatepass/internal/external"
	"gatepass/internal/handlers"
	"gatepass/internal/logger"
	"gatepass/internal/messaging"
	"gatepass/internal/metrics"
	"gatepass/internal/middleware"
	"gatepass/internal/repository"
	"gatepass/internal/scheduler"
	"gatepass/internal/search"
	"gatepass/internal/service"
	"gatepass/internal/storage"
)

// Server wires the HTTP API process
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	nats      *messaging.NATSClient
	cache     *cache.RedisClient
	scheduler *scheduler.Client
	services  *service.Services
	repos     *repository.Repositories
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	// cache and search are optional: the API degrades to direct reads
	cacheClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Get().Warn("Cache unavailable, serving without it", "error", err)
		cacheClient = nil
	}

	var indexer service.EventIndexer
	if cfg.Search.URL != "" {
		esClient, err := search.NewElasticsearchClient(cfg.Search)
		if err != nil {
			logger.Get().Warn("Search unavailable, falling back to database listing", "error", err)
		} else {
			indexer = esClient
		}
	}

	var storageClient *storage.S3Client
	if cfg.Storage.AccessKeyID != "" {
		storageClient = storage.NewS3Client(cfg.Storage)
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	schedulerClient := scheduler.NewClient(cfg.Scheduler)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, clock.NewSystem(), natsClient,
		schedulerClient, indexer, paymentClient, cfg.OfferDuration)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(metrics.Middleware())

	server := &Server{
		router:    router,
		config:    cfg,
		db:        db,
		nats:      natsClient,
		cache:     cacheClient,
		scheduler: schedulerClient,
		services:  services,
		repos:     repos,
	}

	server.setupRoutes(handlers.NewHandlers(services, cacheClient, storageClient, paymentClient))

	return server
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	// the gateway authenticates webhooks with its signature, not user identity
	s.router.POST("/api/webhooks/payment", h.PaymentWebhook)

	api := s.router.Group("/api")
	api.Use(middleware.Identity(s.repos.Users))
	{
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.POST("", h.CreateEvent)
			events.GET("/:id", h.GetEvent)
			events.PUT("/:id", h.UpdateEvent)
			events.DELETE("/:id", h.CancelEvent)
			events.GET("/:id/availability", h.GetAvailability)
			events.POST("/:id/join", h.JoinWaitingList)
			events.GET("/:id/passes", h.ListEventPasses)
			events.GET("/:id/tickets", h.ListEventTickets)
			events.POST("/:id/image", h.SetEventImage)
		}

		passes := api.Group("/passes")
		{
			passes.POST("", h.CreatePass)
			passes.GET("/:id", h.GetPass)
			passes.PUT("/:id", h.UpdatePass)
			passes.DELETE("/:id", h.DeletePass)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("/:id/scan", h.ScanTicket)
			tickets.GET("/:id/status", h.GetTicketStatus)
		}

		my := api.Group("/my")
		{
			my.GET("/events", h.ListMyEvents)
			my.GET("/tickets", h.ListMyTickets)
		}

		api.POST("/orders", h.CreateOrder)
		api.POST("/uploads", h.CreateUpload)
		api.GET("/storage/:id", h.GetStorageURL)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())
}

func (s *Server) healthCheck(c *gin.Context) {
	checks := s.db.HealthCheck(c.Request.Context())

	status := 200
	if checks["status"] != "ok" {
		status = 503
	}

	if s.cache != nil {
		if err := s.cache.HealthCheck(c.Request.Context()); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}

	checks["service"] = "gatepass-api"
	c.JSON(status, checks)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.scheduler != nil {
		if err := s.scheduler.Close(); err != nil {
			logger.Get().Error("Error closing scheduler client", "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logger.Get().Error("Error closing cache connection", "error", err)
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
