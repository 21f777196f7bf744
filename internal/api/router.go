package api

import (
	"database/sql"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/supportdesk-io/supportdesk-ce/internal/ai"
	"github.com/supportdesk-io/supportdesk-ce/internal/auth"
	"github.com/supportdesk-io/supportdesk-ce/internal/config"
	"github.com/supportdesk-io/supportdesk-ce/internal/middleware"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/realtime"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
	"github.com/supportdesk-io/supportdesk-ce/internal/service"
	"github.com/supportdesk-io/supportdesk-ce/internal/ticketnumber"
)

type Router struct {
	engine         *gin.Engine
	db             *sql.DB
	cfg            *config.Config
	authMiddleware *middleware.AuthMiddleware

	authHandler      *AuthHandler
	ticketHandler    *TicketHandler
	messageHandler   *MessageHandler
	dashboardHandler *DashboardHandler
	aiHandler        *AIHandler
	wsHandler        *WSHandler

	presenceService *service.PresenceService
}

// NewRouter wires the repositories, services and handlers together. The hub
// must already be running.
func NewRouter(db *sql.DB, rdb *redis.Client, cfg *config.Config, hub *realtime.Hub) (*Router, error) {
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.Issuer,
		cfg.Auth.JWT.AccessTokenTTL,
		cfg.Auth.JWT.RefreshTokenTTL,
	)
	hasher := auth.NewPasswordHasher(cfg.Auth.Password.BcryptCost, cfg.Auth.Password.MinLength)
	sessions := auth.NewSessionStore(rdb, cfg.Redis.Session.Prefix, cfg.Redis.Session.TTL)

	numberGen, err := ticketnumber.Resolve(cfg.Ticket.NumberGenerator, ticketnumber.Config{
		Prefix: cfg.Ticket.NumberPrefix,
	}, nil)
	if err != nil {
		return nil, err
	}
	counterStore := ticketnumber.NewDBStore(db, cfg.Ticket.NumberPrefix)

	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db, numberGen, counterStore)
	messageRepo := repository.NewMessageRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	var aiService *ai.Service
	if cfg.AI.Enabled {
		provider, err := ai.NewProvider(cfg.AI)
		if err != nil {
			// Assist stays degraded rather than blocking startup.
			log.Printf("ai provider unavailable, falling back to defaults: %v", err)
		}
		aiService = ai.NewService(provider, cfg.AI.Timeout, cfg.AI.MaxTokens)
	} else {
		aiService = ai.NewService(nil, cfg.AI.Timeout, cfg.AI.MaxTokens)
	}

	authService := auth.NewAuthService(userRepo, hasher, jwtManager, sessions)
	ticketService := service.NewTicketService(ticketRepo, userRepo, hub, aiService)
	messageService := service.NewMessageService(messageRepo, ticketRepo, hub)
	dashboardService := service.NewDashboardService(statsRepo, nil)
	presenceService := service.NewPresenceService(rdb, userRepo, cfg.Redis.Presence.Prefix, cfg.Redis.Presence.TTL, cfg.Jobs.PresenceTimeout)

	r := &Router{
		engine:           gin.New(),
		db:               db,
		cfg:              cfg,
		authMiddleware:   middleware.NewAuthMiddleware(jwtManager, sessions),
		authHandler:      NewAuthHandler(authService),
		ticketHandler:    NewTicketHandler(ticketService),
		messageHandler:   NewMessageHandler(messageService),
		dashboardHandler: NewDashboardHandler(dashboardService, userRepo),
		aiHandler:        NewAIHandler(aiService),
		wsHandler:        NewWSHandler(hub, ticketService, cfg.Server.CORS.Origins),
		presenceService:  presenceService,
	}

	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	if cfg.Server.CORS.Enabled {
		r.engine.Use(middleware.CORS(cfg.Server.CORS.Origins))
	}
	if cfg.Metrics.Enabled {
		r.engine.Use(middleware.NewHTTPMetrics().Handler())
	}

	return r, nil
}

// PresenceService exposes the presence layer for the job runner.
func (r *Router) PresenceService() *service.PresenceService {
	return r.presenceService
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)
	if r.cfg.Metrics.Enabled {
		path := r.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/api/v1")
	{
		// Public auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", r.authHandler.SignUp)
			authGroup.POST("/signin", r.authHandler.SignIn)
			authGroup.POST("/refresh", r.authHandler.Refresh)
		}

		// Protected auth routes
		authProtected := v1.Group("/auth")
		authProtected.Use(r.authMiddleware.RequireAuth())
		{
			authProtected.POST("/signout", r.authHandler.SignOut)
			authProtected.GET("/me", r.authHandler.Me)
			authProtected.PUT("/me", r.authHandler.UpdateMe)
			authProtected.POST("/heartbeat", r.heartbeat)
		}

		// Ticket routes
		ticketGroup := v1.Group("/tickets")
		ticketGroup.Use(r.authMiddleware.RequireAuth())
		{
			ticketGroup.GET("", r.ticketHandler.ListTickets)
			ticketGroup.GET("/:id", r.ticketHandler.GetTicket)
			ticketGroup.POST("", r.authMiddleware.RequirePermission(auth.PermissionOwnTicketCreate), r.ticketHandler.CreateTicket)
			// Updates stay open to every role; scoping in the service
			// decides whose tickets a caller may touch.
			ticketGroup.PUT("/:id", r.ticketHandler.UpdateTicket)
			ticketGroup.POST("/:id/assign", r.authMiddleware.RequirePermission(auth.PermissionTicketAssign), r.ticketHandler.AssignTicket)
			ticketGroup.DELETE("/:id", r.authMiddleware.RequirePermission(auth.PermissionTicketDelete), r.ticketHandler.DeleteTicket)

			// Conversation thread
			ticketGroup.GET("/:id/messages", r.messageHandler.ListMessages)
			ticketGroup.POST("/:id/messages", r.messageHandler.SendMessage)

			// Realtime subscription; token rides the query string
			ticketGroup.GET("/:id/ws", r.wsHandler.Subscribe)
		}

		// Dashboard routes
		dashboardGroup := v1.Group("/dashboard")
		dashboardGroup.Use(r.authMiddleware.RequireAuth())
		dashboardGroup.Use(r.authMiddleware.RequirePermission(auth.PermissionDashboardView))
		{
			dashboardGroup.GET("/stats", r.dashboardHandler.Stats)
		}

		// Directory listings
		userGroup := v1.Group("/users")
		userGroup.Use(r.authMiddleware.RequireAuth())
		userGroup.Use(r.authMiddleware.RequirePermission(auth.PermissionUserManage))
		{
			userGroup.GET("", r.dashboardHandler.Users)
		}

		agentGroup := v1.Group("/agents")
		agentGroup.Use(r.authMiddleware.RequireAuth())
		agentGroup.Use(r.authMiddleware.RequireRole(models.RoleAgent, models.RoleAdmin))
		{
			agentGroup.GET("", r.dashboardHandler.Agents)
		}

		customerGroup := v1.Group("/customers")
		customerGroup.Use(r.authMiddleware.RequireAuth())
		customerGroup.Use(r.authMiddleware.RequireRole(models.RoleAgent, models.RoleAdmin))
		{
			customerGroup.GET("", r.dashboardHandler.Customers)
		}

		// AI assist routes (agent and admin)
		aiGroup := v1.Group("/ai")
		aiGroup.Use(r.authMiddleware.RequireAuth())
		aiGroup.Use(r.authMiddleware.RequirePermission(auth.PermissionAIAssist))
		{
			aiGroup.POST("/classify", r.aiHandler.Classify)
			aiGroup.POST("/sentiment", r.aiHandler.Sentiment)
			aiGroup.POST("/suggest-department", r.aiHandler.SuggestDepartment)
			aiGroup.POST("/suggest-response", r.aiHandler.GenerateResponse)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) healthCheck(c *gin.Context) {
	if err := r.db.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": r.cfg.App.Name,
		"version": r.cfg.App.Version,
	})
}

// heartbeat keeps the caller's presence key alive.
func (r *Router) heartbeat(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := r.presenceService.Heartbeat(c.Request.Context(), userID); err != nil {
		c.JSON(500, ErrorResponse{Error: "Heartbeat failed"})
		return
	}
	c.JSON(200, SuccessResponse{Message: "ok"})
}
