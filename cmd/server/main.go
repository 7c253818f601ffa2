package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/hokaccha/workhub-api/internal/cache"
	"github.com/hokaccha/workhub-api/internal/config"
	"github.com/hokaccha/workhub-api/internal/constants"
	"github.com/hokaccha/workhub-api/internal/database"
	"github.com/hokaccha/workhub-api/internal/handlers"
	"github.com/hokaccha/workhub-api/internal/middleware"
	"github.com/hokaccha/workhub-api/internal/push"
	"github.com/hokaccha/workhub-api/internal/repository"
	"github.com/hokaccha/workhub-api/internal/services"
	"go.uber.org/zap"
)

const visitorSweepInterval = 1 * time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger, err := newLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if cfg.DBDriver == "postgres" {
		if err := database.AddIndexes(database.GetDB()); err != nil {
			logger.Warn("Failed to add indexes", zap.Error(err))
		}
	}

	// Redis backs both listing caches and push-independent session storage.
	// A missing Redis disables the cache but is fatal for sessions.
	var listingBackend cache.Cache
	redisCache, err := cache.NewRedisCache(context.Background(), cfg.RedisAddr(), cfg.RedisPassword)
	if err != nil {
		logger.Warn("Redis unavailable, task listing cache disabled", zap.Error(err))
		listingBackend = cache.Disabled{}
	} else {
		listingBackend = redisCache
		defer redisCache.Close()
	}
	listings := cache.NewListingCache(listingBackend, constants.TaskListCacheTTL, logger)

	// Websocket hub
	hub := push.NewHub(logger)
	go hub.Run()

	// Repositories
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	wsRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	invRepo := repository.NewInvitationRepository(db)

	// Services
	notificationService := services.NewNotificationService(notifRepo, hub, logger)
	taskService := services.NewTaskService(taskRepo, wsRepo, userRepo, notifRepo, notificationService, listings, logger)
	workspaceService := services.NewWorkspaceService(wsRepo, taskRepo, userRepo, invRepo, notifRepo, notificationService, listings, logger)
	invitationService := services.NewInvitationService(invRepo, wsRepo, userRepo, notificationService, listings, logger)
	authService := services.NewAuthService(userRepo, wsRepo, taskRepo, notifRepo, invRepo, logger)
	userService := services.NewUserService(userRepo)

	// Visitor accounts are throwaway; sweep the expired ones periodically.
	go func() {
		ticker := time.NewTicker(visitorSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			swept, err := authService.SweepExpiredVisitors(time.Now())
			if err != nil {
				logger.Error("visitor sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				logger.Info("swept expired visitors", zap.Int("count", swept))
			}
		}
	}()

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,
		"tcp",
		cfg.RedisAddr(),
		"",
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logger.Fatal("Failed to create Redis store", zap.Error(err))
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	contactHandler := handlers.NewContactHandler(userService)
	wsHandler := handlers.NewWSHandler(hub, logger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "WorkHub API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/visitor", authHandler.CreateVisitor)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(middleware.RequireAuth())
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)
			workspaces.GET("/:id", middleware.RequireWorkspaceAccess(), workspaceHandler.GetWorkspace)
			workspaces.PATCH("/:id", middleware.RequireWorkspaceAccess(), middleware.RequireWorkspaceSuperadmin(), workspaceHandler.UpdateWorkspace)
			workspaces.DELETE("/:id", middleware.RequireWorkspaceAccess(), middleware.RequireWorkspaceSuperadmin(), workspaceHandler.DeleteWorkspace)
			workspaces.POST("/:id/exit", middleware.RequireWorkspaceAccess(), workspaceHandler.ExitWorkspace)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/archived", taskHandler.ListArchived)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		// Invitation routes (protected)
		invitations := api.Group("/invitations")
		invitations.Use(middleware.RequireAuth())
		{
			invitations.GET("", invitationHandler.ListInvitations)
			invitations.POST("/:id/accept", invitationHandler.AcceptInvitation)
			invitations.POST("/:id/decline", invitationHandler.DeclineInvitation)
			invitations.POST("/:id/cancel", invitationHandler.CancelInvitation)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/viewed", notificationHandler.MarkAllViewed)
		}

		// Contact routes (protected)
		contacts := api.Group("/contacts")
		contacts.Use(middleware.RequireAuth())
		{
			contacts.GET("", contactHandler.ListContacts)
			contacts.PUT("/:id", contactHandler.AddContact)
			contacts.PUT("/:id/block", contactHandler.BlockUser)
			contacts.DELETE("/:id", contactHandler.RemoveContact)
		}

		// Realtime notification stream
		api.GET("/ws", middleware.RequireAuth(), wsHandler.Connect)
	}

	// Start server
	logger.Info("Server starting", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if ginMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
