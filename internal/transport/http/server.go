package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "knowdesk/internal/app"
	"knowdesk/internal/bootstrap"
	"knowdesk/internal/cache"
	"knowdesk/internal/platform/rabbitmq"
	"knowdesk/internal/repository"
	"knowdesk/internal/transport/http/handler"
	"knowdesk/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	documentRepo := repository.NewDocumentRepository(app.DB)
	sessionRepo := repository.NewChatSessionRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB)
	vectorStoreRepo := repository.NewVectorStoreRepository(app.DB)
	statsRepo := repository.NewStatsRepository(app.DB)
	eventRepo := repository.NewEventRepository(app.DB)

	var publisher appsvc.ActivityPublisher
	if app.MQConn != nil {
		publisher = rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.ActivityQueue)
	}
	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		historyCache = cache.NewHistoryCache(
			app.Redis,
			time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	indexService := appsvc.NewIndexService(vectorStoreRepo, app.AI, app.Config.VectorStoreName(), app.Logger)
	documentService := appsvc.NewDocumentService(
		documentRepo,
		indexService,
		app.AI,
		publisher,
		app.Config.Upload.MaxFileSizeMB,
		app.Config.AllowedFileTypes(),
		app.Logger,
	)
	sessionService := appsvc.NewSessionService(
		sessionRepo,
		messageRepo,
		userRepo,
		indexService,
		app.AI,
		publisher,
		historyCache,
		app.Config.Chat.TitleMaxLength,
		app.Logger,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(sessionService)
	documentHandler := handler.NewDocumentHandler(documentService)
	adminHandler := handler.NewAdminHandler(statsRepo, eventRepo, app.Config.Organization.Name)

	jwtSecret := app.Config.Auth.JWTSecret

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(jwtSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.POST("/sessions", middleware.OptionalAuthJWT(jwtSecret), chatHandler.StartSession)
	chatGroup.POST("/stream", middleware.OptionalAuthJWT(jwtSecret), chatHandler.StreamTurn)
	chatGroup.GET("/sessions", middleware.AuthJWT(jwtSecret), chatHandler.ListSessions)
	chatGroup.GET("/history", middleware.OptionalAuthJWT(jwtSecret), chatHandler.GetHistory)

	documentGroup := v1.Group("/documents")
	documentGroup.Use(middleware.AuthJWT(jwtSecret))
	documentGroup.POST("", documentHandler.Upload)
	documentGroup.GET("", documentHandler.List)
	documentGroup.DELETE("/:id", documentHandler.Delete)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(jwtSecret))
	adminGroup.GET("/stats", adminHandler.Stats)
	adminGroup.GET("/activity", adminHandler.Activity)

	return router
}
