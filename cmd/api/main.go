package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"vitrinet/internal/adapter/api"
	"vitrinet/internal/adapter/api/handler"
	apimiddleware "vitrinet/internal/adapter/api/middleware"
	"vitrinet/internal/adapter/api/router"
	"vitrinet/internal/adapter/repository"
	"vitrinet/internal/domain/service"
	"vitrinet/internal/infrastructure/notification"
	"vitrinet/internal/infrastructure/ratelimit"
	"vitrinet/internal/infrastructure/websocket"
	"vitrinet/internal/usecase"
	"vitrinet/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			log.Fatal("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH is required")
		}
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	actorRepo := repository.NewFirestoreActorRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	blockRepo := repository.NewFirestoreBlockRepository(firestoreClient)

	// Rate-limit counters: shared in Redis when configured, otherwise
	// per-process with a background sweep.
	var limiterStore ratelimit.Store
	if cfg.RedisURL != "" {
		redisStore, err := ratelimit.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect rate-limit store: %v", err)
		}
		defer redisStore.Close()
		limiterStore = redisStore
	} else {
		memStore := ratelimit.NewMemoryStore()
		memStore.Start()
		defer memStore.Stop()
		limiterStore = memStore
	}
	limiter := ratelimit.NewLimiter(limiterStore)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	// New-customer-message events go to connected sellers immediately
	// and to the notification queue when Redis is configured.
	var queued notification.Dispatcher = notification.NopDispatcher{}
	if cfg.RedisURL != "" {
		queueDispatcher, err := notification.NewQueueDispatcher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect notification queue: %v", err)
		}
		defer queueDispatcher.Close()
		queued = queueDispatcher
	}
	dispatcher := notification.NewRealtimeDispatcher(wsManager, queued)

	guard := service.NewModerationGuard(blockRepo)

	messagingUseCase := usecase.NewMessagingUseCase(
		conversationRepo,
		actorRepo,
		productRepo,
		guard,
		limiter,
		dispatcher,
		usecase.MessagingOptions{
			CreateLimit:      cfg.CreateLimit,
			ReplyLimit:       cfg.ReplyLimit,
			LimitWindow:      cfg.RateLimitWindow,
			SharedAdminInbox: cfg.AdminInbox == "shared",
		},
	)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(actorRepo)

	conversationHandler := handler.NewConversationHandler(messagingUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	router.SetupConversationRouter(e, conversationHandler, authMiddleware, adminMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
