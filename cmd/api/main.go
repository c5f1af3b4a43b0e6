package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api"
	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api/handler"
	apimiddleware "github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api/middleware"
	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api/router"
	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/repository"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/firebase"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/live"
	"github.com/ssanidhya0407/thriveup-messaging/internal/usecase"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}
	authClient := firebase.NewAuthClient(fbAuth)

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	threadRepo := repository.NewFirestoreThreadRepository(firestoreClient)
	messageGateway := repository.NewFirestoreMessageGateway(firestoreClient)

	liveManager := live.NewManager(messageGateway)
	defer liveManager.Close()

	messagingUseCase := usecase.NewMessagingUseCase(threadRepo, userRepo, messageGateway)
	previewService := usecase.NewPreviewService(messageGateway, liveManager)
	defer previewService.Close()

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	messagingHandler := handler.NewMessagingHandler(messagingUseCase, previewService)
	streamHandler := handler.NewStreamHandler(liveManager, messagingUseCase)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	router.SetupMessagingRouter(e, messagingHandler, streamHandler, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
