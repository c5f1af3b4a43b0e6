package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api/handler"
	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api/middleware"
)

// SetupMessagingRouter wires the conversation-list and open-conversation call
// patterns. Every route requires an authenticated viewer.
func SetupMessagingRouter(e *echo.Echo, messagingHandler *handler.MessagingHandler, streamHandler *handler.StreamHandler, authMiddleware *middleware.AuthMiddleware) {
	threadGroup := e.Group("/v1/threads")
	threadGroup.Use(authMiddleware.Authenticate)

	threadGroup.POST("", messagingHandler.CreateThread)                // POST /v1/threads - resolve or create a conversation
	threadGroup.GET("/:id/messages", messagingHandler.GetMessages)     // GET  /v1/threads/:id/messages - ordered history
	threadGroup.POST("/:id/messages", messagingHandler.SendMessage)    // POST /v1/threads/:id/messages - send a message

	previewGroup := e.Group("/v1/previews")
	previewGroup.Use(authMiddleware.Authenticate)
	previewGroup.GET("", messagingHandler.GetPreviews) // GET /v1/previews?counterparts=a,b

	streamGroup := e.Group("/ws/threads")
	streamGroup.Use(authMiddleware.Authenticate)
	streamGroup.GET("/:id", streamHandler.HandleThreadStream) // GET /ws/threads/:id - live feed
}
