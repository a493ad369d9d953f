package router

import (
	"github.com/labstack/echo/v4"

	"vitrinet/internal/adapter/api/handler"
	"vitrinet/internal/adapter/api/middleware"
)

// SetupConversationRouter wires all messaging routes. Every route
// requires authentication; the repair route additionally requires admin.
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	group.POST("/messages", conversationHandler.SendMessage)  // resolve-or-create + append
	group.POST("/ensure", conversationHandler.EnsureConversation)

	group.GET("/mine", conversationHandler.ListMine)
	group.GET("/:id", conversationHandler.GetByID)

	group.POST("/:id/messages", conversationHandler.Reply)
	group.POST("/:id/messages/mark-read", conversationHandler.MarkRead)
	group.POST("/:id/seller-reply", conversationHandler.SellerReply)
	group.POST("/:id/admin-reply", conversationHandler.AdminReply)

	adminGroup := e.Group("/v1/admin/conversations")
	adminGroup.Use(authMiddleware.Authenticate)
	adminGroup.Use(adminMiddleware.AdminOnly)
	adminGroup.POST("/:id/repair-kind", conversationHandler.RepairKind)
}
