package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/usecase"
	"vitrinet/pkg/response"
)

type ConversationHandler struct {
	messaging *usecase.MessagingUseCase
}

func NewConversationHandler(messaging *usecase.MessagingUseCase) *ConversationHandler {
	return &ConversationHandler{
		messaging: messaging,
	}
}

type sendMessageRequest struct {
	Text          string `json:"text" validate:"required"`
	ProductID     string `json:"productId"`
	RecipientID   string `json:"recipientId"`
	ShopSlug      string `json:"shopSlug"`
	RecipientRole string `json:"recipientRole" validate:"omitempty,oneof=customer seller admin"`
}

type ensureConversationRequest struct {
	RecipientID   string `json:"recipientId"`
	RecipientRole string `json:"recipientRole" validate:"required,oneof=customer seller admin"`
	ProductID     string `json:"productId"`
}

type replyRequest struct {
	Text string `json:"text" validate:"required"`
}

type markReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

type repairKindRequest struct {
	Kind string `json:"kind" validate:"required,oneof=product customer-seller customer-admin seller-admin general"`
}

// SendMessage resolves or creates the conversation for the addressed
// recipient and appends the message. 201 when the conversation was
// created by this call, 200 when it already existed.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)

	result, err := h.messaging.SendMessage(c.Request().Context(), senderID, usecase.SendMessageInput{
		Text:          req.Text,
		ProductID:     req.ProductID,
		RecipientID:   req.RecipientID,
		ShopSlug:      req.ShopSlug,
		RecipientRole: req.RecipientRole,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if result.Created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

// EnsureConversation opens an empty thread without a message body.
func (h *ConversationHandler) EnsureConversation(c echo.Context) error {
	var req ensureConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)

	result, err := h.messaging.EnsureConversation(c.Request().Context(), senderID, usecase.EnsureConversationInput{
		RecipientID:   req.RecipientID,
		RecipientRole: req.RecipientRole,
		ProductID:     req.ProductID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if result.Created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

// Reply appends to an existing conversation; the caller must be a
// participant.
func (h *ConversationHandler) Reply(c echo.Context) error {
	return h.reply(c, "")
}

// SellerReply is the role-restricted reply shortcut for sellers.
func (h *ConversationHandler) SellerReply(c echo.Context) error {
	return h.reply(c, entity.RoleSeller)
}

// AdminReply is the role-restricted reply shortcut for administrators.
func (h *ConversationHandler) AdminReply(c echo.Context) error {
	return h.reply(c, entity.RoleAdmin)
}

func (h *ConversationHandler) reply(c echo.Context, requireRole entity.Role) error {
	conversationID := c.Param("id")
	senderID := c.Get("uid").(string)

	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.messaging.Reply(c.Request().Context(), senderID, conversationID, req.Text, requireRole)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// MarkRead flips the caller-role read markers, optionally restricted to
// the supplied message ids.
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	conversationID := c.Param("id")
	actorID := c.Get("uid").(string)

	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.messaging.MarkRead(c.Request().Context(), actorID, conversationID, req.MessageIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": updated})
}

// ListMine returns the caller's conversations with unread counts.
func (h *ConversationHandler) ListMine(c echo.Context) error {
	actorID := c.Get("uid").(string)

	limit := 20
	offset := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	summaries, total, err := h.messaging.ListMine(c.Request().Context(), actorID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, summaries, total, limit, offset)
}

// GetByID returns one conversation; non-admin callers must be
// participants.
func (h *ConversationHandler) GetByID(c echo.Context) error {
	conversationID := c.Param("id")
	actorID := c.Get("uid").(string)

	conv, err := h.messaging.GetByID(c.Request().Context(), actorID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

// RepairKind overwrites a conversation's stored kind (admin-only route).
func (h *ConversationHandler) RepairKind(c echo.Context) error {
	conversationID := c.Param("id")

	var req repairKindRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.messaging.RepairKind(c.Request().Context(), conversationID, req.Kind); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"kind": req.Kind})
}
