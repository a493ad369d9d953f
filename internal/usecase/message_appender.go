package usecase

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/internal/infrastructure/notification"
	"vitrinet/pkg/errors"
)

// maxMessageRunes bounds the accepted message body before escaping.
const maxMessageRunes = 2000

// MessageAppender validates, sanitizes and appends messages, and hands
// customer->seller messages to the notification dispatcher afterwards.
type MessageAppender struct {
	convRepo   repository.ConversationRepository
	dispatcher notification.Dispatcher
}

func NewMessageAppender(convRepo repository.ConversationRepository, dispatcher notification.Dispatcher) *MessageAppender {
	return &MessageAppender{
		convRepo:   convRepo,
		dispatcher: dispatcher,
	}
}

// sanitizeText trims, bounds and neutralizes the raw body. Markup is
// escaped, not stripped, so the stored text replays safely on any
// client.
func sanitizeText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errors.InvalidMessageBody("Message text is empty")
	}
	if len([]rune(text)) > maxMessageRunes {
		return "", errors.InvalidMessageBody("Message text exceeds the maximum length")
	}
	return html.EscapeString(text), nil
}

// Append validates before any mutation, then appends atomically. The
// author's role is read by definition at creation; every other role
// starts unread — including the admin side of admin-party conversations,
// which models the shared admin inbox.
func (a *MessageAppender) Append(ctx context.Context, conv *entity.Conversation, senderID string, senderRole entity.Role, rawText string) (*entity.Message, error) {
	text, err := sanitizeText(rawText)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:         uuid.New().String(),
		SenderRole: senderRole,
		Text:       text,
		SentAt:     time.Now(),
	}
	msg.SetRead(senderRole)

	if err := a.convRepo.AppendMessage(ctx, conv.ID, msg); err != nil {
		return nil, err
	}

	// Fire-and-forget: dispatch failures are handled (and swallowed)
	// inside the dispatcher and never fail the append.
	if senderRole == entity.RoleCustomer {
		if sellerID, ok := conv.CounterpartWithRole(entity.RoleSeller); ok {
			a.dispatcher.NewCustomerMessage(ctx, notification.Event{
				ConversationID: conv.ID,
				MessageID:      msg.ID,
				SenderID:       senderID,
				RecipientID:    sellerID,
				Preview:        preview(text),
				SentAt:         msg.SentAt,
			})
		}
	}

	return msg, nil
}

func preview(text string) string {
	const max = 120
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
