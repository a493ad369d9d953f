package repository

import (
	"context"

	"vitrinet/internal/domain/entity"
)

// ConversationRepository persists conversation documents. The one
// contract resolution correctness depends on is Create: inserting a
// conversation whose canonical key already exists must fail with a
// duplicate-key error (errors.Is(err, "CONVERSATION_EXISTS")) instead
// of overwriting or double-inserting.
type ConversationRepository interface {
	// Create inserts a new conversation under the uniqueness constraint.
	Create(ctx context.Context, conv *entity.Conversation) error

	// FindByKey looks up the conversation for a canonical key. Both the
	// participant set (membership and count) and the kind/product bucket
	// are part of the key, so an exact-set match is implied.
	FindByKey(ctx context.Context, key string) (*entity.Conversation, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, actorID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// AppendMessage appends atomically and bumps lastActivityAt in the
	// same document write. Partial states are never observable.
	AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) error

	// MarkMessagesRead flips the viewer-role marker on messages authored
	// by other roles. A nil messageIDs applies to the whole backlog.
	// Returns how many messages were newly marked.
	MarkMessagesRead(ctx context.Context, conversationID string, viewer entity.Role, messageIDs []string) (int, error)

	// UpdateKind overwrites the stored kind (explicit repair operation).
	UpdateKind(ctx context.Context, conversationID string, kind entity.Kind) error
}
