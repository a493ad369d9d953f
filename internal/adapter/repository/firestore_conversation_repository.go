package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/pkg/errors"
	"vitrinet/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// conversationDocID derives the document id from the canonical key.
// Keying the document on the participant set + kind + product context
// is what turns DocumentRef.Create into the insert-or-detect-duplicate
// primitive the resolver relies on.
func conversationDocID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conv *entity.Conversation) error {
	if conv.Key == "" {
		return errors.Internal("Conversation key is empty", nil)
	}

	now := time.Now()
	conv.ID = conversationDocID(conv.Key)
	conv.CreatedAt = now
	conv.LastActivityAt = now
	if conv.Messages == nil {
		conv.Messages = []entity.Message{}
	}

	_, err := r.client.Collection("conversations").Doc(conv.ID).Create(ctx, conv)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.New("CONVERSATION_EXISTS", "Conversation already exists for this key", 409, err)
		}
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) FindByKey(ctx context.Context, key string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(conversationDocID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to look up conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conv, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conv, nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, actorID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", actorID).
		OrderBy("lastActivityAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing conversations for %s: %v", actorID, err)
		return nil, 0, errors.Internal("Failed to list conversations", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var conversations []*entity.Conversation
	for i := start; i < end; i++ {
		var conv entity.Conversation
		if err := allDocs[i].DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation document %s: %v", allDocs[i].Ref.ID, err)
			continue
		}
		conversations = append(conversations, &conv)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) error {
	ref := r.client.Collection("conversations").Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		conv.Append(msg)

		return tx.Set(ref, &conv)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to append message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) MarkMessagesRead(ctx context.Context, conversationID string, viewer entity.Role, messageIDs []string) (int, error) {
	ref := r.client.Collection("conversations").Doc(conversationID)

	updated := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = 0

		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		updated = conv.MarkRead(viewer, messageIDs)
		if updated == 0 {
			return nil
		}
		return tx.Set(ref, &conv)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, errors.NotFound("Conversation", err)
		}
		return 0, errors.Internal("Failed to update read markers", err)
	}

	return updated, nil
}

func (r *firestoreConversationRepository) UpdateKind(ctx context.Context, conversationID string, kind entity.Kind) error {
	ref := r.client.Collection("conversations").Doc(conversationID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "kind", Value: string(kind)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update conversation kind", err)
	}
	return nil
}
