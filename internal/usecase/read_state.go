package usecase

import (
	"context"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
)

// ReadStateTracker batch-marks messages read for a viewing role. The
// underlying marker flips are monotonic and the operation is idempotent,
// so repeated calls are harmless.
type ReadStateTracker struct {
	convRepo repository.ConversationRepository
}

func NewReadStateTracker(convRepo repository.ConversationRepository) *ReadStateTracker {
	return &ReadStateTracker{convRepo: convRepo}
}

// MarkRead flips the viewer's marker on messages authored by other
// roles. When messageIDs is non-empty only that subset is considered
// (admin "mark selected as read"); otherwise the whole unread backlog.
func (t *ReadStateTracker) MarkRead(ctx context.Context, conversationID string, viewer entity.Role, messageIDs []string) (int, error) {
	return t.convRepo.MarkMessagesRead(ctx, conversationID, viewer, messageIDs)
}
