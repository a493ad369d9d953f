package usecase

import (
	"context"
	"time"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/internal/domain/service"
	"vitrinet/pkg/errors"
	"vitrinet/pkg/logger"
)

// ConversationResolver maps a participant key to exactly one
// conversation, creating it on first use. Concurrent resolutions of the
// same key race on the storage uniqueness constraint; the loser re-reads
// the winner's document instead of surfacing an error.
type ConversationResolver struct {
	convRepo repository.ConversationRepository

	// maxReadRetries bounds the re-read after a duplicate-key insert.
	// More than one retry only happens when the winning write is not
	// yet visible to readers.
	maxReadRetries int
	retryDelay     time.Duration
}

func NewConversationResolver(convRepo repository.ConversationRepository) *ConversationResolver {
	return &ConversationResolver{
		convRepo:       convRepo,
		maxReadRetries: 3,
		retryDelay:     50 * time.Millisecond,
	}
}

// Resolve returns the conversation for the key and whether this call
// created it.
func (r *ConversationResolver) Resolve(ctx context.Context, key *service.ParticipantKey) (*entity.Conversation, bool, error) {
	canonical := key.Canonical()

	conv, err := r.convRepo.FindByKey(ctx, canonical)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}

	fresh := &entity.Conversation{
		Key:              canonical,
		Participants:     key.ParticipantIDs[:],
		ParticipantRoles: key.Roles[:],
		Kind:             key.Kind,
		ContextProductID: key.ContextProductID,
		Messages:         []entity.Message{},
	}

	err = r.convRepo.Create(ctx, fresh)
	if err == nil {
		return fresh, true, nil
	}
	if !errors.Is(err, "CONVERSATION_EXISTS") {
		return nil, false, err
	}

	// A concurrent caller won the insert race. Re-read with a bounded
	// number of attempts in case its write is not yet visible.
	for attempt := 1; attempt <= r.maxReadRetries; attempt++ {
		conv, err := r.convRepo.FindByKey(ctx, canonical)
		if err == nil {
			return conv, false, nil
		}
		if !errors.Is(err, "NOT_FOUND") {
			return nil, false, err
		}

		logger.Warn("Conversation %s won by concurrent insert but not yet readable (attempt %d/%d)",
			canonical, attempt, r.maxReadRetries)

		select {
		case <-ctx.Done():
			return nil, false, errors.ConversationResolutionFailed(ctx.Err())
		case <-time.After(r.retryDelay * time.Duration(attempt)):
		}
	}

	logger.Error("Conversation resolution exhausted retries for key %s", canonical)
	return nil, false, errors.ConversationResolutionFailed(nil)
}
