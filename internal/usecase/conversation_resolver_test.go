package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/service"
	"vitrinet/pkg/errors"
)

func testKey(t *testing.T) *service.ParticipantKey {
	t.Helper()
	key, err := service.DeriveParticipantKey(
		service.Participant{ID: "cust-1", Role: entity.RoleCustomer},
		service.Participant{ID: "sell-1", Role: entity.RoleSeller},
		"",
	)
	require.NoError(t, err)
	return key
}

func TestResolveCreatesOnFirstUse(t *testing.T) {
	repo := newMemConversationRepo()
	resolver := NewConversationResolver(repo)

	conv, created, err := resolver.Resolve(context.Background(), testKey(t))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, entity.KindCustomerSeller, conv.Kind)
	assert.Equal(t, []string{"cust-1", "sell-1"}, conv.Participants)
	assert.Empty(t, conv.Messages)
}

func TestResolveReturnsExistingOnSecondUse(t *testing.T) {
	repo := newMemConversationRepo()
	resolver := NewConversationResolver(repo)
	ctx := context.Background()

	first, created, err := resolver.Resolve(ctx, testKey(t))
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := resolver.Resolve(ctx, testKey(t))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())
}

func TestResolveConcurrentCallersConvergeOnOneConversation(t *testing.T) {
	repo := newMemConversationRepo()
	resolver := NewConversationResolver(repo)
	ctx := context.Background()

	const callers = 16
	ids := make([]string, callers)
	createdFlags := make([]bool, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, created, err := resolver.Resolve(ctx, testKey(t))
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conv.ID
			createdFlags[i] = created
		}(i)
	}
	wg.Wait()

	creations := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if createdFlags[i] {
			creations++
		}
	}
	assert.Equal(t, 1, creations, "exactly one caller reports creation")
	assert.Equal(t, 1, repo.count())
}

func TestResolveLosingRaceReReadsWinner(t *testing.T) {
	repo := newMemConversationRepo()
	winner := &entity.Conversation{
		Key:              testKey(t).Canonical(),
		Participants:     []string{"cust-1", "sell-1"},
		ParticipantRoles: []entity.Role{entity.RoleCustomer, entity.RoleSeller},
		Kind:             entity.KindCustomerSeller,
	}
	require.NoError(t, repo.Create(context.Background(), winner))

	// The first read misses, the insert collides, then the re-read
	// finds the winner.
	repo.findMisses = 1

	resolver := NewConversationResolver(repo)
	resolver.retryDelay = time.Millisecond

	conv, created, err := resolver.Resolve(context.Background(), testKey(t))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, conv.ID)
}

func TestResolveExhaustedRetriesFails(t *testing.T) {
	repo := newMemConversationRepo()
	winner := &entity.Conversation{
		Key:              testKey(t).Canonical(),
		Participants:     []string{"cust-1", "sell-1"},
		ParticipantRoles: []entity.Role{entity.RoleCustomer, entity.RoleSeller},
		Kind:             entity.KindCustomerSeller,
	}
	require.NoError(t, repo.Create(context.Background(), winner))

	// Keep the winner invisible through every re-read attempt.
	repo.findMisses = 10

	resolver := NewConversationResolver(repo)
	resolver.retryDelay = time.Millisecond

	_, _, err := resolver.Resolve(context.Background(), testKey(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONVERSATION_RESOLUTION_FAILED"))
}

func TestResolveHonorsContextCancellation(t *testing.T) {
	repo := newMemConversationRepo()
	winner := &entity.Conversation{
		Key:              testKey(t).Canonical(),
		Participants:     []string{"cust-1", "sell-1"},
		ParticipantRoles: []entity.Role{entity.RoleCustomer, entity.RoleSeller},
		Kind:             entity.KindCustomerSeller,
	}
	require.NoError(t, repo.Create(context.Background(), winner))
	repo.findMisses = 10

	resolver := NewConversationResolver(repo)
	resolver.retryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := resolver.Resolve(ctx, testKey(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONVERSATION_RESOLUTION_FAILED"))
}
