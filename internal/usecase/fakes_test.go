package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/infrastructure/notification"
	"vitrinet/pkg/errors"
)

// memConversationRepo mimics the storage contract in memory: a unique
// index over the canonical key and atomic per-document updates.
type memConversationRepo struct {
	mu    sync.Mutex
	byKey map[string]*entity.Conversation
	byID  map[string]*entity.Conversation

	// findMisses forces FindByKey to report NOT_FOUND that many times
	// even when the document exists, simulating a winner's write that is
	// not yet visible.
	findMisses int
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{
		byKey: make(map[string]*entity.Conversation),
		byID:  make(map[string]*entity.Conversation),
	}
}

func (r *memConversationRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[conv.Key]; exists {
		return errors.New("CONVERSATION_EXISTS", "Conversation already exists for this key", 409, nil)
	}

	conv.ID = uuid.New().String()
	now := time.Now()
	conv.CreatedAt = now
	conv.LastActivityAt = now
	if conv.Messages == nil {
		conv.Messages = []entity.Message{}
	}

	stored := cloneConversation(conv)
	r.byKey[conv.Key] = stored
	r.byID[conv.ID] = stored
	return nil
}

func (r *memConversationRepo) FindByKey(ctx context.Context, key string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findMisses > 0 {
		r.findMisses--
		return nil, errors.NotFound("Conversation", nil)
	}

	conv, ok := r.byKey[key]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conv), nil
}

func (r *memConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conv), nil
}

func (r *memConversationRepo) ListByParticipant(ctx context.Context, actorID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Conversation
	for _, conv := range r.byID {
		if conv.HasParticipant(actorID) {
			out = append(out, cloneConversation(conv))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memConversationRepo) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.Append(msg)
	return nil
}

func (r *memConversationRepo) MarkMessagesRead(ctx context.Context, conversationID string, viewer entity.Role, messageIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[conversationID]
	if !ok {
		return 0, errors.NotFound("Conversation", nil)
	}
	return conv.MarkRead(viewer, messageIDs), nil
}

func (r *memConversationRepo) UpdateKind(ctx context.Context, conversationID string, kind entity.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.Kind = kind
	return nil
}

func (r *memConversationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func cloneConversation(conv *entity.Conversation) *entity.Conversation {
	copied := *conv
	copied.Participants = append([]string(nil), conv.Participants...)
	copied.ParticipantRoles = append([]entity.Role(nil), conv.ParticipantRoles...)
	copied.Messages = append([]entity.Message(nil), conv.Messages...)
	return &copied
}

type memActorRepo struct {
	actors map[string]*entity.Actor
}

func newMemActorRepo(actors ...*entity.Actor) *memActorRepo {
	repo := &memActorRepo{actors: make(map[string]*entity.Actor)}
	for _, a := range actors {
		repo.actors[a.ID] = a
	}
	return repo
}

func (r *memActorRepo) GetByID(ctx context.Context, id string) (*entity.Actor, error) {
	actor, ok := r.actors[id]
	if !ok {
		return nil, errors.NotFound("Actor", nil)
	}
	return actor, nil
}

func (r *memActorRepo) GetSellerByShopSlug(ctx context.Context, slug string) (*entity.Actor, error) {
	for _, actor := range r.actors {
		if actor.ShopSlug == slug && actor.Role == entity.RoleSeller {
			return actor, nil
		}
	}
	return nil, errors.NotFound("Shop", nil)
}

func (r *memActorRepo) GetInboxAdmin(ctx context.Context) (*entity.Actor, error) {
	for _, actor := range r.actors {
		if actor.Role == entity.RoleAdmin {
			return actor, nil
		}
	}
	return nil, errors.NotFound("Admin inbox", nil)
}

type memProductRepo struct {
	products map[string]*entity.Product
}

func newMemProductRepo(products ...*entity.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[string]*entity.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	return product, nil
}

// memBlockRepo records block relations as "blocker->blocked" pairs.
type memBlockRepo struct {
	platformBlocked map[string]bool
	sellerBlocks    map[string]bool
	customerBlocks  map[string]bool
}

func newMemBlockRepo() *memBlockRepo {
	return &memBlockRepo{
		platformBlocked: make(map[string]bool),
		sellerBlocks:    make(map[string]bool),
		customerBlocks:  make(map[string]bool),
	}
}

func (r *memBlockRepo) IsPlatformBlocked(ctx context.Context, actorID string) (bool, error) {
	return r.platformBlocked[actorID], nil
}

func (r *memBlockRepo) SellerBlocksCustomer(ctx context.Context, sellerID, customerID string) (bool, error) {
	return r.sellerBlocks[sellerID+"->"+customerID], nil
}

func (r *memBlockRepo) CustomerBlocksSeller(ctx context.Context, customerID, sellerID string) (bool, error) {
	return r.customerBlocks[customerID+"->"+sellerID], nil
}

// captureDispatcher records dispatched events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (d *captureDispatcher) NewCustomerMessage(ctx context.Context, event notification.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *captureDispatcher) captured() []notification.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Event(nil), d.events...)
}
