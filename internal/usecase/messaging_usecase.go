package usecase

import (
	"context"
	"time"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/internal/domain/service"
	"vitrinet/internal/infrastructure/notification"
	"vitrinet/internal/infrastructure/ratelimit"
	"vitrinet/pkg/errors"
	"vitrinet/pkg/logger"
)

// MessagingUseCase wires the full send pipeline: rate limit, actor and
// role validation, moderation, key derivation, resolution, append,
// notification.
type MessagingUseCase struct {
	resolver *ConversationResolver
	appender *MessageAppender
	tracker  *ReadStateTracker
	guard    *service.ModerationGuard
	limiter  *ratelimit.Limiter

	convRepo    repository.ConversationRepository
	actorRepo   repository.ActorRepository
	productRepo repository.ProductRepository

	createLimit int
	replyLimit  int
	limitWindow time.Duration

	// sharedAdminInbox routes customer->admin sends to the designated
	// inbox admin; when false an explicit recipient id is required.
	sharedAdminInbox bool
}

// MessagingOptions carries the deployment knobs.
type MessagingOptions struct {
	CreateLimit      int
	ReplyLimit       int
	LimitWindow      time.Duration
	SharedAdminInbox bool
}

func NewMessagingUseCase(
	convRepo repository.ConversationRepository,
	actorRepo repository.ActorRepository,
	productRepo repository.ProductRepository,
	guard *service.ModerationGuard,
	limiter *ratelimit.Limiter,
	dispatcher notification.Dispatcher,
	opts MessagingOptions,
) *MessagingUseCase {
	return &MessagingUseCase{
		resolver:         NewConversationResolver(convRepo),
		appender:         NewMessageAppender(convRepo, dispatcher),
		tracker:          NewReadStateTracker(convRepo),
		guard:            guard,
		limiter:          limiter,
		convRepo:         convRepo,
		actorRepo:        actorRepo,
		productRepo:      productRepo,
		createLimit:      opts.CreateLimit,
		replyLimit:       opts.ReplyLimit,
		limitWindow:      opts.LimitWindow,
		sharedAdminInbox: opts.SharedAdminInbox,
	}
}

type SendMessageInput struct {
	Text          string
	ProductID     string
	RecipientID   string
	ShopSlug      string
	RecipientRole string
}

type EnsureConversationInput struct {
	RecipientID   string
	RecipientRole string
	ProductID     string
}

// ConversationResult is the send/ensure outcome. Created distinguishes
// HTTP 201 from 200 at the handler.
type ConversationResult struct {
	Conversation *entity.Conversation `json:"conversation"`
	Message      *entity.Message      `json:"message,omitempty"`
	Created      bool                 `json:"created"`
}

// ConversationSummary annotates a listed conversation with the caller's
// unread count.
type ConversationSummary struct {
	*entity.Conversation
	UnreadCount int `json:"unread_count"`
}

// SendMessage resolves (or creates) the conversation for the addressed
// recipient and appends the first/next message in one request.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*ConversationResult, error) {
	if err := uc.checkRate(ctx, senderID, "send_message", uc.createLimit); err != nil {
		return nil, err
	}

	sender, err := uc.actorRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	recipient, productID, err := uc.resolveRecipient(ctx, input.RecipientID, input.ShopSlug, input.RecipientRole, input.ProductID)
	if err != nil {
		return nil, err
	}

	key, err := service.DeriveParticipantKey(
		service.Participant{ID: sender.ID, Role: sender.Role},
		service.Participant{ID: recipient.ID, Role: recipient.Role},
		productID,
	)
	if err != nil {
		return nil, err
	}

	// Moderation runs against the prospective participant pair before
	// anything is persisted: a blocked sender must not even leave an
	// empty conversation behind.
	prospective := &entity.Conversation{
		Participants:     key.ParticipantIDs[:],
		ParticipantRoles: key.Roles[:],
	}
	if err := uc.guard.CanAppend(ctx, sender.ID, sender.Role, prospective); err != nil {
		return nil, err
	}

	conv, created, err := uc.resolver.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	msg, err := uc.appender.Append(ctx, conv, sender.ID, sender.Role, input.Text)
	if err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, *msg)
	conv.LastActivityAt = msg.SentAt

	return &ConversationResult{Conversation: conv, Message: msg, Created: created}, nil
}

// EnsureConversation opens (or finds) an empty thread without a message
// body.
func (uc *MessagingUseCase) EnsureConversation(ctx context.Context, senderID string, input EnsureConversationInput) (*ConversationResult, error) {
	if err := uc.checkRate(ctx, senderID, "send_message", uc.createLimit); err != nil {
		return nil, err
	}

	sender, err := uc.actorRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	recipient, productID, err := uc.resolveRecipient(ctx, input.RecipientID, "", input.RecipientRole, input.ProductID)
	if err != nil {
		return nil, err
	}

	key, err := service.DeriveParticipantKey(
		service.Participant{ID: sender.ID, Role: sender.Role},
		service.Participant{ID: recipient.ID, Role: recipient.Role},
		productID,
	)
	if err != nil {
		return nil, err
	}

	conv, created, err := uc.resolver.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	return &ConversationResult{Conversation: conv, Created: created}, nil
}

// Reply appends into an existing conversation. requireRole restricts the
// caller's account role when non-empty (seller-reply/admin-reply
// shortcuts).
func (uc *MessagingUseCase) Reply(ctx context.Context, senderID, conversationID, text string, requireRole entity.Role) (*ConversationResult, error) {
	if err := uc.checkRate(ctx, senderID, "reply", uc.replyLimit); err != nil {
		return nil, err
	}

	sender, err := uc.actorRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if requireRole != "" && sender.Role != requireRole {
		return nil, errors.Forbidden("This reply endpoint is restricted to another role", nil)
	}

	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	senderRole, err := uc.authorizeParticipant(sender, conv)
	if err != nil {
		return nil, err
	}

	if err := uc.guard.CanAppend(ctx, sender.ID, senderRole, conv); err != nil {
		return nil, err
	}

	msg, err := uc.appender.Append(ctx, conv, sender.ID, senderRole, text)
	if err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, *msg)
	conv.LastActivityAt = msg.SentAt

	return &ConversationResult{Conversation: conv, Message: msg, Created: false}, nil
}

// MarkRead flips the caller-role read markers in a conversation,
// optionally restricted to specific messages.
func (uc *MessagingUseCase) MarkRead(ctx context.Context, actorID, conversationID string, messageIDs []string) (int, error) {
	actor, err := uc.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return 0, err
	}

	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	viewerRole, err := uc.authorizeParticipant(actor, conv)
	if err != nil {
		return 0, err
	}

	return uc.tracker.MarkRead(ctx, conversationID, viewerRole, messageIDs)
}

// ListMine returns the caller's conversations ordered by last activity,
// each annotated with the caller's unread count.
func (uc *MessagingUseCase) ListMine(ctx context.Context, actorID string, limit, offset int) ([]*ConversationSummary, int64, error) {
	actor, err := uc.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}

	conversations, total, err := uc.convRepo.ListByParticipant(ctx, actorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		role, ok := conv.RoleOf(actorID)
		if !ok {
			role = actor.Role
		}
		summaries = append(summaries, &ConversationSummary{
			Conversation: conv,
			UnreadCount:  conv.UnreadCountFor(role),
		})
	}

	return summaries, total, nil
}

// GetByID returns a conversation with participant-membership enforcement
// for non-admin callers.
func (uc *MessagingUseCase) GetByID(ctx context.Context, actorID, conversationID string) (*entity.Conversation, error) {
	actor, err := uc.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if actor.Role != entity.RoleAdmin && !conv.HasParticipant(actorID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	return conv, nil
}

// RepairKind overwrites the stored kind. The kind is never re-derived;
// this explicit admin operation is the only correction path.
func (uc *MessagingUseCase) RepairKind(ctx context.Context, conversationID string, kind string) error {
	k := entity.Kind(kind)
	if !k.Valid() {
		return errors.BadRequest("Unknown conversation kind", nil)
	}
	return uc.convRepo.UpdateKind(ctx, conversationID, k)
}

func (uc *MessagingUseCase) checkRate(ctx context.Context, senderID, action string, max int) error {
	result, err := uc.limiter.Allow(ctx, senderID, action, max, uc.limitWindow)
	if err != nil {
		// Fail open: the limiter store being down must not take
		// messaging down with it.
		logger.Warn("Rate limit store error for %s: %v", senderID, err)
		return nil
	}
	if !result.Allowed {
		return errors.RateLimited(result.ResetInSeconds)
	}
	return nil
}

// resolveRecipient turns the addressing fields of a request into a
// concrete counterpart actor plus the product context, if any.
func (uc *MessagingUseCase) resolveRecipient(ctx context.Context, recipientID, shopSlug, recipientRole, productID string) (*entity.Actor, string, error) {
	var product *entity.Product
	if productID != "" {
		var err error
		product, err = uc.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, "", err
		}
	}

	var recipient *entity.Actor
	var err error
	switch {
	case shopSlug != "":
		recipient, err = uc.actorRepo.GetSellerByShopSlug(ctx, shopSlug)
	case recipientID != "":
		recipient, err = uc.actorRepo.GetByID(ctx, recipientID)
	case product != nil:
		recipient, err = uc.actorRepo.GetByID(ctx, product.SellerID)
	case recipientRole == string(entity.RoleAdmin):
		if !uc.sharedAdminInbox {
			return nil, "", errors.BadRequest("A recipient id is required in per-admin mode", nil)
		}
		recipient, err = uc.actorRepo.GetInboxAdmin(ctx)
	default:
		return nil, "", errors.InvalidParticipants("A recipient is required", nil)
	}
	if err != nil {
		return nil, "", err
	}

	if recipientRole != "" {
		role, parseErr := entity.ParseRole(recipientRole)
		if parseErr != nil {
			return nil, "", errors.InvalidParticipants("Unknown recipient role", parseErr)
		}
		if recipient.Role != role {
			return nil, "", errors.InvalidParticipants("Recipient does not act as the requested role", nil)
		}
	}

	return recipient, productID, nil
}

// authorizeParticipant resolves the role the caller acts as inside the
// conversation. Participants use their recorded role tag; in shared
// inbox mode any admin may also act on admin-party conversations they
// are not the recorded participant of. Per-admin deployments partition
// admin access to the recorded participant only.
func (uc *MessagingUseCase) authorizeParticipant(actor *entity.Actor, conv *entity.Conversation) (entity.Role, error) {
	if role, ok := conv.RoleOf(actor.ID); ok {
		return role, nil
	}
	if uc.sharedAdminInbox && actor.Role == entity.RoleAdmin &&
		(conv.Kind == entity.KindCustomerAdmin || conv.Kind == entity.KindSellerAdmin) {
		return entity.RoleAdmin, nil
	}
	return "", errors.Forbidden("You are not a participant in this conversation", nil)
}
