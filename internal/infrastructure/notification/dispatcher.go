package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	ws "vitrinet/internal/infrastructure/websocket"
	"vitrinet/pkg/logger"
)

// CustomerMessageTaskType is the queue task name for a customer message
// that needs to reach a seller through an offline channel.
const CustomerMessageTaskType = "notification:customer_message"

// Event describes one new customer->seller message. It carries ids
// only; the consumer loads whatever it needs to render the push.
type Event struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	Preview        string    `json:"preview"`
	SentAt         time.Time `json:"sentAt"`
}

// Dispatcher receives new-customer-message events after a successful
// append. Implementations are strictly fire-and-forget: a dispatch
// failure must never fail the parent append.
type Dispatcher interface {
	NewCustomerMessage(ctx context.Context, event Event)
}

// QueueDispatcher enqueues events as asynq tasks processed by the
// notification worker (push/email live there, behind this boundary).
type QueueDispatcher struct {
	client *asynq.Client
}

func NewQueueDispatcher(redisURL string) (*QueueDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}
	return &QueueDispatcher{client: asynq.NewClient(opt)}, nil
}

func (d *QueueDispatcher) NewCustomerMessage(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("notification: marshal event for conversation %s: %v", event.ConversationID, err)
		return
	}

	task := asynq.NewTask(CustomerMessageTaskType, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		// Swallowed: delivery correctness beats notification completeness.
		logger.Warn("notification: enqueue failed for conversation %s: %v", event.ConversationID, err)
	}
}

func (d *QueueDispatcher) Close() error {
	return d.client.Close()
}

// RealtimeDispatcher pushes the event over the recipient's live
// websocket connection, then hands it to the next dispatcher (usually
// the queue) regardless of whether the push landed.
type RealtimeDispatcher struct {
	manager *ws.Manager
	next    Dispatcher
}

func NewRealtimeDispatcher(manager *ws.Manager, next Dispatcher) *RealtimeDispatcher {
	return &RealtimeDispatcher{manager: manager, next: next}
}

func (d *RealtimeDispatcher) NewCustomerMessage(ctx context.Context, event Event) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":            "new_message",
		"conversation_id": event.ConversationID,
		"message_id":      event.MessageID,
		"sender_id":       event.SenderID,
		"preview":         event.Preview,
		"sent_at":         event.SentAt.Format(time.RFC3339),
	})
	if err == nil {
		d.manager.SendToActor(event.RecipientID, payload)
	}

	if d.next != nil {
		d.next.NewCustomerMessage(ctx, event)
	}
}

// NopDispatcher drops events. Used when no redis queue is configured.
type NopDispatcher struct{}

func (NopDispatcher) NewCustomerMessage(context.Context, Event) {}
