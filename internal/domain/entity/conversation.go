package entity

import "time"

// Kind is the conversation category, derived once at creation from the
// participant context. It is never re-derived afterwards; an explicit
// admin repair operation may overwrite it.
type Kind string

const (
	KindProduct        Kind = "product"
	KindCustomerSeller Kind = "customer-seller"
	KindCustomerAdmin  Kind = "customer-admin"
	KindSellerAdmin    Kind = "seller-admin"
	KindGeneral        Kind = "general"
)

func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindCustomerSeller, KindCustomerAdmin, KindSellerAdmin, KindGeneral:
		return true
	}
	return false
}

type Message struct {
	ID         string `json:"id" firestore:"id"`
	SenderRole Role   `json:"sender_role" firestore:"senderRole"`
	Text       string `json:"text" firestore:"text"`

	// Per-role read markers, not a single boolean. The author's role is
	// read by definition at creation; the remaining roles start unread.
	ReadByCustomer bool `json:"read_by_customer" firestore:"readByCustomer"`
	ReadBySeller   bool `json:"read_by_seller" firestore:"readBySeller"`
	ReadByAdmin    bool `json:"read_by_admin" firestore:"readByAdmin"`

	SentAt time.Time `json:"sent_at" firestore:"sentAt"`
}

// ReadBy reports the marker for the given role.
func (m *Message) ReadBy(role Role) bool {
	switch role {
	case RoleCustomer:
		return m.ReadByCustomer
	case RoleSeller:
		return m.ReadBySeller
	case RoleAdmin:
		return m.ReadByAdmin
	}
	return false
}

// SetRead flips the marker for the given role to read. Markers are
// monotonic: there is no operation that flips one back.
func (m *Message) SetRead(role Role) {
	switch role {
	case RoleCustomer:
		m.ReadByCustomer = true
	case RoleSeller:
		m.ReadBySeller = true
	case RoleAdmin:
		m.ReadByAdmin = true
	}
}

// Conversation is the persistent thread uniquely identified by its
// unordered participant pair, kind and optional product context. The
// document carries its whole message log; appends and marker flips are
// single-document operations.
type Conversation struct {
	ID string `json:"id" firestore:"id"`

	// Key is the canonical identity string the uniqueness constraint is
	// enforced over (sorted participant ids + kind + product context).
	Key string `json:"-" firestore:"key"`

	// Participants holds exactly two actor ids sorted lexicographically;
	// ParticipantRoles is aligned index-for-index to it.
	Participants     []string `json:"participants" firestore:"participants"`
	ParticipantRoles []Role   `json:"participant_roles" firestore:"participantRoles"`

	Kind             Kind   `json:"kind" firestore:"kind"`
	ContextProductID string `json:"context_product_id,omitempty" firestore:"contextProductId,omitempty"`

	Messages []Message `json:"messages" firestore:"messages"`

	LastActivityAt time.Time `json:"last_activity_at" firestore:"lastActivityAt"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

// HasParticipant reports whether the actor id is one of the two parties.
func (c *Conversation) HasParticipant(actorID string) bool {
	for _, p := range c.Participants {
		if p == actorID {
			return true
		}
	}
	return false
}

// RoleOf returns the recorded role tag for a participant id.
func (c *Conversation) RoleOf(actorID string) (Role, bool) {
	for i, p := range c.Participants {
		if p == actorID && i < len(c.ParticipantRoles) {
			return c.ParticipantRoles[i], true
		}
	}
	return "", false
}

// CounterpartWithRole returns the participant id recorded under the
// given role tag, if any.
func (c *Conversation) CounterpartWithRole(role Role) (string, bool) {
	for i, r := range c.ParticipantRoles {
		if r == role && i < len(c.Participants) {
			return c.Participants[i], true
		}
	}
	return "", false
}

// Append adds the message to the log and advances lastActivityAt.
// sentAt is clamped to the current lastActivityAt so the log stays
// non-decreasing even when concurrent appends commit in the opposite
// order of their timestamp assignment.
func (c *Conversation) Append(msg *Message) {
	if msg.SentAt.Before(c.LastActivityAt) {
		msg.SentAt = c.LastActivityAt
	}
	c.Messages = append(c.Messages, *msg)
	c.LastActivityAt = msg.SentAt
}

// MarkRead flips the viewer-role marker on messages authored by other
// roles, optionally restricted to the given message ids. It returns how
// many messages were newly marked; already-read messages are untouched,
// which makes the operation idempotent and monotonic.
func (c *Conversation) MarkRead(viewer Role, messageIDs []string) int {
	var subset map[string]bool
	if len(messageIDs) > 0 {
		subset = make(map[string]bool, len(messageIDs))
		for _, id := range messageIDs {
			subset[id] = true
		}
	}

	updated := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderRole == viewer || m.ReadBy(viewer) {
			continue
		}
		if subset != nil && !subset[m.ID] {
			continue
		}
		m.SetRead(viewer)
		updated++
	}
	return updated
}

// UnreadCountFor counts messages still unread for the viewing role,
// excluding that role's own messages.
func (c *Conversation) UnreadCountFor(role Role) int {
	count := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderRole != role && !m.ReadBy(role) {
			count++
		}
	}
	return count
}
