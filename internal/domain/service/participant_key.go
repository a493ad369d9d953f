package service

import (
	"strings"

	"vitrinet/internal/domain/entity"
	"vitrinet/pkg/errors"
)

// Participant is one side of a prospective conversation: a verified
// actor identity tagged with the role it is acting as.
type Participant struct {
	ID   string
	Role entity.Role
}

// ParticipantKey is the canonical, order-independent identity of a
// conversation. Whoever initiated never affects it: the pair is sorted
// lexicographically and the role tags follow the sorted order.
type ParticipantKey struct {
	ParticipantIDs   [2]string
	Roles            [2]entity.Role
	Kind             entity.Kind
	ContextProductID string
}

// DeriveParticipantKey canonicalizes two participants plus an optional
// product context into a ParticipantKey. It fails with
// INVALID_PARTICIPANTS before any storage access.
func DeriveParticipantKey(a, b Participant, productID string) (*ParticipantKey, error) {
	a.ID = strings.TrimSpace(a.ID)
	b.ID = strings.TrimSpace(b.ID)
	productID = strings.TrimSpace(productID)

	if a.ID == "" || b.ID == "" {
		return nil, errors.InvalidParticipants("participant identity is empty", nil)
	}
	if strings.ContainsRune(a.ID, '|') || strings.ContainsRune(b.ID, '|') {
		return nil, errors.InvalidParticipants("participant identity contains reserved characters", nil)
	}
	if !a.Role.Valid() || !b.Role.Valid() {
		return nil, errors.InvalidParticipants("unrecognized participant role", nil)
	}
	// Self-messaging is only legal as a product inquiry echo.
	if a.ID == b.ID && productID == "" {
		return nil, errors.InvalidParticipants("cannot open a conversation with yourself", nil)
	}

	key := &ParticipantKey{ContextProductID: productID}
	if a.ID <= b.ID {
		key.ParticipantIDs = [2]string{a.ID, b.ID}
		key.Roles = [2]entity.Role{a.Role, b.Role}
	} else {
		key.ParticipantIDs = [2]string{b.ID, a.ID}
		key.Roles = [2]entity.Role{b.Role, a.Role}
	}
	key.Kind = deriveKind(a.Role, b.Role, productID)

	return key, nil
}

// deriveKind computes the conversation kind from the set of role tags
// present; the product context wins over any role combination.
func deriveKind(a, b entity.Role, productID string) entity.Kind {
	if productID != "" {
		return entity.KindProduct
	}
	has := func(r entity.Role) bool { return a == r || b == r }
	switch {
	case has(entity.RoleCustomer) && has(entity.RoleSeller):
		return entity.KindCustomerSeller
	case has(entity.RoleCustomer) && has(entity.RoleAdmin):
		return entity.KindCustomerAdmin
	case has(entity.RoleSeller) && has(entity.RoleAdmin):
		return entity.KindSellerAdmin
	}
	return entity.KindGeneral
}

// Canonical renders the key as the string the storage uniqueness
// constraint is enforced over. An absent product context and an empty
// one render identically, so both land in the same bucket.
func (k *ParticipantKey) Canonical() string {
	return strings.Join([]string{
		k.ParticipantIDs[0],
		k.ParticipantIDs[1],
		string(k.Kind),
		k.ContextProductID,
	}, "|")
}
