package service

import (
	"context"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/pkg/errors"
)

// ModerationGuard evaluates block relationships before a message may be
// appended. It runs on every append, not only at conversation creation,
// because block state can change between messages.
type ModerationGuard struct {
	blockRepo repository.BlockRepository
}

func NewModerationGuard(blockRepo repository.BlockRepository) *ModerationGuard {
	return &ModerationGuard{blockRepo: blockRepo}
}

// CanAppend returns nil when the sender may append to the conversation,
// or the matching denial. Checks short-circuit cheapest and most
// authoritative first.
func (g *ModerationGuard) CanAppend(ctx context.Context, senderID string, senderRole entity.Role, conv *entity.Conversation) error {
	blocked, err := g.blockRepo.IsPlatformBlocked(ctx, senderID)
	if err != nil {
		return errors.Internal("Failed to check account status", err)
	}
	if blocked {
		return errors.PlatformBlocked()
	}

	switch senderRole {
	case entity.RoleCustomer:
		sellerID, ok := conv.CounterpartWithRole(entity.RoleSeller)
		if !ok {
			return nil
		}
		blocked, err := g.blockRepo.SellerBlocksCustomer(ctx, sellerID, senderID)
		if err != nil {
			return errors.Internal("Failed to check block list", err)
		}
		if blocked {
			return errors.BlockedBySeller()
		}
	case entity.RoleSeller:
		customerID, ok := conv.CounterpartWithRole(entity.RoleCustomer)
		if !ok {
			return nil
		}
		blocked, err := g.blockRepo.CustomerBlocksSeller(ctx, customerID, senderID)
		if err != nil {
			return errors.Internal("Failed to check block list", err)
		}
		if blocked {
			return errors.BlockedByCustomer()
		}
	}

	return nil
}
