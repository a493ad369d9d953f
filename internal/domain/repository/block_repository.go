package repository

import "context"

// BlockRepository exposes the block relationships the moderation guard
// evaluates. Implementations must never leak list contents; only the
// specific relation asked about is answered.
type BlockRepository interface {
	// IsPlatformBlocked reports an administrator-issued global block on
	// the actor's account.
	IsPlatformBlocked(ctx context.Context, actorID string) (bool, error)

	// SellerBlocksCustomer reports whether the seller has this customer
	// in its block list.
	SellerBlocksCustomer(ctx context.Context, sellerID, customerID string) (bool, error)

	// CustomerBlocksSeller reports whether the customer has previously
	// blocked this seller.
	CustomerBlocksSeller(ctx context.Context, customerID, sellerID string) (bool, error)
}
