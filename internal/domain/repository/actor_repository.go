package repository

import (
	"context"

	"vitrinet/internal/domain/entity"
)

type ActorRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Actor, error)

	// GetSellerByShopSlug resolves a shop-addressed recipient.
	GetSellerByShopSlug(ctx context.Context, slug string) (*entity.Actor, error)

	// GetInboxAdmin returns the admin account acting as the shared
	// inbox. Only used when the deployment runs ADMIN_INBOX=shared.
	GetInboxAdmin(ctx context.Context) (*entity.Actor, error)
}
