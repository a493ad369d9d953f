package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
	"vitrinet/pkg/errors"
)

// Block relations live in a flat "blocks" collection, one document per
// blocker/blocked pair with a scope tag. Platform blocks are the actor
// document's status field, set by an administrator.
type firestoreBlockRepository struct {
	client *firestore.Client
}

func NewFirestoreBlockRepository(client *firestore.Client) repository.BlockRepository {
	return &firestoreBlockRepository{
		client: client,
	}
}

func (r *firestoreBlockRepository) IsPlatformBlocked(ctx context.Context, actorID string) (bool, error) {
	doc, err := r.client.Collection("actors").Doc(actorID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, errors.NotFound("Actor", err)
		}
		return false, errors.Internal("Failed to check actor status", err)
	}

	var actor entity.Actor
	if err := doc.DataTo(&actor); err != nil {
		return false, errors.Internal("Failed to parse actor data", err)
	}
	return actor.Status == entity.StatusBlocked, nil
}

func (r *firestoreBlockRepository) SellerBlocksCustomer(ctx context.Context, sellerID, customerID string) (bool, error) {
	return r.relationExists(ctx, sellerID, customerID, "seller-customer")
}

func (r *firestoreBlockRepository) CustomerBlocksSeller(ctx context.Context, customerID, sellerID string) (bool, error) {
	return r.relationExists(ctx, customerID, sellerID, "customer-seller")
}

func (r *firestoreBlockRepository) relationExists(ctx context.Context, blockerID, blockedID, scope string) (bool, error) {
	query := r.client.Collection("blocks").
		Where("blockerId", "==", blockerID).
		Where("blockedId", "==", blockedID).
		Where("scope", "==", scope).
		Limit(1)

	_, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return false, nil
		}
		return false, errors.Internal("Failed to query block list", err)
	}
	return true, nil
}
