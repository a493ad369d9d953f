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

type firestoreActorRepository struct {
	client *firestore.Client
}

func NewFirestoreActorRepository(client *firestore.Client) repository.ActorRepository {
	return &firestoreActorRepository{
		client: client,
	}
}

func (r *firestoreActorRepository) GetByID(ctx context.Context, id string) (*entity.Actor, error) {
	doc, err := r.client.Collection("actors").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Actor", err)
		}
		return nil, errors.Internal("Failed to get actor", err)
	}

	var actor entity.Actor
	if err := doc.DataTo(&actor); err != nil {
		return nil, errors.Internal("Failed to parse actor data", err)
	}
	actor.ID = doc.Ref.ID
	return &actor, nil
}

func (r *firestoreActorRepository) GetSellerByShopSlug(ctx context.Context, slug string) (*entity.Actor, error) {
	query := r.client.Collection("actors").
		Where("shopSlug", "==", slug).
		Where("role", "==", string(entity.RoleSeller)).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Shop", nil)
		}
		return nil, errors.Internal("Failed to query shop", err)
	}

	var actor entity.Actor
	if err := doc.DataTo(&actor); err != nil {
		return nil, errors.Internal("Failed to parse actor data", err)
	}
	actor.ID = doc.Ref.ID
	return &actor, nil
}

// GetInboxAdmin returns the oldest admin account. The shared-inbox mode
// treats administrators as one mailbox; per-admin deployments never call
// this.
func (r *firestoreActorRepository) GetInboxAdmin(ctx context.Context) (*entity.Actor, error) {
	query := r.client.Collection("actors").
		Where("role", "==", string(entity.RoleAdmin)).
		OrderBy("createdAt", firestore.Asc).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Admin inbox", nil)
		}
		return nil, errors.Internal("Failed to query admin inbox", err)
	}

	var actor entity.Actor
	if err := doc.DataTo(&actor); err != nil {
		return nil, errors.Internal("Failed to parse actor data", err)
	}
	actor.ID = doc.Ref.ID
	return &actor, nil
}
