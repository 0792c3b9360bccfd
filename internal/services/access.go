package services

import (
	"context"
	"errors"
	"fmt"

	"mailproof/internal/models"
	"mailproof/internal/store"
	"mailproof/internal/utils/logger"
)

// Access is the ownership resolution result for one (list, actor) pair.
// OwnerID is the identity every downstream mutation and ledger entry must
// be attributed to; for a shared list that is the grantor, never the
// acting delegate.
type Access struct {
	OwnerID  string
	CanWrite bool
}

// AccessResolver decides whether an acting identity may touch a list and
// on whose behalf. Every mutating operation goes through here before any
// remote call is issued.
type AccessResolver struct {
	lists  store.ListStore
	grants store.GrantStore
	log    *logger.Logger
}

func NewAccessResolver(lists store.ListStore, grants store.GrantStore) *AccessResolver {
	return &AccessResolver{
		lists:  lists,
		grants: grants,
		log:    logger.New("access_resolver"),
	}
}

// Resolve returns the effective owner of listID for actorID. needWrite
// selects whether a read-only grant is sufficient.
func (r *AccessResolver) Resolve(ctx context.Context, listID, actorID string, needWrite bool) (*Access, error) {
	if listID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: list id and actor id are required", ErrInvalidArgument)
	}

	list, err := r.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: email list %s", ErrNotFound, listID)
		}
		return nil, err
	}

	// Owners always have full access to their own lists
	if list.UserID == actorID {
		return &Access{OwnerID: actorID, CanWrite: true}, nil
	}

	grant, err := r.grants.FindForMember(ctx, actorID, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: list not shared with you", ErrPermissionDenied)
		}
		return nil, err
	}

	// A concurrent delete can detach the list from the grant between
	// the store's join and the preload; the loaded grant must still
	// cover the list when we read it.
	if !grant.Covers(listID) {
		return nil, fmt.Errorf("%w: list not shared with you", ErrPermissionDenied)
	}

	if needWrite && grant.AccessType != models.AccessTypeWrite {
		return nil, fmt.Errorf("%w: read-only access", ErrPermissionDenied)
	}

	r.log.Debug("resolved list %s for actor %s -> owner %s", listID, actorID, grant.SharedByID)
	return &Access{
		OwnerID:  grant.SharedByID,
		CanWrite: grant.AccessType == models.AccessTypeWrite,
	}, nil
}
