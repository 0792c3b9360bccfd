// Package store defines the persistence contract for the verification core
// and its GORM implementation. Services depend on the interfaces only.
package store

import (
	"context"
	"errors"

	"mailproof/internal/models"
)

var (
	// ErrNotFound is returned when a row is missing or soft-deleted
	ErrNotFound = errors.New("store: not found")
	// ErrStale is returned when a conditional update matched no rows,
	// meaning the expected prior state no longer holds.
	ErrStale = errors.New("store: stale update")
)

// ListQuery is the filter contract the dashboard layer requires from the
// core: status, search, verified/total ranges, sort allow-list, paging.
type ListQuery struct {
	OwnerID   string
	SharedIDs []string

	Status      string
	Search      string
	MinVerified *int
	MaxVerified *int
	MinTotal    *int
	MaxTotal    *int

	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ListStore persists EmailList rows
type ListStore interface {
	Create(ctx context.Context, list *models.EmailList) error
	GetByID(ctx context.Context, id string) (*models.EmailList, error)
	GetByJobID(ctx context.Context, jobID, ownerID string) (*models.EmailList, error)
	// UpdateIfStatus applies updates only while the row still has the
	// expected status and is not deleted; ErrStale otherwise.
	UpdateIfStatus(ctx context.Context, id string, expected models.ListStatus, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]models.EmailList, int64, error)
	StatusCounts(ctx context.Context, ownerID string, sharedIDs []string) (map[models.ListStatus]int64, error)
	PendingForOwner(ctx context.Context, ownerID string) ([]models.EmailList, error)
	ActiveCount(ctx context.Context, ownerID string) (int64, error)
}

// GrantStore persists TeamMember sharing grants
type GrantStore interface {
	Get(ctx context.Context, sharedByID, memberID string) (*models.TeamMember, error)
	FindForMember(ctx context.Context, memberID, listID string) (*models.TeamMember, error)
	ListForMember(ctx context.Context, memberID string) ([]models.TeamMember, error)
	ListForOwner(ctx context.Context, sharedByID string) ([]models.TeamMember, error)
	Save(ctx context.Context, grant *models.TeamMember, listIDs []string) error
	Delete(ctx context.Context, sharedByID, memberID string) error
	UpdateAccessType(ctx context.Context, sharedByID, memberID string, accessType models.AccessType) error
	// DetachList removes a deleted list from every grant that covers it.
	DetachList(ctx context.Context, listID string) error
}

// RecordStore persists the append-only credit ledger. Ledger rows survive
// list deletion; only the audit trail may tombstone individual rows.
type RecordStore interface {
	Append(ctx context.Context, record *models.VerificationRecord) error
	Aggregate(ctx context.Context, userID string) (used int64, purchased int64, err error)
}
