package services

import (
	"context"
	"math"

	"mailproof/internal/models"
	"mailproof/internal/store"
	"mailproof/internal/utils/logger"
)

// StatusCount is one histogram bucket for the dashboard
type StatusCount struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Pagination describes the returned page of a list query
type Pagination struct {
	TotalCount int64  `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Pages      int    `json:"pages"`
	SortBy     string `json:"sort_by"`
	SortOrder  string `json:"sort_order"`
}

// ListPage is the full payload of a dashboard list query
type ListPage struct {
	Items         []models.EmailList `json:"items"`
	Pagination    Pagination         `json:"pagination"`
	StatusSummary []StatusCount      `json:"status_summary"`
}

// EmailListService serves the read-only dashboard queries over owned and
// shared-in lists. The status histogram is computed over the unfiltered
// base match so the counters stay stable while filters change.
type EmailListService struct {
	lists  store.ListStore
	shares *ShareService
	log    *logger.Logger
}

func NewEmailListService(lists store.ListStore, shares *ShareService) *EmailListService {
	return &EmailListService{
		lists:  lists,
		shares: shares,
		log:    logger.New("list_service"),
	}
}

// List runs a filtered, sorted, paginated query for ownerID plus a global
// status summary over everything the owner can see.
func (s *EmailListService) List(ctx context.Context, ownerID string, q store.ListQuery) (*ListPage, error) {
	sharedIDs, err := s.shares.SharedListIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	q.OwnerID = ownerID
	q.SharedIDs = sharedIDs
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortOrder != "desc" {
		q.SortOrder = "asc"
	}

	items, total, err := s.lists.List(ctx, q)
	if err != nil {
		return nil, err
	}

	counts, err := s.lists.StatusCounts(ctx, ownerID, sharedIDs)
	if err != nil {
		return nil, err
	}

	var all int64
	summary := make([]StatusCount, 0, len(models.ExpectedListStatuses)+1)
	for _, status := range models.ExpectedListStatuses {
		all += counts[status]
	}
	summary = append(summary, StatusCount{Value: "all", Label: "All", Count: all})
	for _, status := range models.ExpectedListStatuses {
		summary = append(summary, StatusCount{
			Value: string(status),
			Label: titleStatus(status),
			Count: counts[status],
		})
	}

	if items == nil {
		items = []models.EmailList{}
	}
	return &ListPage{
		Items: items,
		Pagination: Pagination{
			TotalCount: total,
			Page:       q.Page,
			Limit:      q.Limit,
			Pages:      int(math.Ceil(float64(total) / float64(q.Limit))),
			SortBy:     q.SortBy,
			SortOrder:  q.SortOrder,
		},
		StatusSummary: summary,
	}, nil
}

// Pending returns the owner's lists that have not reached the verified
// state, projected down to id, name and status for selection widgets.
func (s *EmailListService) Pending(ctx context.Context, ownerID string) ([]models.EmailList, error) {
	return s.lists.PendingForOwner(ctx, ownerID)
}

func titleStatus(status models.ListStatus) string {
	switch status {
	case models.ListStatusVerified:
		return "Verified"
	case models.ListStatusProcessing:
		return "Processing"
	case models.ListStatusUploading:
		return "Uploading"
	case models.ListStatusUnverified:
		return "Unverified"
	default:
		return string(status)
	}
}
