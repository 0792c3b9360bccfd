package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mailproof/internal/models"
	"mailproof/internal/store"
)

func TestEmailListService_List(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	svc := NewEmailListService(lists, NewShareService(grants))

	grants.On("ListForMember", mock.Anything, "owner-1").Return([]models.TeamMember{
		{EmailLists: []models.EmailList{{Base: models.Base{ID: "shared-1"}}}},
	}, nil)
	lists.On("List", mock.Anything, mock.MatchedBy(func(q store.ListQuery) bool {
		return q.OwnerID == "owner-1" &&
			len(q.SharedIDs) == 1 && q.SharedIDs[0] == "shared-1" &&
			q.Page == 1 && q.Limit == 10 &&
			q.SortBy == "createdAt" && q.SortOrder == "asc"
	})).Return([]models.EmailList{
		{Base: models.Base{ID: "list-1"}, Status: models.ListStatusVerified},
	}, int64(23), nil)
	lists.On("StatusCounts", mock.Anything, "owner-1", []string{"shared-1"}).Return(map[models.ListStatus]int64{
		models.ListStatusUnverified: 3,
		models.ListStatusProcessing: 2,
		models.ListStatusVerified:   18,
	}, nil)

	page, err := svc.List(context.Background(), "owner-1", store.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(23), page.Pagination.TotalCount)
	assert.Equal(t, 3, page.Pagination.Pages)

	// Histogram leads with the cross-status total, then the fixed order.
	require.Len(t, page.StatusSummary, len(models.ExpectedListStatuses)+1)
	assert.Equal(t, "all", page.StatusSummary[0].Value)
	assert.Equal(t, int64(23), page.StatusSummary[0].Count)
	assert.Equal(t, string(models.ListStatusVerified), page.StatusSummary[1].Value)
	assert.Equal(t, int64(18), page.StatusSummary[1].Count)
	assert.Equal(t, string(models.ListStatusUnverified), page.StatusSummary[4].Value)
	assert.Equal(t, int64(3), page.StatusSummary[4].Count)
}

func TestEmailListService_List_EmptyResult(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	svc := NewEmailListService(lists, NewShareService(grants))

	grants.On("ListForMember", mock.Anything, "owner-1").Return([]models.TeamMember{}, nil)
	lists.On("List", mock.Anything, mock.Anything).Return([]models.EmailList(nil), int64(0), nil)
	lists.On("StatusCounts", mock.Anything, "owner-1", []string(nil)).Return(map[models.ListStatus]int64{}, nil)

	page, err := svc.List(context.Background(), "owner-1", store.ListQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.Pages)
}

func TestEmailListService_Pending(t *testing.T) {
	lists := new(MockListStore)
	svc := NewEmailListService(lists, NewShareService(new(MockGrantStore)))

	lists.On("PendingForOwner", mock.Anything, "owner-1").Return([]models.EmailList{
		{Base: models.Base{ID: "list-1"}, Status: models.ListStatusProcessing, JobID: "job-1"},
		{Base: models.Base{ID: "list-2"}, Status: models.ListStatusUnverified},
	}, nil)

	pending, err := svc.Pending(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "job-1", pending[0].JobID)
}
