package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mailproof/internal/models"
	"mailproof/internal/store"
)

func TestShareService_Share_CreatesGrant(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	grants.On("Get", mock.Anything, "owner-1", "member-1").Return(nil, store.ErrNotFound).Once()
	grants.On("Save", mock.Anything, mock.MatchedBy(func(g *models.TeamMember) bool {
		return g.SharedByID == "owner-1" && g.MemberID == "member-1" && g.AccessType == models.AccessTypeRead
	}), []string{"list-1", "list-2"}).Return(nil)
	grants.On("Get", mock.Anything, "owner-1", "member-1").Return(&models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeRead,
	}, nil)

	grant, err := svc.Share(context.Background(), "owner-1", "member-1", []string{"list-1", "list-2", "list-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.AccessTypeRead, grant.AccessType)
	grants.AssertExpectations(t)
}

func TestShareService_Share_MergesExistingGrant(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	existing := &models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeRead,
		EmailLists: []models.EmailList{
			{Base: models.Base{ID: "list-1"}},
			{Base: models.Base{ID: "list-2"}},
		},
	}
	grants.On("Get", mock.Anything, "owner-1", "member-1").Return(existing, nil)
	// Union of the old set and the new ids, duplicates dropped.
	grants.On("Save", mock.Anything, mock.MatchedBy(func(g *models.TeamMember) bool {
		return g.AccessType == models.AccessTypeWrite
	}), []string{"list-1", "list-2", "list-3"}).Return(nil)

	_, err := svc.Share(context.Background(), "owner-1", "member-1", []string{"list-2", "list-3"}, models.AccessTypeWrite)
	require.NoError(t, err)
	grants.AssertExpectations(t)
}

func TestShareService_Share_PreservesAccessTypeWhenOmitted(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	existing := &models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeRead,
		EmailLists: []models.EmailList{
			{Base: models.Base{ID: "list-1"}},
		},
	}
	grants.On("Get", mock.Anything, "owner-1", "member-1").Return(existing, nil)
	// A share without an access type must not promote the read grant.
	grants.On("Save", mock.Anything, mock.MatchedBy(func(g *models.TeamMember) bool {
		return g.AccessType == models.AccessTypeRead
	}), []string{"list-1", "list-2"}).Return(nil)

	grant, err := svc.Share(context.Background(), "owner-1", "member-1", []string{"list-2"}, ParseAccessType(""))
	require.NoError(t, err)
	assert.Equal(t, models.AccessTypeRead, grant.AccessType)
	grants.AssertExpectations(t)
}

func TestShareService_Share_RejectsSelfShare(t *testing.T) {
	svc := NewShareService(new(MockGrantStore))

	_, err := svc.Share(context.Background(), "owner-1", "owner-1", []string{"list-1"}, models.AccessTypeRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShareService_Share_RejectsEmptyLists(t *testing.T) {
	svc := NewShareService(new(MockGrantStore))

	_, err := svc.Share(context.Background(), "owner-1", "member-1", nil, models.AccessTypeRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShareService_Revoke(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	grants.On("Delete", mock.Anything, "owner-1", "member-1").Return(nil)
	require.NoError(t, svc.Revoke(context.Background(), "owner-1", "member-1"))

	grants.On("Delete", mock.Anything, "owner-1", "ghost").Return(store.ErrNotFound)
	assert.ErrorIs(t, svc.Revoke(context.Background(), "owner-1", "ghost"), ErrNotFound)
}

func TestShareService_ChangeAccessType(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	grants.On("UpdateAccessType", mock.Anything, "owner-1", "member-1", models.AccessTypeWrite).Return(nil)
	grants.On("Get", mock.Anything, "owner-1", "member-1").Return(&models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeWrite,
	}, nil)

	grant, err := svc.ChangeAccessType(context.Background(), "owner-1", "member-1", models.AccessTypeWrite)
	require.NoError(t, err)
	assert.Equal(t, models.AccessTypeWrite, grant.AccessType)

	_, err = svc.ChangeAccessType(context.Background(), "owner-1", "member-1", "admin")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShareService_Stats(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	shared := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	grants.On("ListForOwner", mock.Anything, "owner-1").Return([]models.TeamMember{
		{
			Base:       models.Base{ID: "grant-1"},
			MemberID:   "member-1",
			AccessType: models.AccessTypeRead,
			SharedOn:   shared,
			Member:     &models.User{Email: "teammate@example.com"},
			EmailLists: []models.EmailList{
				{Base: models.Base{ID: "list-1"}},
				{Base: models.Base{ID: "list-2"}},
			},
		},
		{
			Base:       models.Base{ID: "grant-2"},
			MemberID:   "member-2",
			AccessType: models.AccessTypeWrite,
			SharedOn:   shared,
			EmailLists: []models.EmailList{
				{Base: models.Base{ID: "list-2"}},
			},
		},
	}, nil)
	grants.On("ListForMember", mock.Anything, "owner-1").Return([]models.TeamMember{
		{
			MemberID: "owner-1",
			EmailLists: []models.EmailList{
				{Base: models.Base{ID: "list-9"}},
			},
		},
	}, nil)

	stats, err := svc.Stats(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ListsSharedByYou)
	assert.Equal(t, 1, stats.ListsSharedWithYou)
	assert.Equal(t, 2, stats.MembersAddedByYou)
	require.Len(t, stats.Members, 2)
	assert.Equal(t, "teammate@example.com", stats.Members[0].Email)
	assert.Equal(t, 2, stats.Members[0].TotalLists)
}

func TestShareService_SharedListIDs(t *testing.T) {
	grants := new(MockGrantStore)
	svc := NewShareService(grants)

	grants.On("ListForMember", mock.Anything, "member-1").Return([]models.TeamMember{
		{EmailLists: []models.EmailList{
			{Base: models.Base{ID: "list-1"}},
			{Base: models.Base{ID: "list-2"}},
		}},
		{EmailLists: []models.EmailList{
			{Base: models.Base{ID: "list-2"}},
			{Base: models.Base{ID: "list-3"}},
		}},
	}, nil)

	ids, err := svc.SharedListIDs(context.Background(), "member-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"list-1", "list-2", "list-3"}, ids)
}

func TestParseAccessType(t *testing.T) {
	assert.Equal(t, models.AccessTypeRead, ParseAccessType("Read only"))
	assert.Equal(t, models.AccessTypeRead, ParseAccessType("read"))
	assert.Equal(t, models.AccessTypeWrite, ParseAccessType("Write access"))
	assert.Equal(t, models.AccessType(""), ParseAccessType(""))
	assert.Equal(t, models.AccessType(""), ParseAccessType("   "))
}
