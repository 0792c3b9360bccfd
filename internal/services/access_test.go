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

func TestAccessResolver_Resolve_Owner(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "list-1").Return(&models.EmailList{
		Base:   models.Base{ID: "list-1"},
		UserID: "owner-1",
	}, nil)

	access, err := resolver.Resolve(context.Background(), "list-1", "owner-1", true)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", access.OwnerID)
	assert.True(t, access.CanWrite)
	grants.AssertNotCalled(t, "FindForMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccessResolver_Resolve_SharedWriteReturnsGrantor(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "list-1").Return(&models.EmailList{
		Base:   models.Base{ID: "list-1"},
		UserID: "owner-1",
	}, nil)
	grants.On("FindForMember", mock.Anything, "member-1", "list-1").Return(&models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeWrite,
		EmailLists: []models.EmailList{{Base: models.Base{ID: "list-1"}}},
	}, nil)

	access, err := resolver.Resolve(context.Background(), "list-1", "member-1", true)
	require.NoError(t, err)

	// Attribution always lands on the grantor, not the acting member.
	assert.Equal(t, "owner-1", access.OwnerID)
	assert.True(t, access.CanWrite)
}

func TestAccessResolver_Resolve_ReadGrantDeniedForWrite(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "list-1").Return(&models.EmailList{
		Base:   models.Base{ID: "list-1"},
		UserID: "owner-1",
	}, nil)
	grants.On("FindForMember", mock.Anything, "member-1", "list-1").Return(&models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeRead,
		EmailLists: []models.EmailList{{Base: models.Base{ID: "list-1"}}},
	}, nil)

	_, err := resolver.Resolve(context.Background(), "list-1", "member-1", true)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	access, err := resolver.Resolve(context.Background(), "list-1", "member-1", false)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", access.OwnerID)
	assert.False(t, access.CanWrite)
}

func TestAccessResolver_Resolve_DetachedListDenied(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "list-1").Return(&models.EmailList{
		Base:   models.Base{ID: "list-1"},
		UserID: "owner-1",
	}, nil)
	// Grant loaded without the list in its set, as after a racing delete.
	grants.On("FindForMember", mock.Anything, "member-1", "list-1").Return(&models.TeamMember{
		SharedByID: "owner-1",
		MemberID:   "member-1",
		AccessType: models.AccessTypeWrite,
		EmailLists: []models.EmailList{{Base: models.Base{ID: "list-2"}}},
	}, nil)

	_, err := resolver.Resolve(context.Background(), "list-1", "member-1", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAccessResolver_Resolve_NoGrant(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "list-1").Return(&models.EmailList{
		Base:   models.Base{ID: "list-1"},
		UserID: "owner-1",
	}, nil)
	grants.On("FindForMember", mock.Anything, "stranger", "list-1").Return(nil, store.ErrNotFound)

	_, err := resolver.Resolve(context.Background(), "list-1", "stranger", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAccessResolver_Resolve_ListMissing(t *testing.T) {
	lists := new(MockListStore)
	grants := new(MockGrantStore)
	resolver := newTestResolver(t, lists, grants)

	lists.On("GetByID", mock.Anything, "gone").Return(nil, store.ErrNotFound)

	_, err := resolver.Resolve(context.Background(), "gone", "owner-1", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccessResolver_Resolve_MissingIDs(t *testing.T) {
	resolver := newTestResolver(t, new(MockListStore), new(MockGrantStore))

	_, err := resolver.Resolve(context.Background(), "", "owner-1", false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = resolver.Resolve(context.Background(), "list-1", "", false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
