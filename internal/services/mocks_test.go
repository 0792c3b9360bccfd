package services

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"mailproof/internal/models"
	"mailproof/internal/provider"
	"mailproof/internal/store"
)

// MockListStore mocks the store.ListStore interface
type MockListStore struct {
	mock.Mock
}

func (m *MockListStore) Create(ctx context.Context, list *models.EmailList) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *MockListStore) GetByID(ctx context.Context, id string) (*models.EmailList, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailList), args.Error(1)
}

func (m *MockListStore) GetByJobID(ctx context.Context, jobID, ownerID string) (*models.EmailList, error) {
	args := m.Called(ctx, jobID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailList), args.Error(1)
}

func (m *MockListStore) UpdateIfStatus(ctx context.Context, id string, expected models.ListStatus, updates map[string]interface{}) error {
	args := m.Called(ctx, id, expected, updates)
	return args.Error(0)
}

func (m *MockListStore) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListStore) List(ctx context.Context, q store.ListQuery) ([]models.EmailList, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.EmailList), args.Get(1).(int64), args.Error(2)
}

func (m *MockListStore) StatusCounts(ctx context.Context, ownerID string, sharedIDs []string) (map[models.ListStatus]int64, error) {
	args := m.Called(ctx, ownerID, sharedIDs)
	return args.Get(0).(map[models.ListStatus]int64), args.Error(1)
}

func (m *MockListStore) PendingForOwner(ctx context.Context, ownerID string) ([]models.EmailList, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.EmailList), args.Error(1)
}

func (m *MockListStore) ActiveCount(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGrantStore mocks the store.GrantStore interface
type MockGrantStore struct {
	mock.Mock
}

func (m *MockGrantStore) Get(ctx context.Context, sharedByID, memberID string) (*models.TeamMember, error) {
	args := m.Called(ctx, sharedByID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockGrantStore) FindForMember(ctx context.Context, memberID, listID string) (*models.TeamMember, error) {
	args := m.Called(ctx, memberID, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockGrantStore) ListForMember(ctx context.Context, memberID string) ([]models.TeamMember, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockGrantStore) ListForOwner(ctx context.Context, sharedByID string) ([]models.TeamMember, error) {
	args := m.Called(ctx, sharedByID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockGrantStore) Save(ctx context.Context, grant *models.TeamMember, listIDs []string) error {
	args := m.Called(ctx, grant, listIDs)
	return args.Error(0)
}

func (m *MockGrantStore) Delete(ctx context.Context, sharedByID, memberID string) error {
	args := m.Called(ctx, sharedByID, memberID)
	return args.Error(0)
}

func (m *MockGrantStore) UpdateAccessType(ctx context.Context, sharedByID, memberID string, accessType models.AccessType) error {
	args := m.Called(ctx, sharedByID, memberID, accessType)
	return args.Error(0)
}

func (m *MockGrantStore) DetachList(ctx context.Context, listID string) error {
	args := m.Called(ctx, listID)
	return args.Error(0)
}

// MockRecordStore mocks the store.RecordStore interface
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Append(ctx context.Context, record *models.VerificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordStore) Aggregate(ctx context.Context, userID string) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockProvider mocks the BulkProvider and CreditProvider interfaces
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SubmitBatch(ctx context.Context, filename string, file io.Reader) (string, json.RawMessage, error) {
	args := m.Called(ctx, filename, file)
	return args.String(0), args.Get(1).(json.RawMessage), args.Error(2)
}

func (m *MockProvider) StartJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockProvider) GetJobStatus(ctx context.Context, jobID string) (*provider.JobStatus, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.JobStatus), args.Error(1)
}

func (m *MockProvider) DownloadResults(ctx context.Context, jobID string, filters []string) (io.ReadCloser, error) {
	args := m.Called(ctx, jobID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockProvider) DeleteJob(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockProvider) VerifySingle(ctx context.Context, email string) (*provider.SingleResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SingleResult), args.Error(1)
}

func (m *MockProvider) CreditBalance(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// newTestResolver wires an AccessResolver over the given mocks
func newTestResolver(t *testing.T, lists *MockListStore, grants *MockGrantStore) *AccessResolver {
	t.Helper()
	return NewAccessResolver(lists, grants)
}
