package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gorm.io/datatypes"

	"mailproof/internal/events"
	"mailproof/internal/models"
	"mailproof/internal/provider"
	"mailproof/internal/store"
	"mailproof/internal/utils/logger"
)

// BulkProvider is the external verification API consumed by the lifecycle
// controller. Implemented by provider.Bouncify.
type BulkProvider interface {
	SubmitBatch(ctx context.Context, filename string, file io.Reader) (string, json.RawMessage, error)
	StartJob(ctx context.Context, jobID string) (json.RawMessage, error)
	GetJobStatus(ctx context.Context, jobID string) (*provider.JobStatus, error)
	DownloadResults(ctx context.Context, jobID string, filters []string) (io.ReadCloser, error)
	DeleteJob(ctx context.Context, jobID string) error
	VerifySingle(ctx context.Context, email string) (*provider.SingleResult, error)
}

// BatchArchiver stores raw uploaded batches for later resubmission
type BatchArchiver interface {
	UploadBatch(ctx context.Context, content []byte, filename string) (string, error)
	FetchBatch(ctx context.Context, key string) ([]byte, error)
}

// PollEnqueuer schedules a follow-up status poll after a job starts
type PollEnqueuer interface {
	EnqueuePoll(listID, actorID string) error
}

// VerifyService drives an email list through the bulk verification
// lifecycle: upload, start, poll, download, delete. Mutating transitions
// are serialized per list and committed with a status-guarded update, so
// concurrent calls against the same list either queue up or fail with
// ErrConflict instead of applying stale counters.
type VerifyService struct {
	lists    store.ListStore
	grants   store.GrantStore
	records  store.RecordStore
	resolver *AccessResolver
	provider BulkProvider
	archive  BatchArchiver // optional
	enqueuer PollEnqueuer  // optional
	log      *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewVerifyService(lists store.ListStore, grants store.GrantStore, records store.RecordStore, resolver *AccessResolver, bulk BulkProvider) *VerifyService {
	return &VerifyService{
		lists:    lists,
		grants:   grants,
		records:  records,
		resolver: resolver,
		provider: bulk,
		log:      logger.New("verify_service"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithArchive enables raw batch archival in object storage
func (s *VerifyService) WithArchive(archive BatchArchiver) *VerifyService {
	s.archive = archive
	return s
}

// WithEnqueuer enables automatic poll scheduling after Start
func (s *VerifyService) WithEnqueuer(enqueuer PollEnqueuer) *VerifyService {
	s.enqueuer = enqueuer
	return s
}

// lockList serializes lifecycle transitions per list id. Reads and
// downloads do not take the lock.
func (s *VerifyService) lockList(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// releaseList drops the per-list mutex entry once the list is tombstoned,
// so the lock map does not grow with every deleted list. Waiters already
// holding the old mutex still serialize against the deleting call; any
// later transition reloads the list and sees the tombstone.
func (s *VerifyService) releaseList(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// CountRows counts the data rows of a CSV payload, excluding the header
func CountRows(content []byte) int {
	rows := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	if rows > 0 {
		rows--
	}
	return rows
}

// Upload accepts a raw CSV batch and creates the list in its initial
// state. No provider call happens here; the job is created lazily at
// Start from the archived batch.
func (s *VerifyService) Upload(ctx context.Context, ownerID, name, filename string, file io.Reader) (*models.EmailList, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidArgument)
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable file: %v", ErrInvalidArgument, err)
	}
	if name == "" {
		name = filename
	}
	if name == "" {
		return nil, fmt.Errorf("%w: list name is required", ErrInvalidArgument)
	}

	list := &models.EmailList{
		Name:        name,
		UserID:      ownerID,
		Status:      models.ListStatusUploading,
		BulkVerify:  true,
		TotalEmails: CountRows(content),
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": models.ListStatusUnverified}
	if s.archive != nil {
		key, err := s.archive.UploadBatch(ctx, content, filename)
		if err != nil {
			s.log.Warn("batch archive failed for list %s: %v", list.ID, err)
		} else {
			updates["archive_key"] = key
		}
	}

	if err := s.lists.UpdateIfStatus(ctx, list.ID, models.ListStatusUploading, updates); err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.Success("List %q uploaded: %d emails", list.Name, list.TotalEmails)
	return s.lists.GetByID(ctx, list.ID)
}

// locate finds the list for a (jobID, listID) pair; at least one of the
// two must identify a non-deleted list. Ownership has not been checked yet
// when this returns.
func (s *VerifyService) locate(ctx context.Context, jobID, listID string) (*models.EmailList, error) {
	if listID != "" {
		list, err := s.lists.GetByID(ctx, listID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: email list %s", ErrNotFound, listID)
			}
			return nil, err
		}
		return list, nil
	}
	if jobID != "" {
		list, err := s.lists.GetByJobID(ctx, jobID, "")
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no list for job %s", ErrNotFound, jobID)
			}
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("%w: jobId or listId is required", ErrInvalidArgument)
}

// StartResult is returned by Start for the boundary layer
type StartResult struct {
	List     *models.EmailList `json:"emailList"`
	Provider json.RawMessage   `json:"bouncify,omitempty"`
}

// Start submits the list's batch to the provider (when no job exists yet)
// and begins remote processing. The full expected cost is reserved on the
// resolved owner's ledger up front and reconciled later by Poll.
func (s *VerifyService) Start(ctx context.Context, actorID, jobID, listID string) (*StartResult, error) {
	list, err := s.locate(ctx, jobID, listID)
	if err != nil {
		return nil, err
	}

	access, err := s.resolver.Resolve(ctx, list.ID, actorID, true)
	if err != nil {
		return nil, err
	}

	unlock := s.lockList(list.ID)
	defer unlock()

	// Reload under the lock; a concurrent Start may have won the race.
	list, err = s.lists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, translateStore(err)
	}
	if list.Status != models.ListStatusUnverified {
		return nil, fmt.Errorf("%w: list is %s", ErrConflict, list.Status)
	}

	resolvedJobID := jobID
	if resolvedJobID == "" {
		resolvedJobID = list.JobID
	}
	if resolvedJobID == "" {
		resolvedJobID, err = s.submitArchived(ctx, list)
		if err != nil {
			return nil, err
		}
	}
	if resolvedJobID == "" {
		return nil, fmt.Errorf("%w: no jobId associated with this list", ErrInvalidArgument)
	}

	ack, err := s.provider.StartJob(ctx, resolvedJobID)
	if err != nil {
		return nil, err
	}

	// Reservation: the whole batch is debited at start and reconciled
	// against the remote total on later polls.
	err = s.lists.UpdateIfStatus(ctx, list.ID, models.ListStatusUnverified, map[string]interface{}{
		"status":          models.ListStatusProcessing,
		"job_id":          resolvedJobID,
		"credit_consumed": list.TotalEmails,
	})
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, ErrConflict
		}
		return nil, err
	}

	record := &models.VerificationRecord{
		UserID:      access.OwnerID,
		EmailListID: list.ID,
		Source:      models.RecordSourceBulk,
		Summary:     "Bulk verification started",
		CreditsUsed: list.TotalEmails,
		Data:        datatypes.JSON(ack),
	}
	if err := s.records.Append(ctx, record); err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueuePoll(list.ID, actorID); err != nil {
			s.log.Warn("failed to enqueue status poll for list %s: %v", list.ID, err)
		}
	}

	list, err = s.lists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, translateStore(err)
	}
	s.log.Success("Bulk verification started for list %s (job %s)", list.ID, resolvedJobID)
	events.Emit("list.started", list)
	return &StartResult{List: list, Provider: ack}, nil
}

func (s *VerifyService) submitArchived(ctx context.Context, list *models.EmailList) (string, error) {
	if s.archive == nil || list.ArchiveKey == "" {
		return "", nil
	}
	content, err := s.archive.FetchBatch(ctx, list.ArchiveKey)
	if err != nil {
		return "", fmt.Errorf("%w: archived batch unavailable: %v", ErrInvalidArgument, err)
	}
	jobID, _, err := s.provider.SubmitBatch(ctx, list.Name+".csv", bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// PollResult is returned by Poll for the boundary layer
type PollResult struct {
	List   *models.EmailList   `json:"emailList"`
	Remote *provider.JobStatus `json:"bouncify"`
}

// Poll fetches the remote job state and syncs local counters. The update
// is guarded by the status observed under the lock, so repeated polls
// converge instead of double-counting.
func (s *VerifyService) Poll(ctx context.Context, actorID, jobID, listID string) (*PollResult, error) {
	list, err := s.locate(ctx, jobID, listID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.Resolve(ctx, list.ID, actorID, true); err != nil {
		return nil, err
	}

	unlock := s.lockList(list.ID)
	defer unlock()

	list, err = s.lists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, translateStore(err)
	}
	if list.JobID == "" {
		return nil, fmt.Errorf("%w: no jobId associated with this list", ErrInvalidArgument)
	}

	remote, err := s.provider.GetJobStatus(ctx, list.JobID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"verified_count": remote.VerifiedEmails(),
		"deliverable":    remote.Results.Deliverable,
		"undeliverable":  remote.Results.Undeliverable,
		"accept_all":     remote.Results.AcceptAll,
		"unknown":        remote.Results.Unknown,
	}
	if remote.Completed() {
		updates["status"] = models.ListStatusVerified
	}
	if remote.Total > 0 {
		if list.TotalEmails == 0 {
			updates["total_emails"] = remote.Total
		}
		// Reconcile the start-time reservation against actual usage,
		// never exceeding the known batch size.
		consumed := remote.Total
		if list.TotalEmails > 0 && consumed > list.TotalEmails {
			consumed = list.TotalEmails
		}
		updates["credit_consumed"] = consumed
	}

	if err := s.lists.UpdateIfStatus(ctx, list.ID, list.Status, updates); err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, ErrConflict
		}
		return nil, err
	}

	list, err = s.lists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, translateStore(err)
	}
	if list.Status == models.ListStatusVerified {
		events.Emit("list.verified", list)
	}
	return &PollResult{List: list, Remote: remote}, nil
}

// Download streams the filtered result rows. Read access suffices and no
// local state changes.
func (s *VerifyService) Download(ctx context.Context, actorID, jobID, listID, filter string) (io.ReadCloser, string, error) {
	list, err := s.locate(ctx, jobID, listID)
	if err != nil {
		return nil, "", err
	}

	if _, err := s.resolver.Resolve(ctx, list.ID, actorID, false); err != nil {
		return nil, "", err
	}
	if list.JobID == "" {
		return nil, "", fmt.Errorf("%w: no jobId associated with this list", ErrInvalidArgument)
	}

	body, err := s.provider.DownloadResults(ctx, list.JobID, provider.ResultFilters(filter))
	if err != nil {
		return nil, "", err
	}
	return body, fmt.Sprintf("bouncify_%s.csv", list.JobID), nil
}

// Delete tombstones the list and detaches it from every grant. The remote
// job deletion is best-effort: a failed provider call is logged and the
// local tombstone still commits, so no undeletable orphan can remain.
func (s *VerifyService) Delete(ctx context.Context, actorID, jobID, listID string) (*models.EmailList, error) {
	list, err := s.locate(ctx, jobID, listID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.Resolve(ctx, list.ID, actorID, true); err != nil {
		return nil, err
	}

	unlock := s.lockList(list.ID)
	defer unlock()

	resolvedJobID := jobID
	if resolvedJobID == "" {
		resolvedJobID = list.JobID
	}
	if resolvedJobID != "" {
		if err := s.provider.DeleteJob(ctx, resolvedJobID); err != nil {
			s.log.Warn("remote delete failed for job %s, tombstoning anyway: %v", resolvedJobID, err)
		}
	}

	if err := s.lists.SoftDelete(ctx, list.ID); err != nil {
		return nil, translateStore(err)
	}
	// Explicit cascade: grants must stop covering the tombstoned list.
	// Ledger rows stay untouched; history survives deletion.
	if err := s.grants.DetachList(ctx, list.ID); err != nil {
		return nil, err
	}

	s.releaseList(list.ID)

	s.log.Info("List %s deleted", list.ID)
	events.Emit("list.deleted", list.ID)
	return list, nil
}

// VerifySingle runs a synchronous one-address check and appends the
// 1-credit ledger entry for it.
func (s *VerifyService) VerifySingle(ctx context.Context, ownerID, email string) (*models.VerificationRecord, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}

	result, err := s.provider.VerifySingle(ctx, email)
	if err != nil {
		return nil, err
	}

	record := &models.VerificationRecord{
		UserID:      ownerID,
		Email:       result.Email,
		Result:      result.Result,
		Summary:     "Email Address",
		Source:      models.RecordSourceSingle,
		CreditsUsed: 1,
		Data:        datatypes.JSON(result.Raw),
	}
	if err := s.records.Append(ctx, record); err != nil {
		return nil, err
	}

	s.log.Success("Single email verified: %s -> %s", email, result.Result)
	return record, nil
}

func translateStore(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
