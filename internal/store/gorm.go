package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mailproof/internal/models"
)

var (
	_ ListStore   = (*Lists)(nil)
	_ GrantStore  = (*Grants)(nil)
	_ RecordStore = (*Records)(nil)
)

// allow-listed sort columns for list queries
var allowedSort = map[string]string{
	"name":            "name",
	"status":          "status",
	"createdAt":       "created_at",
	"created_at":      "created_at",
	"verified_count":  "verified_count",
	"total_emails":    "total_emails",
	"credit_consumed": "credit_consumed",
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Lists is the GORM-backed ListStore
type Lists struct {
	db *gorm.DB
}

func NewLists(db *gorm.DB) *Lists {
	return &Lists{db: db}
}

func (s *Lists) Create(ctx context.Context, list *models.EmailList) error {
	return s.db.WithContext(ctx).Create(list).Error
}

func (s *Lists) GetByID(ctx context.Context, id string) (*models.EmailList, error) {
	list := &models.EmailList{}
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(list).Error
	if err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// GetByJobID looks a list up by its provider job handle. An empty ownerID
// skips the owner filter.
func (s *Lists) GetByJobID(ctx context.Context, jobID, ownerID string) (*models.EmailList, error) {
	query := s.db.WithContext(ctx).Where("job_id = ? AND deleted_at IS NULL", jobID)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}
	list := &models.EmailList{}
	if err := query.First(list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// UpdateIfStatus is the compare-and-set guard for lifecycle transitions:
// the update only lands while the row still carries the expected status.
func (s *Lists) UpdateIfStatus(ctx context.Context, id string, expected models.ListStatus, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.EmailList{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (s *Lists) SoftDelete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.EmailList{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Lists) baseMatch(ctx context.Context, ownerID string, sharedIDs []string) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.EmailList{}).
		Where("deleted_at IS NULL")
	if len(sharedIDs) > 0 {
		return query.Where("user_id = ? OR id IN ?", ownerID, sharedIDs)
	}
	return query.Where("user_id = ?", ownerID)
}

func (s *Lists) List(ctx context.Context, q ListQuery) ([]models.EmailList, int64, error) {
	query := s.baseMatch(ctx, q.OwnerID, q.SharedIDs)

	if q.Status != "" && q.Status != "all" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("name ILIKE ?", "%"+q.Search+"%")
	}
	if q.MinVerified != nil {
		query = query.Where("verified_count >= ?", *q.MinVerified)
	}
	if q.MaxVerified != nil {
		query = query.Where("verified_count <= ?", *q.MaxVerified)
	}
	if q.MinTotal != nil {
		query = query.Where("total_emails >= ?", *q.MinTotal)
	}
	if q.MaxTotal != nil {
		query = query.Where("total_emails <= ?", *q.MaxTotal)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortCol, ok := allowedSort[q.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "asc"
	if q.SortOrder == "desc" {
		order = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s, id desc", sortCol, order))

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	query = query.Offset((page - 1) * limit).Limit(limit)

	var lists []models.EmailList
	if err := query.Find(&lists).Error; err != nil {
		return nil, 0, err
	}
	return lists, total, nil
}

// StatusCounts is the global histogram over the unfiltered base match
func (s *Lists) StatusCounts(ctx context.Context, ownerID string, sharedIDs []string) (map[models.ListStatus]int64, error) {
	type row struct {
		Status models.ListStatus
		Count  int64
	}
	var rows []row
	err := s.baseMatch(ctx, ownerID, sharedIDs).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ListStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// PendingForOwner returns the owner's not-yet-verified lists (name + status)
func (s *Lists) PendingForOwner(ctx context.Context, ownerID string) ([]models.EmailList, error) {
	var lists []models.EmailList
	err := s.db.WithContext(ctx).Model(&models.EmailList{}).
		Select("id, name, status").
		Where("user_id = ? AND deleted_at IS NULL AND status <> ?", ownerID, models.ListStatusVerified).
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *Lists) ActiveCount(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.EmailList{}).
		Where("user_id = ? AND deleted_at IS NULL", ownerID).
		Count(&count).Error
	return count, err
}

// Grants is the GORM-backed GrantStore
type Grants struct {
	db *gorm.DB
}

func NewGrants(db *gorm.DB) *Grants {
	return &Grants{db: db}
}

func (s *Grants) Get(ctx context.Context, sharedByID, memberID string) (*models.TeamMember, error) {
	grant := &models.TeamMember{}
	err := s.db.WithContext(ctx).
		Preload("EmailLists").
		Where("shared_by_id = ? AND member_id = ?", sharedByID, memberID).
		First(grant).Error
	if err != nil {
		return nil, translate(err)
	}
	return grant, nil
}

func (s *Grants) FindForMember(ctx context.Context, memberID, listID string) (*models.TeamMember, error) {
	grant := &models.TeamMember{}
	err := s.db.WithContext(ctx).
		Preload("EmailLists").
		Joins("JOIN team_member_email_lists tml ON tml.team_member_id = team_members.id").
		Where("team_members.member_id = ? AND tml.email_list_id = ?", memberID, listID).
		First(grant).Error
	if err != nil {
		return nil, translate(err)
	}
	return grant, nil
}

func (s *Grants) ListForMember(ctx context.Context, memberID string) ([]models.TeamMember, error) {
	var grants []models.TeamMember
	err := s.db.WithContext(ctx).
		Preload("EmailLists").
		Where("member_id = ?", memberID).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *Grants) ListForOwner(ctx context.Context, sharedByID string) ([]models.TeamMember, error) {
	var grants []models.TeamMember
	err := s.db.WithContext(ctx).
		Preload("EmailLists").
		Preload("Member").
		Where("shared_by_id = ?", sharedByID).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// Save upserts the grant row and replaces its list associations with the
// merged id set computed by the service layer.
func (s *Grants) Save(ctx context.Context, grant *models.TeamMember, listIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("EmailLists").Save(grant).Error; err != nil {
			return err
		}

		lists := make([]models.EmailList, 0, len(listIDs))
		for _, id := range listIDs {
			lists = append(lists, models.EmailList{Base: models.Base{ID: id}})
		}
		return tx.Model(grant).Association("EmailLists").Replace(lists)
	})
}

func (s *Grants) Delete(ctx context.Context, sharedByID, memberID string) error {
	grant, err := s.Get(ctx, sharedByID, memberID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(grant).Association("EmailLists").Clear(); err != nil {
			return err
		}
		return tx.Delete(grant).Error
	})
}

func (s *Grants) UpdateAccessType(ctx context.Context, sharedByID, memberID string, accessType models.AccessType) error {
	res := s.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("shared_by_id = ? AND member_id = ?", sharedByID, memberID).
		Update("access_type", accessType)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachList unlinks a list from every grant covering it. Part of the
// explicit delete cascade; keeps share resolution from seeing tombstones.
func (s *Grants) DetachList(ctx context.Context, listID string) error {
	return s.db.WithContext(ctx).
		Exec("DELETE FROM team_member_email_lists WHERE email_list_id = ?", listID).Error
}

// Records is the GORM-backed RecordStore
type Records struct {
	db *gorm.DB
}

func NewRecords(db *gorm.DB) *Records {
	return &Records{db: db}
}

func (s *Records) Append(ctx context.Context, record *models.VerificationRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// Aggregate sums credits used and purchased over non-deleted ledger rows
func (s *Records) Aggregate(ctx context.Context, userID string) (int64, int64, error) {
	type sums struct {
		Used      int64
		Purchased int64
	}
	var result sums
	err := s.db.WithContext(ctx).Model(&models.VerificationRecord{}).
		Select("COALESCE(SUM(credits_used),0) as used, COALESCE(SUM(credits_purchased),0) as purchased").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Used, result.Purchased, nil
}
