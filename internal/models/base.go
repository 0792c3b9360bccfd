package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index;default:NULL" json:"-" validate:"omitempty"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// IsDeleted reports whether the row has been soft-deleted
func (base *Base) IsDeleted() bool {
	return base.DeletedAt != nil
}

// ListStatus tracks an email list through its verification lifecycle
type ListStatus string

const (
	ListStatusUploading  ListStatus = "uploading"
	ListStatusUnverified ListStatus = "unverified"
	ListStatusProcessing ListStatus = "processing"
	ListStatusVerified   ListStatus = "verified"
)

// ExpectedListStatuses is the display order used by the status histogram
var ExpectedListStatuses = []ListStatus{
	ListStatusVerified,
	ListStatusProcessing,
	ListStatusUploading,
	ListStatusUnverified,
}

type AccessType string

const (
	AccessTypeRead  AccessType = "read"
	AccessTypeWrite AccessType = "write"
)

// RecordSource classifies a credit ledger entry
type RecordSource string

const (
	RecordSourceSingle   RecordSource = "single"
	RecordSourceBulk     RecordSource = "bulk"
	RecordSourcePurchase RecordSource = "credit_purchase"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

// IsValidAccessType checks if a given access type is valid
func IsValidAccessType(t AccessType) bool {
	switch t {
	case AccessTypeRead, AccessTypeWrite:
		return true
	default:
		return false
	}
}

// IsValidListStatus checks if a given lifecycle status is valid
func IsValidListStatus(s ListStatus) bool {
	switch s {
	case ListStatusUploading, ListStatusUnverified, ListStatusProcessing, ListStatusVerified:
		return true
	default:
		return false
	}
}
