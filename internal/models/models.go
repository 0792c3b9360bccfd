package models

import (
	"time"

	"gorm.io/datatypes"
)

// EmailList is one uploaded batch of addresses and its verification state.
// JobID is assigned when the batch is submitted to the provider and stays
// set for the rest of the lifecycle.
type EmailList struct {
	Base
	Name       string     `gorm:"not null" json:"name" validate:"required,min=1"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"userId"`
	User       *User      `json:"user,omitempty"`
	Status     ListStatus `gorm:"not null;default:'uploading'" json:"status" validate:"omitempty,list_status"`
	BulkVerify bool       `gorm:"default:false" json:"bulkVerify"`
	JobID      string     `gorm:"index;default:NULL" json:"jobId,omitempty"`

	TotalEmails    int `gorm:"default:0" json:"totalEmails"`
	VerifiedCount  int `gorm:"default:0" json:"verifiedCount"`
	CreditConsumed int `gorm:"default:0" json:"creditConsumed"`

	Deliverable   int `gorm:"default:0" json:"deliverable"`
	Undeliverable int `gorm:"default:0" json:"undeliverable"`
	AcceptAll     int `gorm:"default:0" json:"acceptAll"`
	Unknown       int `gorm:"default:0" json:"unknown"`

	// Key of the raw CSV archived in object storage, empty when archival
	// was unavailable at upload time.
	ArchiveKey string `gorm:"default:NULL" json:"archiveKey,omitempty"`
	SignedURL  string `gorm:"-" json:"signedUrl,omitempty"` // Virtual field
}

// TeamMember is a sharing grant: SharedBy delegates access over a set of
// email lists to Member. At most one row exists per (SharedBy, Member);
// repeated shares merge into the same row.
type TeamMember struct {
	Base
	SharedByID string      `gorm:"type:uuid;not null;uniqueIndex:idx_share_pair" json:"sharedById"`
	SharedBy   *User       `json:"sharedBy,omitempty"`
	MemberID   string      `gorm:"type:uuid;not null;uniqueIndex:idx_share_pair" json:"memberId"`
	Member     *User       `json:"member,omitempty"`
	AccessType AccessType  `gorm:"not null;default:'read'" json:"accessType" validate:"omitempty,access_type"`
	EmailLists []EmailList `gorm:"many2many:team_member_email_lists" json:"emailLists,omitempty"`
	SharedOn   time.Time   `json:"sharedOn"`
}

// Covers reports whether the grant includes the given list id.
func (t *TeamMember) Covers(listID string) bool {
	for _, l := range t.EmailLists {
		if l.ID == listID {
			return true
		}
	}
	return false
}

// VerificationRecord is an append-only credit ledger entry. Rows are never
// mutated after creation except for soft deletion.
type VerificationRecord struct {
	Base
	UserID           string         `gorm:"type:uuid;not null;index" json:"userId"`
	User             *User          `json:"user,omitempty"`
	EmailListID      string         `gorm:"type:uuid;index;default:NULL" json:"emailListId,omitempty"`
	Email            string         `json:"email,omitempty"`
	Result           string         `gorm:"default:'unknown'" json:"result"`
	Summary          string         `json:"summary,omitempty"`
	Source           RecordSource   `gorm:"not null;default:'single'" json:"source" validate:"omitempty,record_source"`
	CreditsUsed      int            `gorm:"default:0" json:"creditsUsed"`
	CreditsPurchased int            `gorm:"default:0" json:"creditsPurchased"`
	Data             datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"` // raw provider payload
}
