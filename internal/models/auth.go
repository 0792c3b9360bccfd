package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	Base
	Email        string         `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string         `gorm:"not null" json:"-"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Role         UserRole       `gorm:"not null;default:'member'" json:"role"`
	Timezone     string         `gorm:"default:'UTC'" json:"timezone"`
	Provider     string         `gorm:"default:'local'" json:"provider"`
	ProviderData datatypes.JSON `gorm:"type:jsonb" json:"providerData,omitempty"`

	EmailLists []EmailList          `gorm:"foreignKey:UserID" json:"emailLists,omitempty"`
	Records    []VerificationRecord `gorm:"foreignKey:UserID" json:"records,omitempty"`
}

type AuthTransaction struct {
	Base
	UserID    string    `gorm:"type:uuid;not null" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Token     string    `gorm:"not null" json:"token"`
	Refresh   string    `gorm:"not null" json:"refresh"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
}
