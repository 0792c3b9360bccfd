package models

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

// FileURLGenerator interface for generating signed archive URLs
type FileURLGenerator interface {
	GetSignedURL(ctx context.Context, path string, duration time.Duration) (string, error)
}

var (
	urlGenerator FileURLGenerator
	registryMu   sync.RWMutex
)

// RegisterFileURLGenerator sets the URL generator for archived batches
func RegisterFileURLGenerator(generator FileURLGenerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	urlGenerator = generator
}

func (l *EmailList) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil && l.ArchiveKey != "" {
		url, err := generator.GetSignedURL(tx.Statement.Context, l.ArchiveKey, time.Hour)
		if err != nil {
			// Archive access is advisory; a stale key must not break reads.
			log.Warn("failed to sign archive URL for list %s: %v", l.ID, err)
			return nil
		}
		l.SignedURL = url
	}
	return nil
}

// GetUserByEmail retrieves a user from the database by email
func GetUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("email = ? AND deleted_at IS NULL", email).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetEmailListByID retrieves a non-deleted email list by id
func GetEmailListByID(id string, db *gorm.DB) (*EmailList, error) {
	list := &EmailList{}
	if err := db.Where("id = ? AND deleted_at IS NULL", id).First(list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
