package models

import (
	"mailproof/internal/events"

	console "mailproof/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("MODELS")

func (l *EmailList) AfterCreate(tx *gorm.DB) error {
	events.Emit("list.created", l)
	return nil
}

func (t *TeamMember) AfterSave(tx *gorm.DB) error {
	log.Info("Share grant saved %s -> %s (%s)", t.SharedByID, t.MemberID, t.AccessType)
	events.Emit("list.shared", t)
	return nil
}
