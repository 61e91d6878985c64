package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is a user lifecycle event recorded by the consumer command.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	EventType string         `gorm:"not null;index"`
	MessageID *string        `gorm:"uniqueIndex"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
