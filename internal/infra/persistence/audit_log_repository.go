package persistence

import (
	"context"
	"time"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

type AuditLogRepository struct {
	db *DB
}

func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Record stores one delivered event. Redeliveries of the same message id
// are ignored; events without an id are always stored.
func (r *AuditLogRepository) Record(ctx context.Context, eventType, messageID string, payload []byte) error {
	row := entity.AuditLog{
		EventType: eventType,
		Payload:   datatypes.JSON(payload),
		CreatedAt: time.Now().UTC(),
	}
	if messageID != "" {
		row.MessageID = &messageID
	}
	return r.db.Write(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(&row).Error
}
