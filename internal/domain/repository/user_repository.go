package repository

import (
	"context"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user entity.User) (entity.User, error)
	GetByID(ctx context.Context, id uint) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	ListActive(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id uint, patch entity.UserPatch) (entity.User, error)
	DeleteByID(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
}

// EventPublisher delivers user lifecycle events. Implementations must be
// safe to call when messaging is disabled.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event entity.UserEvent) error
}
