package service

import (
	"context"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
)

type CreateUserInput struct {
	Name     string
	Email    string
	MobileNo string
	Status   *bool
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (entity.User, error)
	ListActive(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id uint, patch entity.UserPatch) (entity.User, error)
	DeleteByID(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
}
