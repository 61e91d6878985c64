package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	db *DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user entity.User) (entity.User, error) {
	user.ID = 0
	if err := r.db.Write(ctx).Create(&user).Error; err != nil {
		return entity.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (entity.User, error) {
	var user entity.User
	if err := r.db.Read(ctx).First(&user, "id = ?", id).Error; err != nil {
		return entity.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	var user entity.User
	if err := r.db.Read(ctx).First(&user, "email = ?", email).Error; err != nil {
		return entity.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]entity.User, error) {
	users := make([]entity.User, 0)
	if err := r.db.Read(ctx).
		Where("status = ?", true).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id uint, patch entity.UserPatch) (entity.User, error) {
	current, err := r.getForWrite(ctx, id)
	if err != nil {
		return entity.User{}, err
	}
	if patch.Empty() {
		return current, nil
	}
	if err := r.db.Write(ctx).
		Model(&current).
		Updates(patch.Columns()).Error; err != nil {
		return entity.User{}, translate(err)
	}
	return r.getForWrite(ctx, id)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.Write(ctx).Delete(&entity.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.Write(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&entity.User{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// getForWrite reads from the primary so a follow-up read sees the row just written.
func (r *UserRepository) getForWrite(ctx context.Context, id uint) (entity.User, error) {
	var user entity.User
	if err := r.db.Write(ctx).First(&user, "id = ?", id).Error; err != nil {
		return entity.User{}, translate(err)
	}
	return user, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrUserNotFound
	case isUniqueViolation(err):
		return repository.ErrEmailTaken
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
