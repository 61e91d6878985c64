package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/daffahilmyf/users-api/internal/domain/service"
	"github.com/sirupsen/logrus"
)

type User struct {
	repo   repository.UserRepository
	events repository.EventPublisher
	log    *logrus.Logger
	now    func() time.Time
}

var _ service.UserService = (*User)(nil)

// NewUser builds the user use case. events may be nil.
func NewUser(repo repository.UserRepository, events repository.EventPublisher, log *logrus.Logger) *User {
	return &User{repo: repo, events: events, log: log, now: time.Now}
}

func (u *User) Create(ctx context.Context, in service.CreateUserInput) (entity.User, error) {
	if err := u.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return entity.User{}, err
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}
	user, err := u.repo.Create(ctx, entity.User{
		Name:     in.Name,
		Email:    in.Email,
		MobileNo: in.MobileNo,
		Status:   &status,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrEmailTaken) {
			u.log.WithError(err).Error("create user failed")
		}
		return entity.User{}, err
	}

	u.publish(ctx, entity.UserEvent{Type: entity.EventUserCreated, UserID: user.ID, User: &user})
	return user, nil
}

func (u *User) ListActive(ctx context.Context) ([]entity.User, error) {
	users, err := u.repo.ListActive(ctx)
	if err != nil {
		u.log.WithError(err).Error("list users failed")
		return nil, err
	}
	return users, nil
}

// Update applies patch to an existing user. A missing id wins over any field
// conflict, and an empty patch returns the stored row untouched.
func (u *User) Update(ctx context.Context, id uint, patch entity.UserPatch) (entity.User, error) {
	current, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			u.log.WithError(err).WithField("user_id", id).Error("user lookup failed")
		}
		return entity.User{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	if patch.Email != nil {
		if err := u.ensureEmailFree(ctx, *patch.Email, id); err != nil {
			return entity.User{}, err
		}
	}

	user, err := u.repo.Update(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) && !errors.Is(err, repository.ErrEmailTaken) {
			u.log.WithError(err).WithField("user_id", id).Error("update user failed")
		}
		return entity.User{}, err
	}

	u.publish(ctx, entity.UserEvent{Type: entity.EventUserUpdated, UserID: user.ID, User: &user})
	return user, nil
}

func (u *User) DeleteByID(ctx context.Context, id uint) error {
	if err := u.repo.DeleteByID(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			u.log.WithError(err).WithField("user_id", id).Error("delete user failed")
		}
		return err
	}
	u.publish(ctx, entity.UserEvent{Type: entity.EventUserDeleted, UserID: id})
	return nil
}

func (u *User) DeleteAll(ctx context.Context) (int64, error) {
	count, err := u.repo.DeleteAll(ctx)
	if err != nil {
		u.log.WithError(err).Error("delete all users failed")
		return 0, err
	}
	if count == 0 {
		return 0, repository.ErrNoUsers
	}
	u.publish(ctx, entity.UserEvent{Type: entity.EventUserPurged, Count: count})
	return count, nil
}

// ensureEmailFree fails with ErrEmailTaken when another user owns email.
// selfID is the user being updated, zero on create.
func (u *User) ensureEmailFree(ctx context.Context, email string, selfID uint) error {
	existing, err := u.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	case err != nil:
		u.log.WithError(err).Error("email lookup failed")
		return err
	case existing.ID == selfID:
		return nil
	}
	return repository.ErrEmailTaken
}

func (u *User) publish(ctx context.Context, event entity.UserEvent) {
	if u.events == nil {
		return
	}
	event.OccurredAt = u.now().UTC()
	if err := u.events.PublishUserEvent(ctx, event); err != nil {
		u.log.WithError(err).WithField("event", event.Type).Warn("publish user event failed")
	}
}
