package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/daffahilmyf/users-api/internal/domain/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, user entity.User) (entity.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(entity.User), args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, id uint) (entity.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.User), args.Error(1)
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(entity.User), args.Error(1)
}

func (m *mockRepo) ListActive(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, id uint, patch entity.UserPatch) (entity.User, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(entity.User), args.Error(1)
}

func (m *mockRepo) DeleteByID(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishUserEvent(ctx context.Context, event entity.UserEvent) error {
	return m.Called(ctx, event).Error(0)
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newUseCase(repo *mockRepo, events *mockEvents) *User {
	log := logrus.New()
	log.SetOutput(io.Discard)
	var pub repository.EventPublisher
	if events != nil {
		pub = events
	}
	uc := NewUser(repo, pub, log)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(e entity.UserEvent) bool {
		return e.Type == eventType && e.OccurredAt.Equal(fixedNow)
	})
}

func TestCreateDefaultsStatusToTrue(t *testing.T) {
	repo := &mockRepo{}
	events := &mockEvents{}
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(entity.User{}, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u entity.User) bool {
		return u.Status != nil && *u.Status && u.MobileNo == "0123456789"
	})).Return(entity.User{ID: 7, Name: "Jane", Email: "jane@example.com"}, nil)
	events.On("PublishUserEvent", ctx, eventOfType(entity.EventUserCreated)).Return(nil)

	user, err := newUseCase(repo, events).Create(ctx, service.CreateUserInput{
		Name: "Jane", Email: "jane@example.com", MobileNo: "0123456789",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCreateKeepsExplicitFalseStatus(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()
	inactive := false

	repo.On("GetByEmail", ctx, "off@example.com").Return(entity.User{}, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u entity.User) bool {
		return u.Status != nil && !*u.Status
	})).Return(entity.User{ID: 1}, nil)

	_, err := newUseCase(repo, nil).Create(ctx, service.CreateUserInput{
		Name: "Off", Email: "off@example.com", MobileNo: "1", Status: &inactive,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := &mockRepo{}
	events := &mockEvents{}
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(entity.User{ID: 3}, nil)

	_, err := newUseCase(repo, events).Create(ctx, service.CreateUserInput{
		Name: "Jane", Email: "jane@example.com", MobileNo: "1",
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
}

func TestCreateSurfacesStoreConflict(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "race@example.com").Return(entity.User{}, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.Anything).Return(entity.User{}, repository.ErrEmailTaken)

	_, err := newUseCase(repo, nil).Create(ctx, service.CreateUserInput{Email: "race@example.com"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestCreateLookupFailure(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()
	boom := errors.New("db down")

	repo.On("GetByEmail", ctx, "jane@example.com").Return(entity.User{}, boom)

	_, err := newUseCase(repo, nil).Create(ctx, service.CreateUserInput{Email: "jane@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestCreateIgnoresPublishFailure(t *testing.T) {
	repo := &mockRepo{}
	events := &mockEvents{}
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(entity.User{}, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.Anything).Return(entity.User{ID: 1}, nil)
	events.On("PublishUserEvent", ctx, mock.Anything).Return(errors.New("nats unavailable"))

	_, err := newUseCase(repo, events).Create(ctx, service.CreateUserInput{Email: "jane@example.com"})
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestListActive(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()

	repo.On("ListActive", ctx).Return([]entity.User{{ID: 1}, {ID: 2}}, nil).Once()
	users, err := newUseCase(repo, nil).ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	repo.On("ListActive", ctx).Return(nil, errors.New("boom")).Once()
	_, err = newUseCase(repo, nil).ListActive(ctx)
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	email := "new@example.com"
	stored := entity.User{ID: 4, Email: "old@example.com"}

	t.Run("email owned by another user", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("GetByID", ctx, uint(4)).Return(stored, nil)
		repo.On("GetByEmail", ctx, email).Return(entity.User{ID: 9}, nil)

		_, err := newUseCase(repo, nil).Update(ctx, 4, entity.UserPatch{Email: &email})
		assert.ErrorIs(t, err, repository.ErrEmailTaken)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email unchanged on same user", func(t *testing.T) {
		repo := &mockRepo{}
		events := &mockEvents{}
		patch := entity.UserPatch{Email: &email}
		repo.On("GetByID", ctx, uint(4)).Return(stored, nil)
		repo.On("GetByEmail", ctx, email).Return(entity.User{ID: 4}, nil)
		repo.On("Update", ctx, uint(4), patch).Return(entity.User{ID: 4, Email: email}, nil)
		events.On("PublishUserEvent", ctx, eventOfType(entity.EventUserUpdated)).Return(nil)

		user, err := newUseCase(repo, events).Update(ctx, 4, patch)
		require.NoError(t, err)
		assert.Equal(t, email, user.Email)
		events.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := &mockRepo{}
		name := "Ghost"
		repo.On("GetByID", ctx, uint(99999)).Return(entity.User{}, repository.ErrUserNotFound)

		_, err := newUseCase(repo, nil).Update(ctx, 99999, entity.UserPatch{Name: &name})
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	t.Run("missing user wins over taken email", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("GetByID", ctx, uint(99999)).Return(entity.User{}, repository.ErrUserNotFound)

		_, err := newUseCase(repo, nil).Update(ctx, 99999, entity.UserPatch{Email: &email})
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
		repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		repo := &mockRepo{}
		boom := errors.New("db down")
		repo.On("GetByID", ctx, uint(4)).Return(entity.User{}, boom)

		_, err := newUseCase(repo, nil).Update(ctx, 4, entity.UserPatch{Email: &email})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty patch returns stored user", func(t *testing.T) {
		repo := &mockRepo{}
		events := &mockEvents{}
		repo.On("GetByID", ctx, uint(4)).Return(stored, nil)

		user, err := newUseCase(repo, events).Update(ctx, 4, entity.UserPatch{})
		require.NoError(t, err)
		assert.Equal(t, stored, user)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		events.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	})
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	events := &mockEvents{}

	repo.On("DeleteByID", ctx, uint(5)).Return(nil)
	repo.On("DeleteByID", ctx, uint(6)).Return(repository.ErrUserNotFound)
	events.On("PublishUserEvent", ctx, mock.MatchedBy(func(e entity.UserEvent) bool {
		return e.Type == entity.EventUserDeleted && e.UserID == 5
	})).Return(nil)

	uc := newUseCase(repo, events)
	require.NoError(t, uc.DeleteByID(ctx, 5))
	assert.ErrorIs(t, uc.DeleteByID(ctx, 6), repository.ErrUserNotFound)
	events.AssertNumberOfCalls(t, "PublishUserEvent", 1)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to delete", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("DeleteAll", ctx).Return(int64(0), nil)

		_, err := newUseCase(repo, nil).DeleteAll(ctx)
		assert.ErrorIs(t, err, repository.ErrNoUsers)
	})

	t.Run("deletes and reports count", func(t *testing.T) {
		repo := &mockRepo{}
		events := &mockEvents{}
		repo.On("DeleteAll", ctx).Return(int64(3), nil)
		events.On("PublishUserEvent", ctx, mock.MatchedBy(func(e entity.UserEvent) bool {
			return e.Type == entity.EventUserPurged && e.Count == 3
		})).Return(nil)

		count, err := newUseCase(repo, events).DeleteAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
		events.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("DeleteAll", ctx).Return(int64(0), errors.New("boom"))

		_, err := newUseCase(repo, nil).DeleteAll(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNoUsers)
	})
}
