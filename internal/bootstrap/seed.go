package bootstrap

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/infra/persistence"
	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultSeedCount = 10
	defaultSeedBatch = 100
)

// Seed syncs the schema and inserts count fake active users.
func Seed(ctx context.Context, cfg config.Config, count, batchSize int) error {
	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Sync(ctx); err != nil {
		return err
	}
	return seedUsers(ctx, conn, log, count, batchSize)
}

func seedUsers(ctx context.Context, conn *persistence.DB, log *logrus.Logger, count, batchSize int) error {
	if count <= 0 {
		count = defaultSeedCount
	}
	if batchSize <= 0 {
		batchSize = defaultSeedBatch
	}

	start := time.Now().UTC()
	users := make([]entity.User, count)
	for i := range users {
		users[i] = fakeUser(start.Add(time.Duration(i) * time.Microsecond))
	}

	err := conn.Write(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&users, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	log.WithField("batch_size", batchSize).Infof("bootstrap: seeded %d users", count)
	return nil
}

// fakeUser builds a user that passes the API validation rules.
func fakeUser(at time.Time) entity.User {
	active := true
	return entity.User{
		Name:      faker.FirstName() + " " + faker.LastName(),
		Email:     fmt.Sprintf("seed-%s@example.com", uuid.NewString()),
		MobileNo:  fmt.Sprintf("9%09d", rand.IntN(1_000_000_000)),
		Status:    &active,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
