package persistence

import (
	"context"
	"testing"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: config.DriverSQLite})
	require.Error(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "oracle", WriteDSN: "x"})
	require.Error(t, err)
}

func TestSyncAndPing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))
	assert.True(t, db.Conn.Migrator().HasTable(&entity.User{}))
	assert.True(t, db.Conn.Migrator().HasIndex(&entity.User{}, "Email"))
	// reconciling an existing table is a no-op
	require.NoError(t, db.Sync(ctx))
}

func TestStatusColumnDefault(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Conn.Exec(
		"INSERT INTO users (name, email, mobile_no, created_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"Raw", "raw@example.com", "0123456789",
	).Error)

	var user entity.User
	require.NoError(t, db.Conn.First(&user, "email = ?", "raw@example.com").Error)
	assert.True(t, user.Active())
}

func TestNilDB(t *testing.T) {
	var db *DB
	assert.Error(t, db.Ping(context.Background()))
	assert.Error(t, db.Sync(context.Background()))
	db.Close()
}

func TestDSNHelpers(t *testing.T) {
	assert.Nil(t, splitDSNs(""))
	assert.Equal(t, []string{"a", "b"}, splitDSNs(" a , ,b"))
	assert.True(t, sameDSNs(nil, "w"))
	assert.True(t, sameDSNs([]string{"w"}, "w"))
	assert.False(t, sameDSNs([]string{"w", "r"}, "w"))

	got := normalizeDSN("postgres://u@h:5432/db?sslmode=disable")
	assert.Contains(t, got, "statement_cache_capacity=0")
	assert.Contains(t, got, "default_query_exec_mode=simple_protocol")
	assert.Equal(t, "host=h dbname=db", normalizeDSN("host=h dbname=db"))
}

func TestAuditLogRecord(t *testing.T) {
	db := newTestDB(t, &entity.AuditLog{})
	repo := NewAuditLogRepository(db)
	ctx := context.Background()
	payload := []byte(`{"type":"user.created","user_id":1}`)

	require.NoError(t, repo.Record(ctx, "user.created", "m-1", payload))
	require.NoError(t, repo.Record(ctx, "user.created", "m-1", payload), "redelivery is ignored")
	require.NoError(t, repo.Record(ctx, "user.created", "", payload))
	require.NoError(t, repo.Record(ctx, "user.created", "", payload))
	require.NoError(t, repo.Record(ctx, "user.deleted", "m-2", []byte(`{"type":"user.deleted"}`)))

	var rows []entity.AuditLog
	require.NoError(t, db.Conn.Where("event_type = ?", "user.created").Order("id ASC").Find(&rows).Error)
	assert.Len(t, rows, 3)
	assert.JSONEq(t, string(payload), string(rows[0].Payload))
}
