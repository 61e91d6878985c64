package persistence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

type Config struct {
	Driver          string
	WriteDSN        string
	ReadDSN         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	// Models are migrated by Sync. Defaults to the users table.
	Models []any
}

// ConfigFrom maps the database section of the application config.
func ConfigFrom(cfg config.Database) Config {
	return Config{
		Driver:          cfg.Driver,
		WriteDSN:        cfg.WriteDSN,
		ReadDSN:         cfg.ReadDSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	}
}

type DB struct {
	Conn   *gorm.DB
	models []any
}

var _ repository.Store = (*DB)(nil)

func New(_ context.Context, cfg Config) (*DB, error) {
	if cfg.WriteDSN == "" {
		return nil, errors.New("db: WriteDSN is required")
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		gdb, err = gorm.Open(sqlite.Open(cfg.WriteDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
	case config.DriverPostgres, "":
		gdb, err = openPostgres(cfg, gormCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverSQLite {
		// a pooled in-memory sqlite database is private to each connection
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(int(cfg.MinConns))
	}
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}

	models := cfg.Models
	if len(models) == 0 {
		models = []any{&entity.User{}}
	}
	return &DB{Conn: gdb, models: models}, nil
}

func openPostgres(cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	writeDSN := normalizeDSN(cfg.WriteDSN)
	writeDialector := postgres.New(postgres.Config{
		DSN:                  writeDSN,
		PreferSimpleProtocol: true,
	})
	gdb, err := gorm.Open(writeDialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("db: open postgres: %w", err)
	}

	readDSNs := splitDSNs(cfg.ReadDSN)
	for i := range readDSNs {
		readDSNs[i] = normalizeDSN(readDSNs[i])
	}
	if sameDSNs(readDSNs, writeDSN) {
		return gdb, nil
	}

	replicas := make([]gorm.Dialector, 0, len(readDSNs))
	for _, dsn := range readDSNs {
		replicas = append(replicas, postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}))
	}
	resolver := dbresolver.Register(dbresolver.Config{
		Sources:  []gorm.Dialector{writeDialector},
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	})
	if cfg.MaxConns > 0 {
		resolver = resolver.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		resolver = resolver.SetMaxIdleConns(int(cfg.MinConns))
	}
	if cfg.MaxConnLifetime > 0 {
		resolver = resolver.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime > 0 {
		resolver = resolver.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}
	if err := gdb.Use(resolver); err != nil {
		return nil, fmt.Errorf("db: register replicas: %w", err)
	}
	return gdb, nil
}

// Sync creates or reconciles the tables for the configured models.
func (db *DB) Sync(ctx context.Context) error {
	if db == nil || db.Conn == nil {
		return errors.New("db: gorm connection is not initialized")
	}
	if err := db.Conn.WithContext(ctx).AutoMigrate(db.models...); err != nil {
		return fmt.Errorf("db: sync: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	if db == nil || db.Conn == nil {
		return
	}
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.Conn == nil {
		return errors.New("db: gorm connection is not initialized")
	}
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Write(ctx context.Context) *gorm.DB {
	return db.Conn.WithContext(ctx).Clauses(dbresolver.Write)
}

func (db *DB) Read(ctx context.Context) *gorm.DB {
	return db.Conn.WithContext(ctx).Clauses(dbresolver.Read)
}

func splitDSNs(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sameDSNs(readDSNs []string, writeDSN string) bool {
	for _, dsn := range readDSNs {
		if dsn != writeDSN {
			return false
		}
	}
	return true
}

func normalizeDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.Scheme == "" {
		return dsn
	}
	q := parsed.Query()
	if q.Get("statement_cache_capacity") == "" {
		q.Set("statement_cache_capacity", "0")
	}
	if q.Get("default_query_exec_mode") == "" {
		q.Set("default_query_exec_mode", "simple_protocol")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
