package bootstrap

import (
	"context"

	"github.com/daffahilmyf/users-api/internal/config"
)

// Sync creates or reconciles the users table and exits.
func Sync(ctx context.Context, cfg config.Config) error {
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
	log.Info("bootstrap: schema synced")
	return nil
}
