package repository

import "context"

type Store interface {
	Ping(ctx context.Context) error
	Sync(ctx context.Context) error
	Close()
}
