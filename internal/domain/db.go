package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// The implementation owns its migration files, so callers only ever see
// these two operations plus the repositories it hands out.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
