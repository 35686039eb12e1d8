package db

import (
	"context"
	"fmt"
)

// TryAcquireAdvisoryLock attempts a non-blocking session advisory lock. Used
// to serialize the request pipeline stages across worker instances.
//
// Session locks belong to the Postgres session that took them, so the lock
// is pinned to a single pooled connection for its whole lifetime; going
// through the pool for the unlock could land on a different session and leak
// the lock until the original connection dies. On success the returned
// release func unlocks on that same connection and hands it back to the pool.
func (db *DB) TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (func(context.Context) error, bool, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()

		return nil, false, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		defer conn.Release()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}

		return nil
	}

	return release, true, nil
}
