package chaos

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TerminateRandomBackend occasionally kills a backend connection of the test
// database so the workflow actors exercise their reconnect paths. Never kills
// its own backend.
func TerminateRandomBackend(ctx context.Context, pool *pgxpool.Pool, appLike string, stop <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(5) != 0 {
				continue
			}
			query := `SELECT pg_terminate_backend(pid) FROM pg_stat_activity
                      WHERE datname = current_database() AND pid <> pg_backend_pid()`
			if appLike != "" {
				query += ` AND application_name LIKE '%' || $1 || '%'`
				_, _ = pool.Exec(ctx, query+` ORDER BY random() LIMIT 1`, appLike)
				continue
			}
			_, _ = pool.Exec(ctx, query+` ORDER BY random() LIMIT 1`)
		}
	}
}
