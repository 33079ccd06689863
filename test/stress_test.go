package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"fleetrent/rental"
	"fleetrent/test/actors"
	"fleetrent/test/chaos"
	"fleetrent/test/infra"
	"fleetrent/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

// TestWorkflowConcurrency floods the rental workflow with concurrent
// submitters, approvers and rejectors while chaos kills database backends, and
// checks the workflow invariants every couple of seconds.
func TestWorkflowConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	rand.Seed(seed)

	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	pool := provisionDatabase(t, ctx)
	emails, vehicleIDs := mustSeed(t, ctx, pool)
	svc := rental.NewService(pool, rental.NewRepository(pool))

	g, actorCtx := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// submitters flooding requests, approvers and rejectors racing over them
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Submitter(actorCtx, svc, emails, vehicleIDs, stop) })
		g.Go(func() error { return actors.Approver(actorCtx, pool, svc, stop) })
	}
	g.Go(func() error { return actors.Rejector(actorCtx, pool, svc, stop) })
	g.Go(func() error { return actors.Browser(actorCtx, svc, emails, stop) })

	go chaos.TerminateRandomBackend(actorCtx, pool, "", stop)

	failed := watchInvariants(t, actorCtx, pool, *flDuration, seed)

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

// watchInvariants runs the oracle suite on a ticker for the given duration.
// Returns true if a violation fired (the test fails in that case).
func watchInvariants(t *testing.T, ctx context.Context, pool *pgxpool.Pool, d time.Duration, seed int64) bool {
	t.Helper()

	deadline := time.Now().Add(d)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			name, row, err := oracles.Run(ctx, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return false
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				dumpRecent(t, ctx, pool)
				t.Errorf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
				return true
			}
		}
	}
	return false
}

// provisionDatabase picks a database for the run: an explicit DSN, a Docker
// container, or a locally running PostgreSQL, in that order. The schema is
// applied on whatever it finds, isolated per run when the database is shared.
func provisionDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	var (
		pgC    *infra.PGContainer
		dsn    string
		shared bool
		err    error
	)

	switch {
	case *flDSN != "":
		dsn, shared, pgC = *flDSN, true, &infra.PGContainer{}
	case os.Getenv("FLEETRENT_TEST_PG_DSN") != "":
		dsn, shared, pgC = os.Getenv("FLEETRENT_TEST_PG_DSN"), true, &infra.PGContainer{}
	case dockerAvailable(ctx):
		pgC, dsn, err = infra.StartPostgres16(ctx, "")
		if err != nil {
			t.Fatalf("start postgres: %v", err)
		}
	default:
		dsn, err = infra.InitLocalDatabase(ctx)
		if err != nil {
			t.Skipf("no Docker and no local PostgreSQL: %v", err)
		}
		pgC = &infra.PGContainer{}
	}
	t.Cleanup(func() { pgC.Terminate(context.Background()) })

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, shared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
		pool.Close()
	})

	return pool
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

// mustSeed provisions a handful of accounts and vehicles for the actors to
// fight over. The password hash is a placeholder; nothing here logs in.
func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) (emails, vehicleIDs []string) {
	t.Helper()

	for i := 0; i < 4; i++ {
		email := fmt.Sprintf("stress-%d-%d@example.com", i, rand.Int63())
		if _, err := pool.Exec(ctx, `INSERT INTO users (email, name, password_hash, role) VALUES ($1, $2, 'x', 'user')`,
			email, fmt.Sprintf("Stress User %d", i)); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		emails = append(emails, email)
	}

	titles := []string{"City Compact", "Family Van", "Offroad SUV"}
	for i, title := range titles {
		var id string
		if err := pool.QueryRow(ctx, `INSERT INTO vehicles (title, price, seats, location, category) VALUES ($1, $2, $3, 'Central', 'Stress') RETURNING id`,
			fmt.Sprintf("%s %d", title, rand.Int63()), 80+i*40, 4+i).Scan(&id); err != nil {
			t.Fatalf("seed vehicle: %v", err)
		}
		vehicleIDs = append(vehicleIDs, id)
	}

	return emails, vehicleIDs
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	queries := map[string]string{
		"rental_requests": `SELECT id, user_id, vehicle_id, status, rejection_reason, requested_at, responded_at FROM rental_requests ORDER BY requested_at DESC LIMIT 50`,
		"rentals":         `SELECT id, request_id, user_id, vehicle_id, status, created_at FROM rentals ORDER BY created_at DESC LIMIT 50`,
	}
	for name, sql := range queries {
		rows, err := pool.Query(ctx, sql)
		if err != nil {
			t.Logf("dump %s error: %v", name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
