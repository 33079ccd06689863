package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is an invariant expressed as a query that must return zero rows.
type Oracle struct {
	Name string
	SQL  string
}

// All returns the workflow invariants checked during stress runs. Each query
// selects violating rows, so any result is a failure.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_rental_per_request",
			SQL: `SELECT request_id, COUNT(*) FROM rentals
                  GROUP BY request_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_rental_only_for_accepted",
			SQL: `SELECT r.id, q.status FROM rentals r
                  JOIN rental_requests q ON q.id = r.request_id
                  WHERE q.status <> 'accepted'`,
		},
		{
			Name: "O3_accepted_request_has_rental",
			SQL: `SELECT q.id FROM rental_requests q
                  WHERE q.status = 'accepted'
                    AND NOT EXISTS (SELECT 1 FROM rentals r WHERE r.request_id = q.id)`,
		},
		{
			Name: "O4_settled_request_has_responded_at",
			SQL: `SELECT id, status FROM rental_requests
                  WHERE status <> 'pending' AND responded_at IS NULL`,
		},
		{
			Name: "O5_pending_request_unsettled",
			SQL: `SELECT id FROM rental_requests
                  WHERE status = 'pending'
                    AND (responded_at IS NOT NULL OR rejection_reason IS NOT NULL)`,
		},
		{
			Name: "O6_reason_only_on_rejected",
			SQL: `SELECT id, status FROM rental_requests
                  WHERE rejection_reason IS NOT NULL AND status <> 'rejected'`,
		},
		{
			Name: "O7_rental_mirrors_request",
			SQL: `SELECT r.id FROM rentals r
                  JOIN rental_requests q ON q.id = r.request_id
                  WHERE r.user_id <> q.user_id
                     OR r.vehicle_id <> q.vehicle_id
                     OR r.total_price <> q.total_price
                     OR r.start_date <> q.start_date
                     OR r.end_date <> q.end_date`,
		},
		{
			Name: "O8_rental_status_confirmed",
			SQL:  `SELECT id, status FROM rentals WHERE status <> 'confirmed'`,
		},
	}
}

// Run checks every oracle and returns the first violated one along with a
// sample violating row. An empty name means all invariants hold.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		row, violated, err := firstRow(ctx, pool, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if violated {
			return o.Name, row, nil
		}
	}
	return "", "", nil
}

func firstRow(ctx context.Context, pool *pgxpool.Pool, sql string) (string, bool, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	vals, err := rows.Values()
	if err != nil {
		return "", true, err
	}
	return fmt.Sprintf("%v", vals), true, nil
}
