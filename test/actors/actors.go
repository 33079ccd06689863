package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetrent/rental"
)

// Submitter files rental requests for a random seeded user and vehicle through
// the real workflow service.
func Submitter(ctx context.Context, svc *rental.Service, emails, vehicleIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		days := 1 + rand.Intn(13)
		start := time.Now().AddDate(0, 0, 1+rand.Intn(60))
		end := start.AddDate(0, 0, days)

		_, err := svc.Submit(ctx, rental.SubmitParams{
			Username:   emails[rand.Intn(len(emails))],
			VehicleID:  vehicleIDs[rand.Intn(len(vehicleIDs))],
			StartDate:  start.Format(rental.DateLayout),
			EndDate:    end.Format(rental.DateLayout),
			TotalPrice: 50 + rand.Intn(500),
		})
		if err != nil && !transient(err) {
			return fmt.Errorf("submitter: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Approver accepts a random pending request. Multiple approvers race over the
// same pool of requests, so losing with ErrNotPending is expected under
// contention.
func Approver(ctx context.Context, pool *pgxpool.Pool, svc *rental.Service, stop <-chan struct{}) error {
	return settler(ctx, pool, stop, func(id string) error {
		_, err := svc.Accept(ctx, id)
		return err
	})
}

// Rejector rejects a random pending request, racing the approvers.
func Rejector(ctx context.Context, pool *pgxpool.Pool, svc *rental.Service, stop <-chan struct{}) error {
	return settler(ctx, pool, stop, func(id string) error {
		_, err := svc.Reject(ctx, id, "capacity check failed")
		return err
	})
}

func settler(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}, settle func(id string) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var id string
		err := pool.QueryRow(ctx, `SELECT id FROM rental_requests WHERE status = 'pending' ORDER BY random() LIMIT 1`).Scan(&id)
		if err == nil {
			err = settle(id)
		}
		switch {
		case err == nil:
		case errors.Is(err, pgx.ErrNoRows):
			// nothing pending yet
		case errors.Is(err, rental.ErrNotPending), errors.Is(err, rental.ErrRequestNotFound):
			// lost the race to another settler
		case transient(err):
		default:
			return fmt.Errorf("settler: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Browser hammers the read views both dashboards use while the writers churn.
func Browser(ctx context.Context, svc *rental.Service, emails []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var err error
		switch rand.Intn(4) {
		case 0:
			_, err = svc.ListPending(ctx)
		case 1:
			_, err = svc.ListAll(ctx)
		case 2:
			_, err = svc.AllRentals(ctx)
		default:
			_, err = svc.ListForUser(ctx, emails[rand.Intn(len(emails))])
		}
		if err != nil && !transient(err) {
			return fmt.Errorf("browser: %w", err)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// transient reports whether the error is expected noise under chaos, such as a
// connection torn down by pg_terminate_backend mid-query.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection reset",
		"unexpected EOF",
		"terminating connection",
		"conn closed",
		"broken pipe",
		"failed to connect",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
