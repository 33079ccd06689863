package rental

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrRequestNotFound is returned when no request row exists for the identifier.
	ErrRequestNotFound = errors.New("rental: request not found")
	// ErrNotPending signals a transition attempted on an already-settled request.
	ErrNotPending = errors.New("rental: request is not pending")
	// ErrUserNotFound signals the requesting user does not exist.
	ErrUserNotFound = errors.New("rental: user not found")
	// ErrVehicleNotFound signals the requested vehicle does not exist.
	ErrVehicleNotFound = errors.New("rental: vehicle not found")
	// ErrInvalidInput signals a submission that fails validation.
	ErrInvalidInput = errors.New("rental: invalid input")
)

// Repository defines the data access required by the workflow service.
// Transition and InsertRental run inside the caller's transaction so the
// status change and the rental write commit as a single unit.
type Repository interface {
	FindUserIDByEmail(ctx context.Context, email string) (string, error)
	VehicleExists(ctx context.Context, vehicleID string) (bool, error)
	InsertRequest(ctx context.Context, req Request) (Request, error)
	Transition(ctx context.Context, tx pgx.Tx, requestID string, next Status, reason *string) (Request, error)
	InsertRental(ctx context.Context, tx pgx.Tx, req Request) (Rental, error)
	ListForUser(ctx context.Context, userID string) ([]RequestView, error)
	ListPending(ctx context.Context) ([]RequestView, error)
	ListAll(ctx context.Context) ([]RequestView, error)
	RentalsForUser(ctx context.Context, userID string) ([]RentalView, error)
	AllRentals(ctx context.Context) ([]RentalView, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindUserIDByEmail resolves an account email to its id.
func (r *PGRepository) FindUserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("rental: find user: %w", err)
	}
	return id, nil
}

// VehicleExists reports whether the vehicle row is present.
func (r *PGRepository) VehicleExists(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`, vehicleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rental: check vehicle: %w", err)
	}
	return exists, nil
}

// InsertRequest creates a pending request.
func (r *PGRepository) InsertRequest(ctx context.Context, req Request) (Request, error) {
	const insertSQL = `
		INSERT INTO rental_requests (user_id, vehicle_id, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, user_id, vehicle_id, start_date, end_date, total_price, status, rejection_reason, requested_at, responded_at
	`

	created, err := scanRequest(r.pool.QueryRow(ctx, insertSQL,
		req.UserID, req.VehicleID, req.StartDate, req.EndDate, req.TotalPrice))
	if err != nil {
		return Request{}, fmt.Errorf("rental: insert request: %w", err)
	}
	return created, nil
}

// Transition settles a pending request. The status guard lives inside the
// UPDATE itself so concurrent settlers cannot both pass a read-then-write
// check: exactly one wins the row, the rest see ErrNotPending.
func (r *PGRepository) Transition(ctx context.Context, tx pgx.Tx, requestID string, next Status, reason *string) (Request, error) {
	const updateSQL = `
		UPDATE rental_requests
		SET status = $2,
		    responded_at = now(),
		    rejection_reason = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, vehicle_id, start_date, end_date, total_price, status, rejection_reason, requested_at, responded_at
	`

	req, err := scanRequest(tx.QueryRow(ctx, updateSQL, requestID, next, reason))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Request{}, fmt.Errorf("rental: transition request: %w", err)
	}

	// No pending row matched; distinguish missing from already settled.
	var status Status
	switch err := tx.QueryRow(ctx, `SELECT status FROM rental_requests WHERE id = $1`, requestID).Scan(&status); {
	case err == nil:
		return Request{}, ErrNotPending
	case errors.Is(err, pgx.ErrNoRows):
		return Request{}, ErrRequestNotFound
	default:
		return Request{}, fmt.Errorf("rental: read request status: %w", err)
	}
}

// InsertRental materialises a confirmed rental from an accepted request. The
// unique request_id constraint backstops the one-rental-per-acceptance rule.
func (r *PGRepository) InsertRental(ctx context.Context, tx pgx.Tx, req Request) (Rental, error) {
	const insertSQL = `
		INSERT INTO rentals (request_id, user_id, vehicle_id, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'confirmed')
		RETURNING id, request_id, user_id, vehicle_id, start_date, end_date, total_price, status, created_at
	`

	var rec Rental
	err := tx.QueryRow(ctx, insertSQL,
		req.ID, req.UserID, req.VehicleID, req.StartDate, req.EndDate, req.TotalPrice,
	).Scan(&rec.ID, &rec.RequestID, &rec.UserID, &rec.VehicleID, &rec.StartDate, &rec.EndDate, &rec.TotalPrice, &rec.Status, &rec.CreatedAt)
	if err != nil {
		return Rental{}, fmt.Errorf("rental: insert rental: %w", err)
	}
	return rec, nil
}

const requestViewColumns = `
	r.id, r.user_id, r.vehicle_id, r.start_date, r.end_date, r.total_price,
	r.status, r.rejection_reason, r.requested_at, r.responded_at,
	u.email, u.name, v.title, v.price, v.category, v.image_url
`

// ListForUser returns a user's requests, newest first, with vehicle display fields.
func (r *PGRepository) ListForUser(ctx context.Context, userID string) ([]RequestView, error) {
	query := `
		SELECT ` + requestViewColumns + `
		FROM rental_requests r
		JOIN users u ON u.id = r.user_id
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.user_id = $1
		ORDER BY r.requested_at DESC
	`
	return r.queryRequestViews(ctx, query, userID)
}

// ListPending returns every pending request oldest first, FIFO triage order.
func (r *PGRepository) ListPending(ctx context.Context) ([]RequestView, error) {
	query := `
		SELECT ` + requestViewColumns + `
		FROM rental_requests r
		JOIN users u ON u.id = r.user_id
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.status = 'pending'
		ORDER BY r.requested_at ASC
	`
	return r.queryRequestViews(ctx, query)
}

// ListAll returns every request regardless of status, newest first.
func (r *PGRepository) ListAll(ctx context.Context) ([]RequestView, error) {
	query := `
		SELECT ` + requestViewColumns + `
		FROM rental_requests r
		JOIN users u ON u.id = r.user_id
		JOIN vehicles v ON v.id = r.vehicle_id
		ORDER BY r.requested_at DESC
	`
	return r.queryRequestViews(ctx, query)
}

func (r *PGRepository) queryRequestViews(ctx context.Context, query string, args ...any) ([]RequestView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rental: list requests: %w", err)
	}
	defer rows.Close()

	views := []RequestView{}
	for rows.Next() {
		var v RequestView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.VehicleID, &v.StartDate, &v.EndDate, &v.TotalPrice,
			&v.Status, &v.RejectionReason, &v.RequestedAt, &v.RespondedAt,
			&v.Username, &v.UserName, &v.VehicleTitle, &v.VehiclePrice, &v.VehicleCategory, &v.VehicleImage,
		); err != nil {
			return nil, fmt.Errorf("rental: scan request view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rental: iterate requests: %w", err)
	}
	return views, nil
}

const rentalViewColumns = `
	r.id, r.request_id, r.user_id, r.vehicle_id, r.start_date, r.end_date,
	r.total_price, r.status, r.created_at,
	u.email, v.title, v.price, v.image_url
`

// RentalsForUser returns a user's confirmed rentals, newest first.
func (r *PGRepository) RentalsForUser(ctx context.Context, userID string) ([]RentalView, error) {
	query := `
		SELECT ` + rentalViewColumns + `
		FROM rentals r
		JOIN users u ON u.id = r.user_id
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`
	return r.queryRentalViews(ctx, query, userID)
}

// AllRentals returns every confirmed rental, newest first.
func (r *PGRepository) AllRentals(ctx context.Context) ([]RentalView, error) {
	query := `
		SELECT ` + rentalViewColumns + `
		FROM rentals r
		JOIN users u ON u.id = r.user_id
		JOIN vehicles v ON v.id = r.vehicle_id
		ORDER BY r.created_at DESC
	`
	return r.queryRentalViews(ctx, query)
}

func (r *PGRepository) queryRentalViews(ctx context.Context, query string, args ...any) ([]RentalView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rental: list rentals: %w", err)
	}
	defer rows.Close()

	views := []RentalView{}
	for rows.Next() {
		var v RentalView
		if err := rows.Scan(
			&v.ID, &v.RequestID, &v.UserID, &v.VehicleID, &v.StartDate, &v.EndDate,
			&v.TotalPrice, &v.Status, &v.CreatedAt,
			&v.Username, &v.VehicleTitle, &v.VehiclePrice, &v.VehicleImage,
		); err != nil {
			return nil, fmt.Errorf("rental: scan rental view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rental: iterate rentals: %w", err)
	}
	return views, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.VehicleID,
		&req.StartDate,
		&req.EndDate,
		&req.TotalPrice,
		&req.Status,
		&req.RejectionReason,
		&req.RequestedAt,
		&req.RespondedAt,
	)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}
