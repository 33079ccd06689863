package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested vehicle does not exist.
	ErrNotFound = errors.New("catalog: vehicle not found")
	// ErrVehicleInUse signals the vehicle is referenced by rental history and
	// cannot be removed.
	ErrVehicleInUse = errors.New("catalog: vehicle has rental history")
)

// Repository handles data access for vehicle listings.
type Repository interface {
	List(ctx context.Context) ([]Vehicle, error)
	Create(ctx context.Context, params CreateParams) (Vehicle, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List fetches every listing in insertion order. The catalog is small enough
// that a full scan per call is the intended behavior.
func (r *PGRepository) List(ctx context.Context) ([]Vehicle, error) {
	const query = `
		SELECT id, title, price, seats, location, category, rating, image_url, featured, created_at
		FROM vehicles
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	vehicles := []Vehicle{}
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.Title, &v.Price, &v.Seats, &v.Location, &v.Category, &v.Rating, &v.ImageURL, &v.Featured, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// Create inserts a new listing. Rating starts at zero.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Vehicle, error) {
	const insertSQL = `
		INSERT INTO vehicles (title, price, seats, location, category, rating, image_url, featured)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING id, title, price, seats, location, category, rating, image_url, featured, created_at
	`

	var v Vehicle
	err := r.pool.QueryRow(ctx, insertSQL,
		params.Title,
		params.Price,
		params.Seats,
		params.Location,
		params.Category,
		params.ImageURL,
		params.Featured,
	).Scan(&v.ID, &v.Title, &v.Price, &v.Seats, &v.Location, &v.Category, &v.Rating, &v.ImageURL, &v.Featured, &v.CreatedAt)
	if err != nil {
		return Vehicle{}, fmt.Errorf("catalog: insert vehicle: %w", err)
	}

	return v, nil
}

// Delete removes a listing by id.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrVehicleInUse
		}
		return fmt.Errorf("catalog: delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
