package rental

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DateLayout is the wire format for rental dates.
const DateLayout = "2006-01-02"

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service drives the request workflow: submission, the accept/reject
// transitions, and the read views both dashboards consume.
type Service struct {
	pool TxBeginner
	repo Repository
}

// NewService creates a new workflow service.
func NewService(pool TxBeginner, repo Repository) *Service {
	return &Service{pool: pool, repo: repo}
}

// SubmitParams contains a user's rental proposal. Username carries the
// account email; dates use DateLayout.
type SubmitParams struct {
	Username   string
	VehicleID  string
	StartDate  string
	EndDate    string
	TotalPrice int
}

// AcceptResult bundles the settled request and the rental it materialised.
type AcceptResult struct {
	Request Request
	Rental  Rental
}

// Submit validates the proposal and creates a pending request. The supplied
// total price is trusted as quoted; there is no overlap check against other
// bookings for the same vehicle.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (Request, error) {
	if params.Username == "" || params.VehicleID == "" {
		return Request{}, fmt.Errorf("%w: username and vehicle id are required", ErrInvalidInput)
	}
	// A non-uuid id can never match a uuid column; screen it here so the
	// database does not raise a cast error instead of a clean miss.
	if _, err := uuid.Parse(params.VehicleID); err != nil {
		return Request{}, ErrVehicleNotFound
	}
	if params.TotalPrice <= 0 {
		return Request{}, fmt.Errorf("%w: total price must be positive", ErrInvalidInput)
	}

	start, err := time.Parse(DateLayout, params.StartDate)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, params.StartDate)
	}
	end, err := time.Parse(DateLayout, params.EndDate)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid end date %q", ErrInvalidInput, params.EndDate)
	}
	if end.Before(start) {
		return Request{}, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	userID, err := s.repo.FindUserIDByEmail(ctx, params.Username)
	if err != nil {
		return Request{}, err
	}

	exists, err := s.repo.VehicleExists(ctx, params.VehicleID)
	if err != nil {
		return Request{}, err
	}
	if !exists {
		return Request{}, ErrVehicleNotFound
	}

	return s.repo.InsertRequest(ctx, Request{
		UserID:     userID,
		VehicleID:  params.VehicleID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: params.TotalPrice,
	})
}

// Accept settles a pending request and materialises its rental. Both writes
// run in one transaction: either the request is accepted and exactly one
// confirmed rental exists, or neither happened. A request that is not pending
// yields ErrNotPending and no rental.
func (s *Service) Accept(ctx context.Context, requestID string) (AcceptResult, error) {
	if requestID == "" {
		return AcceptResult{}, fmt.Errorf("%w: missing request id", ErrInvalidInput)
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return AcceptResult{}, ErrRequestNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("rental: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.repo.Transition(ctx, tx, requestID, StatusAccepted, nil)
	if err != nil {
		return AcceptResult{}, err
	}

	rec, err := s.repo.InsertRental(ctx, tx, req)
	if err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AcceptResult{}, fmt.Errorf("rental: commit accept: %w", err)
	}

	return AcceptResult{Request: req, Rental: rec}, nil
}

// Reject settles a pending request without creating a rental. The reason is
// persisted on the request record.
func (s *Service) Reject(ctx context.Context, requestID, reason string) (Request, error) {
	if requestID == "" {
		return Request{}, fmt.Errorf("%w: missing request id", ErrInvalidInput)
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return Request{}, ErrRequestNotFound
	}

	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("rental: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.repo.Transition(ctx, tx, requestID, StatusRejected, reasonPtr)
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("rental: commit reject: %w", err)
	}

	return req, nil
}

// ListForUser returns the user's requests, newest first. An unknown user
// yields an empty list rather than an error so the endpoint stays probe-safe.
func (s *Service) ListForUser(ctx context.Context, username string) ([]RequestView, error) {
	userID, err := s.repo.FindUserIDByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return []RequestView{}, nil
		}
		return nil, err
	}
	return s.repo.ListForUser(ctx, userID)
}

// ListPending returns pending requests oldest first for admin triage.
func (s *Service) ListPending(ctx context.Context) ([]RequestView, error) {
	return s.repo.ListPending(ctx)
}

// ListAll returns every request regardless of status, newest first.
func (s *Service) ListAll(ctx context.Context) ([]RequestView, error) {
	return s.repo.ListAll(ctx)
}

// RentalsForUser returns the user's confirmed rentals, newest first. Unknown
// users yield an empty list.
func (s *Service) RentalsForUser(ctx context.Context, username string) ([]RentalView, error) {
	userID, err := s.repo.FindUserIDByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return []RentalView{}, nil
		}
		return nil, err
	}
	return s.repo.RentalsForUser(ctx, userID)
}

// AllRentals returns every confirmed rental for the admin dashboard.
func (s *Service) AllRentals(ctx context.Context) ([]RentalView, error) {
	return s.repo.AllRentals(ctx)
}
