package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidInput signals a listing that fails validation.
var ErrInvalidInput = errors.New("catalog: invalid input")

// Service handles vehicle catalog business logic. Listings are created and
// removed whole; there is no update-in-place.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every listing in insertion order.
func (s *Service) List(ctx context.Context) ([]Vehicle, error) {
	return s.repo.List(ctx)
}

// Create validates and inserts a new listing.
func (s *Service) Create(ctx context.Context, params CreateParams) (Vehicle, error) {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return Vehicle{}, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if params.Price <= 0 {
		return Vehicle{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if params.Seats <= 0 {
		return Vehicle{}, fmt.Errorf("%w: seats must be positive", ErrInvalidInput)
	}

	return s.repo.Create(ctx, params)
}

// Delete removes a listing by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: vehicle id required", ErrInvalidInput)
	}
	// Screen non-uuid ids so the delete reads as a miss, not a cast error.
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
