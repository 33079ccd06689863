package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newFakeRepository())

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"missing title", CreateParams{Title: "  ", Price: 100, Seats: 4}},
		{"zero price", CreateParams{Title: "Compact Hatch", Price: 0, Seats: 4}},
		{"negative price", CreateParams{Title: "Compact Hatch", Price: -50, Seats: 4}},
		{"zero seats", CreateParams{Title: "Compact Hatch", Price: 100, Seats: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.params); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestService_CreateAndList(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{
		Title:    "City Compact",
		Price:    90,
		Seats:    4,
		Location: "Airport",
		Category: "Compact",
		ImageURL: "https://img.example/compact.jpg",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Rating != 0 {
		t.Fatalf("expected fresh listing rating 0, got %v", first.Rating)
	}

	second, err := svc.Create(ctx, CreateParams{
		Title:    "Family Van",
		Price:    160,
		Seats:    7,
		Category: "Van",
		Featured: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	vehicles, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vehicles) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(vehicles))
	}
	if vehicles[0].ID != first.ID || vehicles[1].ID != second.ID {
		t.Fatal("expected insertion order to be preserved")
	}
}

func TestService_Delete(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	v, err := svc.Create(ctx, CreateParams{Title: "Luxury Sedan", Price: 300, Seats: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := svc.Delete(ctx, v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	// A malformed id misses cleanly rather than raising a cast error.
	if err := svc.Delete(ctx, "garbage"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

type fakeRepository struct {
	vehicles []Vehicle
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{}
}

func (f *fakeRepository) List(ctx context.Context) ([]Vehicle, error) {
	out := make([]Vehicle, len(f.vehicles))
	copy(out, f.vehicles)
	return out, nil
}

func (f *fakeRepository) Create(ctx context.Context, params CreateParams) (Vehicle, error) {
	v := Vehicle{
		ID:        uuid.NewString(),
		Title:     params.Title,
		Price:     params.Price,
		Seats:     params.Seats,
		Location:  params.Location,
		Category:  params.Category,
		ImageURL:  params.ImageURL,
		Featured:  params.Featured,
		CreatedAt: time.Now().UTC(),
	}
	f.vehicles = append(f.vehicles, v)
	return v, nil
}

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	for i, v := range f.vehicles {
		if v.ID == id {
			f.vehicles = append(f.vehicles[:i], f.vehicles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
