package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Username: "alice@x.com",
		Password: "pw1",
	}

	ctx := context.Background()
	user, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if user.Email != req.Username {
		t.Fatalf("expected email %q got %q", req.Username, user.Email)
	}
	if user.Role != RoleUser {
		t.Fatalf("register: expected default role %s got %s", RoleUser, user.Role)
	}
	if user.PasswordHash == req.Password {
		t.Fatal("register: plaintext password stored as hash")
	}

	resp, err := svc.Login(ctx, LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, resp.User.ID)
	}
	if resp.User.Role != RoleUser {
		t.Fatalf("login: expected role %s got %s", RoleUser, resp.User.Role)
	}

	tokenUserID, tokenEmail, tokenRole, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenUserID != user.ID {
		t.Fatalf("verify token: expected %q got %q", user.ID, tokenUserID)
	}
	if tokenEmail != user.Email {
		t.Fatalf("verify token: expected email %q got %q", user.Email, tokenEmail)
	}
	if tokenRole != RoleUser {
		t.Fatalf("verify token: expected role %s got %s", RoleUser, tokenRole)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Username: "",
		Password: "secret",
	}); err == nil {
		t.Fatal("expected validation error for missing username")
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice@x.com",
		Password: "",
	}); err == nil {
		t.Fatal("expected validation error for missing password")
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Username: "alice@x.com",
		Password: "strongpassword",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Username: "alice@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown account must be indistinguishable.
	_, wrongPwErr := svc.Login(ctx, LoginRequest{Username: "alice@x.com", Password: "wrong"})
	if !errors.Is(wrongPwErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPwErr)
	}

	_, unknownErr := svc.Login(ctx, LoginRequest{Username: "nobody@x.com", Password: "irrelevant"})
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", unknownErr)
	}

	if wrongPwErr.Error() != unknownErr.Error() {
		t.Fatalf("credential errors differ: %q vs %q", wrongPwErr, unknownErr)
	}
}

func TestService_EnsureAdmin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "ops@x.com", "operator-pass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Username: "ops@x.com", Password: "operator-pass"})
	if err != nil {
		t.Fatalf("login as admin: %v", err)
	}
	if resp.User.Role != RoleAdmin {
		t.Fatalf("expected role %s got %s", RoleAdmin, resp.User.Role)
	}

	// Second call is a no-op even with a different password.
	if err := svc.EnsureAdmin(ctx, "ops@x.com", "other-pass"); err != nil {
		t.Fatalf("ensure admin (repeat): %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Username: "ops@x.com", Password: "operator-pass"}); err != nil {
		t.Fatalf("original admin password no longer works: %v", err)
	}
}

type fakeRepository struct {
	usersByEmail map[string]User
	nextID       int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByEmail: make(map[string]User),
		nextID:       1,
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if _, exists := f.usersByEmail[strings.ToLower(params.Email)]; exists {
		return User{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("user-%d", f.nextID)
	f.nextID++

	user := User{
		ID:           id,
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now().UTC(),
	}

	f.usersByEmail[strings.ToLower(user.Email)] = user
	return user, nil
}

func (f *fakeRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
