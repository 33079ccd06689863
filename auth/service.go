package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials signals wrong email or password. The same error is
// returned whether the account is missing or the password mismatches, so a
// caller cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// Register creates a new user account with the default role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.TrimSpace(req.Username)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("auth: username and password are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Name:         email,
		PasswordHash: string(passwordHash),
		Role:         RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates a user and returns a signed token alongside the account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return LoginResult{}, fmt.Errorf("auth: username and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

// EnsureAdmin provisions the operator account through the normal registration
// path. It is invoked once at startup and is a no-op when the account already
// exists, whatever its current password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("auth: admin email and password are required")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash admin password: %w", err)
	}

	_, err = s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Name:         email,
		PasswordHash: string(passwordHash),
		Role:         RoleAdmin,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race against a concurrent boot; the account exists.
		return nil
	}
	return err
}

// VerifyToken validates a token and returns the identity claims it carries.
func (s *Service) VerifyToken(tokenString string) (userID string, email string, role Role, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", "", fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", "", fmt.Errorf("auth: invalid token")
	}

	userID, ok = claims["user_id"].(string)
	if !ok {
		return "", "", "", fmt.Errorf("auth: invalid user_id in token")
	}
	email, ok = claims["email"].(string)
	if !ok {
		return "", "", "", fmt.Errorf("auth: invalid email in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", "", "", fmt.Errorf("auth: invalid role in token")
	}
	role = Role(roleStr)
	if role != RoleUser && role != RoleAdmin {
		return "", "", "", fmt.Errorf("auth: invalid role %q in token", roleStr)
	}

	return userID, email, role, nil
}

// generateToken creates a signed JWT for the user.
func (s *Service) generateToken(user User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
