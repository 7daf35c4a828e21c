// ABOUTME: Account registration and login with bcrypt password hashing
// ABOUTME: Issues HS256 JWTs on successful login; validates signup input

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatrelay/internal/store"
)

// Service errors
var (
	// ErrInvalidInput covers failed request validation (bad email, short
	// password, missing fields).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned for unknown email or wrong
	// password alike; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// DefaultTokenTTL matches the original deployment's 3-day login tokens.
const DefaultTokenTTL = 72 * time.Hour

// dummyHash is compared against when the email is unknown so login timing
// does not reveal whether an account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterRequest is the validated input for account creation.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the validated input for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service resolves and issues identities. It owns password hashing and
// token issuance; chat code only ever sees the resolved user ID.
type Service struct {
	users    store.UserStore
	verifier *JWTVerifier
	tokenTTL time.Duration
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates an identity service. A tokenTTL of zero falls back
// to DefaultTokenTTL.
func NewService(users store.UserStore, verifier *JWTVerifier, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		users:    users,
		verifier: verifier,
		tokenTTL: tokenTTL,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default().With("component", "identity"),
	}
}

// Verifier exposes the token verifier for HTTP middleware wiring.
func (s *Service) Verifier() TokenVerifier {
	return s.verifier
}

// Register creates a new account with a bcrypt-hashed password.
// Returns ErrInvalidInput for bad fields and store.ErrDuplicateEmail if
// the email is taken.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*store.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, firstValidationError(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and returns a signed token whose "sub" claim
// is the user ID. Unknown email and wrong password produce the same
// ErrInvalidCredentials, with a dummy bcrypt compare keeping the timing
// of the two paths indistinguishable.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, firstValidationError(err))
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.verifier.Generate(user.ID, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// firstValidationError flattens a validator error into a single readable
// field message. Validation detail is safe to show; it never contains
// submitted values.
func firstValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "email":
			return "valid email required"
		case "min":
			return fmt.Sprintf("%s too short", fe.Field())
		case "max":
			return fmt.Sprintf("%s too long", fe.Field())
		default:
			return fmt.Sprintf("%s is invalid", fe.Field())
		}
	}
	return "invalid request"
}
