package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/fraudshield/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, credential checks, and the signed
// session cookie token.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
	validate   *validator.Validate
	// dummyHash is compared against when the email is unknown so both
	// paths cost one bcrypt comparison.
	dummyHash []byte
}

type registration struct {
	DisplayName string `validate:"required,max=100"`
	Email       string `validate:"required,email,max=254"`
	Password    string `validate:"required,min=8,max=72"`
	Confirm     string `validate:"eqfield=Password"`
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("fraudshield-timing-equalizer"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		dummyHash:  dummy,
	}, nil
}

// Register creates a new user account after validating inputs. The email
// is stored trimmed and lower-cased.
func (s *AuthService) Register(ctx context.Context, displayName, email, password, confirmPassword string) (*domain.User, error) {
	in := registration{
		DisplayName: strings.TrimSpace(displayName),
		Email:       normalizeEmail(email),
		Password:    password,
		Confirm:     confirmPassword,
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, validationMessage(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Authenticate reports whether password matches the account for email.
// Unknown emails and wrong passwords both yield false; an error is
// returned only when the store fails.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	hash := s.dummyHash
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		hash = []byte(user.PasswordHash)
	case errors.Is(err, domain.ErrNotFound):
	default:
		return false, fmt.Errorf("get user: %w", err)
	}

	match := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	return match && user != nil, nil
}

// User returns the account for email.
func (s *AuthService) User(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

// IssueSessionToken signs a token carrying the session id.
func (s *AuthService) IssueSessionToken(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseSessionToken validates a session token and returns its session id.
func (s *AuthService) ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", domain.ErrUnauthorized
	}
	return sid, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validationMessage turns the first failed rule into a sentence for the
// registration form.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Field() {
	case "DisplayName":
		if fe.Tag() == "max" {
			return "name must be at most 100 characters"
		}
		return "name is required"
	case "Email":
		if fe.Tag() == "email" {
			return "email address is not valid"
		}
		if fe.Tag() == "max" {
			return "email address is too long"
		}
		return "email is required"
	case "Password":
		switch fe.Tag() {
		case "min":
			return "password must be at least 8 characters"
		case "max":
			return "password must be at most 72 characters"
		}
		return "password is required"
	case "Confirm":
		return "passwords do not match"
	}
	return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
}
