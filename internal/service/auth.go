package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type UserStore interface {
	Users(ctx context.Context) ([]models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u models.User) error
}

type AuthService struct {
	Users     UserStore
	Session   session.Accessor
	Events    mykafka.Publisher
	JWTSecret []byte
	TokenTTL  time.Duration
	Now       func() time.Time
}

type LoginResult struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

func ValidPassword(password string) bool { return len(password) >= MinPasswordLength }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	if !ValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if !ValidPassword(password) {
		return nil, fmt.Errorf("%w: password must have at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	existing, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pwHash,
		Name:         name,
		Role:         models.RoleUser,
		CreatedAt:    s.now(),
	}
	if err := s.Users.SaveUser(ctx, u); err != nil {
		return nil, err
	}

	s.publish(ctx, u.ID, map[string]any{"type": "user_registered", "userID": u.ID, "email": u.Email})
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	u, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !hash.CheckPassword(u.PasswordHash, password) {
		logging.FromContext(ctx).Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, domain.ErrInvalidCredentials
	}

	exp := s.now().Add(s.TokenTTL)
	token, err := tokens.SignAccessToken(*u, s.JWTSecret, exp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &LoginResult{User: *u, AccessToken: token, ExpiresAt: exp}, nil
}

// UpdateProfile changes the signed-in user's name and, when non-empty, password.
func (s *AuthService) UpdateProfile(ctx context.Context, name, password string) (*models.User, error) {
	cur, err := s.Session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.Users.UserByEmail(ctx, cur.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID != cur.ID {
		return nil, fmt.Errorf("user %s: %w", cur.ID, domain.ErrNotFound)
	}

	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if password != "" {
		if !ValidPassword(password) {
			return nil, fmt.Errorf("%w: password must have at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
		}
		if u.PasswordHash, err = hash.HashPassword(password); err != nil {
			return nil, err
		}
	}
	if err := s.Users.SaveUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// SeedAdmin creates the administrator account unless the email is already registered.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	existing, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pwHash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		CreatedAt:    s.now(),
	}
	if err := s.Users.SaveUser(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) publish(ctx context.Context, key string, event map[string]any) {
	mykafka.Publish(ctx, s.Events, mykafka.TopicUsers, key, event)
}
