package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ntrioooo/job-tracker/internal/apperr"
)

// MinPasswordLength matches the sign-up form.
const MinPasswordLength = 6

// Session is what a successful sign-in hands back to the client.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	User      User
	TokenID   string
	ExpiresAt time.Time
}

type Service struct {
	users     UserRepository
	tokens    *Tokens
	blacklist Blacklist
	google    *GoogleProvider
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the identity provider. google may be nil, which
// disables Google sign-in.
func NewService(users UserRepository, tokens *Tokens, blacklist Blacklist, google *GoogleProvider, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		google:    google,
		logger:    logger,
		now:       time.Now,
	}
}

// SignUp creates a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Session{}, apperr.Auth("invalid email address", err)
	}
	if len(password) < MinPasswordLength {
		return Session{}, apperr.Auth("password must be at least 6 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, apperr.Internal("failed to hash password", err)
	}

	u, err := s.users.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     ProviderPassword,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, ErrEmailTaken) {
		return Session{}, apperr.Auth("email already registered", err)
	}
	if err != nil {
		return Session{}, apperr.Internal("failed to create account", err)
	}

	s.logger.Info("user signed up", zap.String("userId", u.ID))
	return s.issue(u)
}

// SignIn checks an email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, apperr.Auth("invalid email or password", err)
	}
	if err != nil {
		return Session{}, apperr.Internal("failed to load account", err)
	}
	if u.PasswordHash == "" {
		return Session{}, apperr.Auth("this account signs in with Google", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperr.Auth("invalid email or password", err)
	}
	return s.issue(u)
}

// GoogleAuthURL is where the client sends the user to start Google sign-in.
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", apperr.Auth("google sign-in is not configured", nil)
	}
	return s.google.AuthCodeURL(state), nil
}

// SignInWithGoogle completes Google sign-in, creating the account on first
// use and linking it to an existing password account with the same email.
// A profile not yet known by its Google ID needs a verified email.
func (s *Service) SignInWithGoogle(ctx context.Context, code string) (Session, error) {
	if s.google == nil {
		return Session{}, apperr.Auth("google sign-in is not configured", nil)
	}
	if code == "" {
		return Session{}, apperr.Auth("missing authorization code", nil)
	}

	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		return Session{}, apperr.Auth("google sign-in failed", err)
	}

	u, err := s.users.FindByGoogleID(ctx, info.ID)
	if err == nil {
		return s.issue(u)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Session{}, apperr.Internal("failed to load account", err)
	}

	if !info.VerifiedEmail {
		s.logger.Warn("google sign-in with unverified email", zap.String("googleId", info.ID))
		return Session{}, apperr.Auth("google email is not verified", nil)
	}

	email := normalizeEmail(info.Email)
	u, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.LinkGoogle(ctx, u.ID, info.ID); err != nil {
			return Session{}, apperr.Internal("failed to link google account", err)
		}
		u.GoogleID = info.ID
	case errors.Is(err, ErrUserNotFound):
		u, err = s.users.Create(ctx, User{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: info.Name,
			Provider:    ProviderGoogle,
			GoogleID:    info.ID,
			CreatedAt:   s.now().UTC(),
		})
		if err != nil {
			return Session{}, apperr.Internal("failed to create account", err)
		}
		s.logger.Info("user signed up with google", zap.String("userId", u.ID))
	default:
		return Session{}, apperr.Internal("failed to load account", err)
	}
	return s.issue(u)
}

// SignOut revokes token until it expires.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return apperr.Auth("invalid access token", err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal("failed to sign out", err)
	}
	s.logger.Info("user signed out", zap.String("userId", claims.Subject))
	return nil
}

// Authenticate resolves the current user from an access token.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Parse(token)
	if errors.Is(err, ErrTokenExpired) {
		return Identity{}, apperr.Auth("access token expired", err)
	}
	if err != nil {
		return Identity{}, apperr.Auth("invalid access token", err)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, apperr.Internal("failed to validate token", err)
	}
	if revoked {
		return Identity{}, apperr.Auth("token has been revoked", nil)
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return Identity{}, apperr.Auth("user does not exist", err)
	}
	if err != nil {
		return Identity{}, apperr.Internal("failed to load account", err)
	}
	return Identity{User: u, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) issue(u User) (Session, error) {
	token, claims, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, apperr.Internal("failed to issue access token", err)
	}
	return Session{AccessToken: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}
