package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tasknest/tasknest-go/internal/crypto"
	"github.com/tasknest/tasknest-go/internal/metrics"
	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/repository"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrEmailTaken           = errors.New("user already exists")
	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrUserNotFound         = errors.New("user not found")
)

// UserStore is the persistence the session lifecycle needs.
type UserStore interface {
	CreateWithSession(ctx context.Context, user *model.User, newSession func(userID int64) (string, error)) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id int64, hash *string) error
}

// AuthService handles registration, login, token refresh and logout.
//
// Each user has at most one refresh token; its hash lives on the user row and
// every login replaces it. Concurrent logins for one user race on that write
// and the last one wins.
type AuthService struct {
	repo      UserStore
	hasher    crypto.Hasher
	tokens    *crypto.TokenIssuer
	metrics   *metrics.Metrics
	dummyHash string
}

// NewAuthService creates a new AuthService. m may be nil.
func NewAuthService(repo UserStore, hasher crypto.Hasher, tokens *crypto.TokenIssuer, m *metrics.Metrics) (*AuthService, error) {
	// Verified on logins for unknown emails so they cost as much as a wrong password.
	dummy, err := hasher.Hash("tasknest-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("hashing dummy password: %w", err)
	}

	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   m,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	resp, err := s.register(ctx, req)
	s.record(metrics.EventRegister, err)
	return resp, err
}

func (s *AuthService) register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return model.AuthResponse{}, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Email:        email,
		Name:         normalizeName(req.Name),
		PasswordHash: hash,
	}

	// The user row and its first session commit together or not at all.
	var resp model.AuthResponse
	err = s.repo.CreateWithSession(ctx, user, func(userID int64) (string, error) {
		user.ID = userID
		issued, refreshHash, err := s.issueSession(user)
		resp = issued
		return refreshHash, err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, fmt.Errorf("creating user: %w", err)
	}
	resp.Message = "User registered successfully"

	return resp, nil
}

// Login authenticates a user and replaces any previous session with a new one.
// An unknown email and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	resp, err := s.login(ctx, req)
	s.record(metrics.EventLogin, err)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(req.Password, s.dummyHash)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, fmt.Errorf("looking up email: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// Refresh exchanges a valid refresh token for a new access token. The session
// owner is the token's subject, and the token must match that user's stored
// hash. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error) {
	resp, err := s.refresh(ctx, refreshToken)
	s.record(metrics.EventRefresh, err)
	return resp, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error) {
	if refreshToken == "" {
		return model.RefreshResponse{}, ErrRefreshTokenRequired
	}

	user, err := s.sessionOwner(ctx, refreshToken)
	if err != nil {
		return model.RefreshResponse{}, err
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return model.RefreshResponse{}, err
	}

	return model.RefreshResponse{AccessToken: access}, nil
}

// Logout ends the session the refresh token belongs to. It never fails: a
// missing, invalid or superseded token simply ends nothing.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		s.metrics.AuthEvent(metrics.EventLogout, metrics.OutcomeRejected)
		return
	}

	user, err := s.sessionOwner(ctx, refreshToken)
	if err != nil {
		s.record(metrics.EventLogout, err)
		return
	}

	err = s.repo.UpdateRefreshTokenHash(ctx, user.ID, nil)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		slog.ErrorContext(ctx, "clearing refresh token failed", "user_id", user.ID, "error", err)
	}
	s.record(metrics.EventLogout, err)
}

// Me returns the public profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.Public(), nil
}

// sessionOwner resolves the user whose current session refreshToken is.
func (s *AuthService) sessionOwner(ctx context.Context, refreshToken string) (*model.User, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("loading session owner: %w", err)
	}

	if !user.HasSession() || !s.hasher.Verify(refreshToken, *user.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	return user, nil
}

// startSession issues a token pair for user and stores the refresh token hash,
// replacing whatever session the user had.
func (s *AuthService) startSession(ctx context.Context, user *model.User) (model.AuthResponse, error) {
	resp, hash, err := s.issueSession(user)
	if err != nil {
		return model.AuthResponse{}, err
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return model.AuthResponse{}, fmt.Errorf("storing refresh token: %w", err)
	}
	user.RefreshTokenHash = &hash

	return resp, nil
}

// issueSession signs a token pair for user and hashes the refresh token.
func (s *AuthService) issueSession(user *model.User) (model.AuthResponse, string, error) {
	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return model.AuthResponse{}, "", err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return model.AuthResponse{}, "", err
	}

	hash, err := s.hasher.Hash(refresh)
	if err != nil {
		return model.AuthResponse{}, "", err
	}

	return model.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Public(),
	}, hash, nil
}

func (s *AuthService) record(event string, err error) {
	switch {
	case err == nil:
		s.metrics.AuthEvent(event, metrics.OutcomeSuccess)
	case isClientError(err):
		s.metrics.AuthEvent(event, metrics.OutcomeRejected)
	default:
		s.metrics.AuthEvent(event, metrics.OutcomeError)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrRefreshTokenRequired) ||
		errors.Is(err, ErrInvalidRefreshToken)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
