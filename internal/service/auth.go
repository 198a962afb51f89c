package service

import (
	"context"
	"errors"
	"time"

	"github.com/dmarkov/contenthub/internal/hash"
	"github.com/dmarkov/contenthub/internal/logging"
	"github.com/dmarkov/contenthub/internal/models"
	"github.com/dmarkov/contenthub/internal/mykafka"
	"github.com/dmarkov/contenthub/internal/repo"
	"github.com/dmarkov/contenthub/internal/tokens"
)

var (
	// ErrInvalidCredentials deliberately covers both unknown usernames and
	// wrong passwords so login responses cannot be used for enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("refresh token missing")
	ErrInvalidToken       = errors.New("invalid refresh token")
)

type AuthService struct {
	Users         *repo.UserRepo
	Producer      *mykafka.Producer
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	user, err := s.Users.CreateUser(ctx, username, password, role)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateUsername) {
			l.Warn("register_failed", "reason", "duplicate username")
			return nil, err
		}
		l.Error("register_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, "user_registered", user)
	l.Info("user_registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. The new refresh
// token overwrites whatever token the user row held, so any previously
// issued refresh token stops passing the equality check from this point on.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := tokens.IssueAccess(user.ID, user.Username, user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	refreshToken, err := tokens.IssueRefresh(user.ID, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if err := s.Users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}
	user.RefreshToken = &refreshToken

	s.publish(ctx, "user_logged_in", user)
	l.Info("login_successful", "user_id", user.ID)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a currently registered refresh token for a new access
// token. The presented token must byte-for-byte match the one stored on the
// user row; a well-signed but superseded token fails here. The refresh token
// itself is not rotated — it stays valid until expiry or the next login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return "", ErrMissingToken
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "verification failed")
		return "", ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		l.Warn("refresh_failed", "reason", "bad subject claim")
		return "", ErrInvalidToken
	}

	user, err := s.Users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("refresh_failed", "reason", "user not found", "user_id", userID)
			return "", ErrInvalidToken
		}
		l.Error("refresh_failed", "error", err)
		return "", err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		l.Warn("refresh_failed", "reason", "token superseded", "user_id", userID)
		return "", ErrInvalidToken
	}

	accessToken, err := tokens.IssueAccess(user.ID, user.Username, user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return "", err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return accessToken, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *models.User) {
	event := map[string]interface{}{
		"type":     eventType,
		"user_id":  user.ID,
		"username": user.Username,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Producer.PublishEvent(pubCtx, "user_events", user.Username, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
