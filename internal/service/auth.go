package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/tokens"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type AuthService struct {
	Repo   SessionStore
	Tokens Issuer
	Hasher PasswordHasher
	Users  *UserService
}

type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Register creates a regular user with an empty cart.
func (s *AuthService) Register(ctx context.Context, p Profile) (*models.User, error) {
	p.Role = models.RoleUser
	return s.Users.Create(ctx, p)
}

func (s *AuthService) Login(ctx context.Context, c Credentials) (*LoginResult, error) {
	principal := strings.TrimSpace(c.Username)
	if principal == "" {
		principal = strings.TrimSpace(c.Email)
	}
	l := logging.FromContext(ctx).With("svc", "auth.login", "principal", principal)

	user, err := s.findPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown principal")
			return nil, fmt.Errorf("%w: Bad credentials", domain.ErrNoAuthentication)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !s.Hasher.Verify(c.Password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		return nil, fmt.Errorf("%w: Bad credentials", domain.ErrNoAuthentication)
	}

	access, refresh, err := s.issuePair(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	taken, err := s.alreadyStored(ctx, access, refresh)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if taken {
		l.Info("token_collision", "reason", "regenerating token pair")
		if access, refresh, err = s.issuePair(user.Username); err != nil {
			l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
			return nil, err
		}
	}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		rt, err := tx.SaveRefreshToken(ctx, refresh)
		if err != nil {
			return err
		}
		_, err = tx.SaveAccessToken(ctx, access, user, rt, nil)
		return err
	})
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store session", "error", err)
		return nil, err
	}

	l.Info("login_succeeded", "user_id", user.ID)
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// RefreshToken issues a new access token for the session that owns refresh.
// The row of the presented access token is overwritten when it still exists.
func (s *AuthService) RefreshToken(ctx context.Context, access, refresh string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if strings.TrimSpace(refresh) == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "no refresh token")
		return "", fmt.Errorf("%w: No refresh token is presented", domain.ErrNoAuthentication)
	}

	rt, err := s.Repo.FindRefreshToken(ctx, refresh)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown refresh token")
			return "", fmt.Errorf("%w: refresh token is not recognised", domain.ErrNoAuthentication)
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}

	user, err := s.resolveUser(ctx, refresh)
	if err != nil {
		l.Warn("refresh_failed", "reason", "cannot resolve user", "error", err)
		return "", err
	}

	var existing *models.AccessToken
	if access != "" {
		existing, err = s.Repo.FindAccessToken(ctx, access)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			existing = nil
		case err != nil:
			l.Error("refresh_failed", "status", 500, "error", err)
			return "", err
		case existing.UserID != user.ID:
			existing = nil
		}
	}

	next, err := s.Tokens.IssueAccessToken(user.Username)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return "", err
	}
	if _, err := s.Repo.SaveAccessToken(ctx, next, user, rt, existing); err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot store session", "error", err)
		return "", err
	}

	l.Info("token_refreshed", "user_id", user.ID, "reused_row", existing != nil)
	return next, nil
}

// Logout revokes the session of access. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, access string) error {
	if access == "" {
		return nil
	}
	if err := s.Repo.DeleteAccessToken(ctx, access); err != nil {
		logging.FromContext(ctx).Error("logout_failed", "svc", "auth.logout", "error", err)
		return err
	}
	return nil
}

// TerminateOtherSessions revokes every session of the caller except the one
// identified by access.
func (s *AuthService) TerminateOtherSessions(ctx context.Context, access string) error {
	l := logging.FromContext(ctx).With("svc", "auth.terminate_other")

	user, err := s.Authenticate(ctx, access)
	if err != nil {
		return err
	}

	var revoked int
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		n, err := terminateOthers(ctx, tx, user.ID, access)
		revoked = n
		return err
	})
	if err != nil {
		l.Error("terminate_failed", "status", 500, "user_id", user.ID, "error", err)
		return err
	}

	l.Info("sessions_terminated", "user_id", user.ID, "count", revoked)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, access, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	user, err := s.Authenticate(ctx, access)
	if err != nil {
		return err
	}
	l = l.With("user_id", user.ID)

	if !s.Hasher.Verify(current, user.PasswordHash) {
		l.Warn("change_password_failed", "status", 401, "reason", "password mismatch")
		return fmt.Errorf("%w: Passwords do not match", domain.ErrNoAuthentication)
	}
	if strings.TrimSpace(next) == "" {
		l.Warn("change_password_failed", "status", 400, "reason", "blank password")
		return fmt.Errorf("%w: new password cannot be blank", domain.ErrInvalidInput)
	}

	digest, err := s.Hasher.Hash(next)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = digest

	var revoked int
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		n, err := terminateOthers(ctx, tx, user.ID, access)
		revoked = n
		return err
	})
	if err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("password_changed", "terminated_sessions", revoked)
	return nil
}

// Authenticate returns the owner of access. The token must verify and its
// session must still be stored.
func (s *AuthService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	if access == "" {
		return nil, fmt.Errorf("%w: no access token", domain.ErrNoAuthentication)
	}
	username, err := s.username(access)
	if err != nil {
		return nil, err
	}

	tok, err := s.Repo.FindAccessToken(ctx, access)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: session is revoked", domain.ErrNoAuthentication)
		}
		return nil, err
	}

	user, err := s.Repo.FindUserByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", domain.ErrNoAuthentication)
		}
		return nil, err
	}
	if user.Username != username {
		return nil, fmt.Errorf("%w: token subject mismatch", domain.ErrNoAuthentication)
	}
	return user, nil
}

func (s *AuthService) findPrincipal(ctx context.Context, principal string) (*models.User, error) {
	if principal == "" {
		return nil, fmt.Errorf("blank principal: %w", domain.ErrNotFound)
	}
	user, err := s.Repo.FindUserByUsername(ctx, principal)
	if errors.Is(err, domain.ErrNotFound) {
		return s.Repo.FindUserByEmail(ctx, principal)
	}
	return user, err
}

func (s *AuthService) issuePair(username string) (string, string, error) {
	access, err := s.Tokens.IssueAccessToken(username)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Tokens.IssueRefreshToken(username)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

func (s *AuthService) alreadyStored(ctx context.Context, access, refresh string) (bool, error) {
	if _, err := s.Repo.FindAccessToken(ctx, access); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if _, err := s.Repo.FindRefreshToken(ctx, refresh); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	return false, nil
}

func (s *AuthService) username(token string) (string, error) {
	username, err := s.Tokens.ExtractUsername(token)
	switch {
	case err == nil:
		return username, nil
	case errors.Is(err, tokens.ErrExpired):
		return "", fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	default:
		return "", fmt.Errorf("%w: %v", domain.ErrNoAuthentication, err)
	}
}

func (s *AuthService) resolveUser(ctx context.Context, token string) (*models.User, error) {
	username, err := s.username(token)
	if err != nil {
		return nil, err
	}
	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", domain.ErrNoAuthentication)
		}
		return nil, err
	}
	return user, nil
}

func terminateOthers(ctx context.Context, tx SessionStore, userID uint, current string) (int, error) {
	others, err := tx.ListOtherSessions(ctx, userID, current)
	if err != nil {
		return 0, err
	}
	if err := tx.DeleteAll(ctx, others); err != nil {
		return 0, err
	}
	return len(others), nil
}
