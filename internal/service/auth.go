package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/port/database"
	"github.com/Strob0t/DealerForge/internal/resilience"
)

// AuthService handles login and self-service account operations.
type AuthService struct {
	store  database.Store
	tokens *TokenService
	cfg    *config.Auth
	hashes *resilience.Pool

	// dummyHash is compared against when the username is unknown. It uses
	// the configured cost so both rejections take the same time.
	dummyHash func() []byte
}

// NewAuthService creates an AuthService.
func NewAuthService(store database.Store, tokens *TokenService, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		dummyHash: sync.OnceValue(func() []byte {
			h, err := bcrypt.GenerateFromPassword([]byte("dealerforge-dummy-password"), cfg.BcryptCost)
			if err != nil {
				slog.Error("generate dummy hash", "error", err)
			}
			return h
		}),
	}
}

// SetHashPool bounds concurrent bcrypt work. Without a pool every request
// hashes immediately.
func (s *AuthService) SetHashPool(p *resilience.Pool) { s.hashes = p }

// HashPassword hashes pw with the configured bcrypt cost.
func (s *AuthService) HashPassword(ctx context.Context, pw string) (string, error) {
	var h []byte
	err := s.hashes.Run(ctx, func() (err error) {
		h, err = bcrypt.GenerateFromPassword([]byte(pw), s.cfg.BcryptCost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// passwordMatches compares pw against hash. Only a pool wait cut short by
// ctx is returned as an error.
func (s *AuthService) passwordMatches(ctx context.Context, hash []byte, pw string) (bool, error) {
	var match bool
	err := s.hashes.Run(ctx, func() error {
		match = bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
		return nil
	})
	return match, err
}

// Login checks credentials and issues an access token. Users of a blocked
// or missing tenant are refused with domain.ErrTenantSuspended.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	u, err := s.store.GetUserByUsername(ctx, user.NormalizeUsername(req.Username))
	if errors.Is(err, domain.ErrNotFound) {
		if _, err := s.passwordMatches(ctx, s.dummyHash(), req.Password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if ok, err := s.passwordMatches(ctx, []byte(u.PasswordHash), req.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	} else if !ok {
		slog.InfoContext(ctx, "login rejected", "username", u.Username)
		return nil, domain.ErrInvalidCredentials
	}

	if u.TenantID != "" {
		status, err := s.store.GetTenantStatus(ctx, u.TenantID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrTenantSuspended
		case err != nil:
			return nil, fmt.Errorf("login tenant status: %w", err)
		case status != tenant.StatusActive:
			return nil, domain.ErrTenantSuspended
		}
	}

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "login", "user_id", u.ID, "tenant_id", u.TenantID)
	return &user.LoginResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        *u,
		Privilege:   user.ResolvePrivilege(u.Role, u.TenantID, u.Username, s.cfg.LegacyAdminUsername),
	}, nil
}

// Me returns the account of the caller.
func (s *AuthService) Me(ctx context.Context) (*user.User, error) {
	rc := auth.FromContext(ctx)
	if rc == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.GetUser(ctx, rc.UserID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, req *user.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	u, err := s.Me(ctx)
	if err != nil {
		return err
	}
	if ok, err := s.passwordMatches(ctx, []byte(u.PasswordHash), req.CurrentPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	} else if !ok {
		return domain.Invalid("current password is incorrect")
	}
	hash, err := s.HashPassword(ctx, req.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, u.ID, hash)
}

// BootstrapSuperAdmin creates a tenant-less super-admin unless the username
// is already taken. It reports whether an account was created.
func (s *AuthService) BootstrapSuperAdmin(ctx context.Context, username, password string) (bool, error) {
	username = user.NormalizeUsername(username)
	if username == "" {
		return false, nil
	}
	if len(password) < 8 {
		return false, domain.Invalid("super-admin password must be at least 8 characters")
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("bootstrap lookup: %w", err)
	}

	hash, err := s.HashPassword(ctx, password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	u := &user.User{Username: username, PasswordHash: hash, Role: user.RoleSuperAdmin, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return false, fmt.Errorf("bootstrap super-admin: %w", err)
	}
	slog.InfoContext(ctx, "super-admin created", "username", username)
	return true, nil
}
