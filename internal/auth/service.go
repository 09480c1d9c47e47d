package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/store"
)

const msgBadCredentials = "unable to log in with provided credentials"

// Service registers accounts and issues, checks and revokes API tokens.
type Service struct {
	accounts *store.AccountStore
	sessions *store.SessionStore
	tokens   *TokenIssuer
	ttl      time.Duration
	logger   *slog.Logger
}

func NewService(accounts *store.AccountStore, sessions *store.SessionStore, tokens *TokenIssuer, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		logger:   logger.With("component", "auth"),
	}
}

// CreateAccount hashes password and stores a new active account. An empty
// password creates an account that cannot log in.
func (s *Service) CreateAccount(ctx context.Context, email, password string, isAdmin bool) (*model.Account, error) {
	return s.CreateAccountWithStatus(ctx, email, password, true, isAdmin)
}

// CreateAccountWithStatus is CreateAccount with an explicit active flag.
func (s *Service) CreateAccountWithStatus(ctx context.Context, email, password string, isActive, isAdmin bool) (*model.Account, error) {
	if email == "" {
		return nil, apperr.Invalid("email", "this field is required")
	}
	var hash string
	if password != "" {
		var err error
		hash, err = HashPassword(password)
		if err != nil {
			return nil, apperr.Internal("create account", err)
		}
	}
	return s.accounts.Insert(ctx, email, hash, isActive, isAdmin)
}

// Register creates a regular account and logs it in.
func (s *Service) Register(ctx context.Context, email, password string) (*model.Account, string, error) {
	account, err := s.CreateAccount(ctx, email, password, false)
	if err != nil {
		return nil, "", err
	}
	token, err := s.issue(ctx, account.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("account registered", "account_id", account.ID)
	return account, token, nil
}

// Login checks credentials and returns a fresh token. Unknown email, wrong
// password and inactive account all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Account, string, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.ENotFound) {
			return nil, "", apperr.Invalid("non_field_errors", msgBadCredentials)
		}
		return nil, "", err
	}
	if !CheckPassword(account.PasswordHash, password) || !account.IsActive {
		return nil, "", apperr.Invalid("non_field_errors", msgBadCredentials)
	}
	token, err := s.issue(ctx, account.ID)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

func (s *Service) issue(ctx context.Context, accountID int64) (string, error) {
	sess, err := s.sessions.Create(ctx, accountID, s.ttl)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.Issue(accountID, sess.Token, sess.ExpiresAt)
	if err != nil {
		return "", apperr.Internal("issue token", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to the caller identity. The token
// must be validly signed, unexpired, backed by a live session and belong to
// an active account.
func (s *Service) Authenticate(ctx context.Context, raw string) (AuthContext, error) {
	accountID, sessionToken, err := s.tokens.Parse(raw)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		return AuthContext{}, apperr.Unauthorized("invalid token")
	}
	sess, err := s.sessions.GetByToken(ctx, sessionToken)
	if err != nil {
		return AuthContext{}, err
	}
	if sess.AccountID != accountID {
		return AuthContext{}, apperr.Unauthorized("invalid token")
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if apperr.Is(err, apperr.ENotFound) {
			return AuthContext{}, apperr.Unauthorized("invalid token")
		}
		return AuthContext{}, err
	}
	if !account.IsActive {
		return AuthContext{}, apperr.Unauthorized("account disabled")
	}
	return AuthContext{
		AccountID: account.ID,
		IsAdmin:   account.IsAdmin,
		SessionID: sess.ID,
		Account:   account,
	}, nil
}

// Logout revokes the session behind the current token.
func (s *Service) Logout(ctx context.Context, sessionID int64) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ChangePassword verifies oldPassword, stores the new hash and revokes
// every other session of the account. The calling session stays valid.
func (s *Service) ChangePassword(ctx context.Context, ac AuthContext, oldPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, ac.AccountID)
	if err != nil {
		return err
	}
	if !CheckPassword(account.PasswordHash, oldPassword) {
		return apperr.Invalid("old_password", "your old password was entered incorrectly")
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("change password", err)
	}
	if err := s.accounts.SetPassword(ctx, account.ID, hash); err != nil {
		return err
	}
	if err := s.sessions.DeleteOthers(ctx, account.ID, ac.SessionID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info("password changed", "account_id", account.ID)
	return nil
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}
