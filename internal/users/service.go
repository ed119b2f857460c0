package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mercanlabs/storefront-backend/internal/address"
	pkgauth "github.com/mercanlabs/storefront-backend/pkg/auth"
	"github.com/mercanlabs/storefront-backend/pkg/config"
	"github.com/mercanlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput is the payload for creating an account. The address is
// optional; when present it is stored as the user's first saved address.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
	Phone    *string
	Address  *address.Input
}

// AuthResult is a minted credential plus its subject.
type AuthResult struct {
	Token string
	User  *models.User
}

// GuestResult is a minted guest credential.
type GuestResult struct {
	Token     string
	GuestID   string
	ExpiresIn time.Duration
}

// Service handles account lifecycle and credential minting.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	MintGuest(ctx context.Context) (*GuestResult, error)
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo        *Repository
	Tx          txRunner
	Addresses   address.Resolver
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
}

type service struct {
	repo        *Repository
	tx          txRunner
	addresses   address.Resolver
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		addresses:   params.Addresses,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordCfg,
	}, nil
}

// Register creates the account and mints its first token. Email uniqueness
// is checked inside the same transaction as the insert.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         input.Name,
		Phone:        input.Phone,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if err := txRepo.Create(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if input.Address != nil {
			if _, err := s.addresses.WithTx(tx).Resolve(ctx, user.ID, *input.Address); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
	}

	token, err := pkgauth.MintUserToken(s.jwtCfg, time.Now().UTC(), user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and mints a token. Unknown emails and wrong
// passwords read identically.
func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.repo.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	token, err := pkgauth.MintUserToken(s.jwtCfg, now, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResult{Token: token, User: user}, nil
}

// MintGuest issues a self-contained guest credential. No row is written;
// the guest exists only inside the token.
func (s *service) MintGuest(ctx context.Context) (*GuestResult, error) {
	token, guestID, err := pkgauth.MintGuestToken(s.jwtCfg, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint guest jwt")
	}
	return &GuestResult{
		Token:     token,
		GuestID:   guestID,
		ExpiresIn: s.jwtCfg.GuestTTL(),
	}, nil
}
