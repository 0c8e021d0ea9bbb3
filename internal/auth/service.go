package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/instafit/fieldops-backend/internal/users"
	"github.com/instafit/fieldops-backend/internal/workers"
	pkgAuth "github.com/instafit/fieldops-backend/pkg/auth"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	tokenType                 = "Bearer"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Service authenticates accounts and manages their registration.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, input RegisterInput) (*users.AccountView, error)
	PhoneAvailable(ctx context.Context, phone string) (bool, error)
	EnsureOperator(ctx context.Context, cfg config.BootstrapConfig) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts users.Repository
	Workers  workers.Repository
	Tx       txRunner
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Now      func() time.Time
}

type service struct {
	accounts users.Repository
	workers  workers.Repository
	tx       txRunner
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository is required")
	}
	if params.Workers == nil {
		return nil, fmt.Errorf("workers repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts: params.Accounts,
		workers:  params.Workers,
		tx:       params.Tx,
		jwtCfg:   params.JWT,
		pwCfg:    params.Password,
		now:      now,
	}, nil
}

// Login verifies the credentials and mints an access token. Worker accounts
// carry the worker id as token subject; operators carry their phone number.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.authenticate(ctx, req.PhoneNumber, req.Password)
	if err != nil {
		return nil, err
	}

	subject := account.PhoneNumber
	if account.Role == enums.ActorRoleWorker {
		if account.WorkerID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		worker, err := s.workers.FindByWorkerID(ctx, *account.WorkerID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load worker")
		}
		if !worker.Active {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		subject = worker.WorkerID
	}

	now := s.now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	account.LastLoginAt = &now

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Subject: subject,
		Name:    account.FullName,
		Role:    account.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Account:     users.NewAccountView(account),
	}, nil
}

func (s *service) authenticate(ctx context.Context, phone, password string) (*models.UserAccount, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	account, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}

	valid, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !account.Active {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return account, nil
}

// PhoneAvailable reports whether no account uses the phone number yet.
func (s *service) PhoneAvailable(ctx context.Context, phone string) (bool, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "phone number must be 10 digits").
			WithDetails(map[string]any{"field": "phoneNumber"})
	}
	exists, err := s.accounts.ExistsByPhone(ctx, phone)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
	}
	return !exists, nil
}
