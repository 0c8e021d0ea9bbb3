package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/instafit/fieldops-backend/internal/users"
	"github.com/instafit/fieldops-backend/internal/workers"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/security"
	"github.com/instafit/fieldops-backend/pkg/types"
)

const bootstrapActor = "BOOTSTRAP"

func (s *service) Register(ctx context.Context, input RegisterInput) (*users.AccountView, error) {
	phone := strings.TrimSpace(input.PhoneNumber)
	if !phonePattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number must be 10 digits").
			WithDetails(map[string]any{"field": "phoneNumber"})
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required").
			WithDetails(map[string]any{"field": "fullName"})
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.Validationf("invalid role %q", input.Role)
	}
	workerID := strings.ToUpper(strings.TrimSpace(input.WorkerID))
	password := input.Password

	var created *models.UserAccount
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)

		var linked *string
		switch input.Role {
		case enums.ActorRoleWorker:
			worker, err := workers.Resolve(ctx, s.workers.WithTx(tx), workerID)
			if err != nil {
				return err
			}
			if !worker.Active {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "worker is inactive")
			}
			if _, err := accounts.FindByWorkerID(ctx, worker.WorkerID); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "worker already has an account")
			} else if !db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check worker account")
			}
			if password == "" {
				password = worker.Mobile
			}
			linked = &worker.WorkerID
		default:
			if workerID != "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "operator accounts cannot be linked to a worker").
					WithDetails(map[string]any{"field": "workerId"})
			}
		}

		if err := security.ValidatePassword(password); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
				WithDetails(map[string]any{"field": "password"})
		}

		exists, err := accounts.ExistsByPhone(ctx, phone)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
		}

		hash, err := security.HashPassword(password, s.pwCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}

		account := &models.UserAccount{
			PhoneNumber:  phone,
			FullName:     fullName,
			Email:        input.Email,
			Role:         input.Role,
			WorkerID:     linked,
			PasswordHash: hash,
			Active:       true,
			CreatedBy:    actorName(input.Actor),
		}
		if err := accounts.Create(ctx, account); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "phone number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}
		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users.NewAccountView(created), nil
}

// EnsureOperator creates the bootstrap operator account unless its phone
// number is already registered. It reports whether an account was created.
func (s *service) EnsureOperator(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if !cfg.Enabled() {
		return false, nil
	}
	available, err := s.PhoneAvailable(ctx, cfg.OperatorPhone)
	if err != nil || !available {
		return false, err
	}
	_, err = s.Register(ctx, RegisterInput{
		PhoneNumber: cfg.OperatorPhone,
		FullName:    cfg.OperatorName,
		Password:    cfg.OperatorPassword,
		Role:        enums.ActorRoleOperator,
		Actor:       types.SystemActor(bootstrapActor),
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func actorName(actor types.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return "SELF"
}
