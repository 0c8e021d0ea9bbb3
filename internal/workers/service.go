package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/db/models"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
)

type Service interface {
	Get(ctx context.Context, workerID string) (*models.Worker, error)
	List(ctx context.Context, activeOnly bool) ([]models.Worker, error)
	Create(ctx context.Context, input CreateInput) (*models.Worker, error)
	Update(ctx context.Context, workerID string, input UpdateInput) (*models.Worker, error)
}

type CreateInput struct {
	WorkerID   string
	Name       string
	Mobile     string
	CityCode   *string
	BranchCode *string
	BranchDesc *string
}

// UpdateInput fields left nil are unchanged.
type UpdateInput struct {
	Name       *string
	Mobile     *string
	CityCode   *string
	BranchCode *string
	BranchDesc *string
	Active     *bool
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("workers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, workerID string) (*models.Worker, error) {
	return Resolve(ctx, s.repo, workerID)
}

// Resolve loads a worker and maps a miss to NOT_FOUND.
func Resolve(ctx context.Context, repo Repository, workerID string) (*models.Worker, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}
	worker, err := repo.FindByWorkerID(ctx, workerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFoundf("worker %s not found", workerID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load worker")
	}
	return worker, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Worker, error) {
	workers, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list workers")
	}
	return workers, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Worker, error) {
	worker := &models.Worker{
		WorkerID:   strings.TrimSpace(input.WorkerID),
		Name:       strings.TrimSpace(input.Name),
		Mobile:     strings.TrimSpace(input.Mobile),
		CityCode:   input.CityCode,
		BranchCode: input.BranchCode,
		BranchDesc: input.BranchDesc,
		Active:     true,
	}
	if worker.WorkerID == "" || worker.Name == "" || worker.Mobile == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "worker id, name and mobile are required")
	}
	if err := s.repo.Create(ctx, worker); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "worker id or mobile already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create worker")
	}
	return worker, nil
}

func (s *service) Update(ctx context.Context, workerID string, input UpdateInput) (*models.Worker, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Mobile != nil {
		updates["mobile"] = strings.TrimSpace(*input.Mobile)
	}
	if input.CityCode != nil {
		updates["city_code"] = *input.CityCode
	}
	if input.BranchCode != nil {
		updates["branch_code"] = *input.BranchCode
	}
	if input.BranchDesc != nil {
		updates["branch_desc"] = *input.BranchDesc
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if err := s.repo.Update(ctx, workerID, updates); err != nil {
		switch {
		case db.IsNotFound(err):
			return nil, pkgerrors.NotFoundf("worker %s not found", workerID)
		case db.IsUniqueViolation(err, ""):
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "mobile already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update worker")
	}
	return Resolve(ctx, s.repo, workerID)
}
