package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.ProjectPatch, now time.Time) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	AppendExecution(ctx context.Context, ownerID, id uuid.UUID, rec domain.ExecutionRecord) (*domain.Project, error)
}

type CreateProjectInput struct {
	Name        string
	Description string
	Language    domain.Language
}

// ProjectUseCase: проекты видны только владельцу, чужой id неотличим от несуществующего
type ProjectUseCase struct {
	projects ProjectRepository
	now      func() time.Time
	log      *logger.Logger
}

func NewProjectUseCase(projects ProjectRepository, log *logger.Logger) *ProjectUseCase {
	return &ProjectUseCase{projects: projects, now: time.Now, log: log}
}

func (uc *ProjectUseCase) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	return uc.projects.ListByOwner(ctx, ownerID)
}

func (uc *ProjectUseCase) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	return uc.projects.Get(ctx, ownerID, id)
}

func (uc *ProjectUseCase) Create(ctx context.Context, ownerID uuid.UUID, in CreateProjectInput) (*domain.Project, error) {
	p, err := domain.NewProject(ownerID, in.Name, in.Description, in.Language, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := uc.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.log.Info("project created", "user_id", ownerID, "project_id", p.ID, "language", p.Files[0].Language)
	return p, nil
}

func (uc *ProjectUseCase) Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	return uc.projects.Update(ctx, ownerID, id, patch, uc.now().UTC())
}

func (uc *ProjectUseCase) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := uc.projects.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	uc.log.Info("project deleted", "user_id", ownerID, "project_id", id)
	return nil
}

// RecordExecution: запись в историю запусков, хранится не больше MaxExecutionHistory
func (uc *ProjectUseCase) RecordExecution(ctx context.Context, ownerID, id uuid.UUID, rec domain.ExecutionRecord) (*domain.Project, error) {
	if rec.FileName == "" {
		return nil, domain.ErrEmptyFileName
	}
	if rec.Language != "" {
		lang, err := domain.ParseLanguage(string(rec.Language))
		if err != nil {
			return nil, err
		}
		rec.Language = lang
	}
	if rec.ExecutionTimeMs < 0 || rec.MemoryMB < 0 {
		return nil, domain.ErrInvalidAmount
	}
	rec.Timestamp = uc.now().UTC()
	return uc.projects.AppendExecution(ctx, ownerID, id, rec)
}
