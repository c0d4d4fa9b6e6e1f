package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"codenest/internal/domain"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func withProjectChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Executions", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// Create сохраняет проект вместе с файлами
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ListByOwner: проекты пользователя, свежие сверху
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := withProjectChildren(r.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("updated_at desc").
		Find(&projects).Error
	return projects, err
}

// Get ищет проект только среди проектов владельца, чужой id даёт ErrProjectNotFound
func (r *ProjectRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	return r.load(r.db.WithContext(ctx), ownerID, id)
}

func (r *ProjectRepository) load(tx *gorm.DB, ownerID, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := withProjectChildren(tx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update применяет patch внутри транзакции. Файлы при замене переписываются целиком.
func (r *ProjectRepository) Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.ProjectPatch, now time.Time) (*domain.Project, error) {
	var updated *domain.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.load(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := p.Apply(patch, now); err != nil {
			return err
		}
		err = tx.Model(&domain.Project{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"active_file": p.ActiveFile,
			"updated_at":  p.UpdatedAt,
		}).Error
		if err != nil {
			return err
		}
		if patch.FilesChanged() {
			if err := tx.Where("project_id = ?", p.ID).Delete(&domain.ProjectFile{}).Error; err != nil {
				return err
			}
			if len(p.Files) > 0 {
				if err := tx.Create(&p.Files).Error; err != nil {
					return err
				}
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete удаляет проект владельца вместе с файлами и историей
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&domain.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrProjectNotFound
		}
		if err := tx.Where("project_id = ?", id).Delete(&domain.ProjectFile{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", id).Delete(&domain.ExecutionRecord{}).Error
	})
}

// AppendExecution дописывает запуск в историю и обрезает её до MaxExecutionHistory
func (r *ProjectRepository) AppendExecution(ctx context.Context, ownerID, id uuid.UUID, rec domain.ExecutionRecord) (*domain.Project, error) {
	var updated *domain.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.load(tx, ownerID, id)
		if err != nil {
			return err
		}
		rec.ID = 0
		rec.ProjectID = p.ID
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		keep := tx.Model(&domain.ExecutionRecord{}).
			Select("id").
			Where("project_id = ?", p.ID).
			Order("id desc").
			Limit(domain.MaxExecutionHistory)
		err = tx.Where("project_id = ? AND id NOT IN (?)", p.ID, keep).
			Delete(&domain.ExecutionRecord{}).Error
		if err != nil {
			return err
		}
		err = tx.Model(&domain.Project{}).Where("id = ?", p.ID).Update("updated_at", rec.Timestamp).Error
		if err != nil {
			return err
		}
		p.RecordExecution(rec)
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
