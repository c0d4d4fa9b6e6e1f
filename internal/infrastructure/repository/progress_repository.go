package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"codenest/internal/domain"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Create(ctx context.Context, p *domain.Progress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProgressRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	return r.load(r.db.WithContext(ctx), userID)
}

// Update: атомарный read-modify-write. Читаем запись, применяем fn и пишем
// в той же транзакции с проверкой версии. Если кто-то успел раньше, возвращаем
// ErrConcurrentUpdate и ничего не сохраняем.
func (r *ProgressRepository) Update(ctx context.Context, userID uuid.UUID, fn func(p *domain.Progress) error) (*domain.Progress, error) {
	var updated *domain.Progress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.load(tx, userID)
		if err != nil {
			return err
		}
		before := p.Clone()
		if err := fn(p); err != nil {
			return err
		}
		if err := r.save(tx, before, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProgressRepository) load(tx *gorm.DB, userID uuid.UUID) (*domain.Progress, error) {
	var p domain.Progress
	err := tx.
		Preload("ActivityLogs", func(db *gorm.DB) *gorm.DB { return db.Order("date asc") }).
		Preload("CompletedTopics", func(db *gorm.DB) *gorm.DB { return db.Order("topic_order asc") }).
		Preload("Badges", func(db *gorm.DB) *gorm.DB { return db.Order("earned_at asc") }).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) save(tx *gorm.DB, before, after *domain.Progress) error {
	after.Version = before.Version + 1
	res := tx.Model(&domain.Progress{}).
		Where("user_id = ? AND version = ?", before.UserID, before.Version).
		Updates(map[string]interface{}{
			"xp":                    after.XP,
			"level":                 after.Level,
			"streak":                after.Streak,
			"longest_streak":        after.LongestStreak,
			"last_activity_date":    after.LastActivityDate,
			"skill_syntax":          after.Skills.Syntax,
			"skill_logic":           after.Skills.Logic,
			"skill_data_structures": after.Skills.DataStructures,
			"skill_optimization":    after.Skills.Optimization,
			"version":               after.Version,
			"updated_at":            time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		after.Version = before.Version
		return domain.ErrConcurrentUpdate
	}

	if logs := changedActivity(before.ActivityLogs, after.ActivityLogs); len(logs) > 0 {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"submissions", "points"}),
		}).Create(&logs).Error
		if err != nil {
			return err
		}
	}

	if topics := addedTopics(before, after); len(topics) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&topics).Error; err != nil {
			return err
		}
	}

	if badges := addedBadges(before, after); len(badges) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badges).Error; err != nil {
			return err
		}
	}
	return nil
}

func changedActivity(before, after []domain.ActivityLog) []domain.ActivityLog {
	prev := make(map[domain.Day]domain.ActivityLog, len(before))
	for _, l := range before {
		prev[l.Date] = l
	}
	var out []domain.ActivityLog
	for _, l := range after {
		if old, ok := prev[l.Date]; ok && old == l {
			continue
		}
		out = append(out, l)
	}
	return out
}

func addedTopics(before, after *domain.Progress) []domain.CompletedTopic {
	var out []domain.CompletedTopic
	for _, ct := range after.CompletedTopics {
		if !before.HasCompleted(ct.TopicOrder) {
			ct.UserID = after.UserID
			out = append(out, ct)
		}
	}
	return out
}

func addedBadges(before, after *domain.Progress) []domain.Badge {
	var out []domain.Badge
	for _, b := range after.Badges {
		if !before.HasBadge(b.Name) {
			b.UserID = after.UserID
			out = append(out, b)
		}
	}
	return out
}

func (r *ProgressRepository) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("progress").
		Select("progress.user_id, users.username, progress.xp, progress.level, progress.streak").
		Joins("JOIN users ON users.id = progress.user_id").
		Order("progress.xp DESC, users.username ASC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// Место в рейтинге: сколько пользователей набрали больше опыта, плюс один
func (r *ProgressRepository) GetUserRank(ctx context.Context, userID uuid.UUID) (int, error) {
	var xp int
	err := r.db.WithContext(ctx).Model(&domain.Progress{}).
		Select("xp").
		Where("user_id = ?", userID).
		Scan(&xp).Error
	if err != nil {
		return 0, err
	}

	var ahead int64
	err = r.db.WithContext(ctx).Model(&domain.Progress{}).
		Where("xp > ?", xp).
		Count(&ahead).Error
	return int(ahead) + 1, err
}
