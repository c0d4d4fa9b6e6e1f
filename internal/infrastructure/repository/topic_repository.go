package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"codenest/internal/domain"
)

// RoadmapCache: кеш роадмапа (redis). Может быть nil.
type RoadmapCache interface {
	GetRoadmap(ctx context.Context, language domain.Language) ([]domain.Topic, bool)
	SetRoadmap(ctx context.Context, language domain.Language, topics []domain.Topic)
	InvalidateRoadmap(ctx context.Context, language domain.Language)
}

type TopicRepository struct {
	db    *gorm.DB
	cache RoadmapCache
	group singleflight.Group
}

func NewTopicRepository(db *gorm.DB, cache RoadmapCache) *TopicRepository {
	return &TopicRepository{db: db, cache: cache}
}

// Roadmap возвращает темы языка по порядку вместе с тестами
func (r *TopicRepository) Roadmap(ctx context.Context, language domain.Language) ([]domain.Topic, error) {
	if r.cache != nil {
		if topics, ok := r.cache.GetRoadmap(ctx, language); ok {
			return topics, nil
		}
	}

	// Одновременные промахи кеша идут в БД одним запросом
	v, err, _ := r.group.Do(string(language), func() (interface{}, error) {
		var topics []domain.Topic
		err := r.db.WithContext(ctx).
			Preload("TestCases", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
			Where("language = ?", language).
			Order("topic_order asc").
			Find(&topics).Error
		if err != nil {
			return nil, err
		}
		if r.cache != nil && len(topics) > 0 {
			r.cache.SetRoadmap(ctx, language, topics)
		}
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Topic), nil
}

func (r *TopicRepository) Get(ctx context.Context, language domain.Language, order int) (*domain.Topic, []domain.Topic, error) {
	roadmap, err := r.Roadmap(ctx, language)
	if err != nil {
		return nil, nil, err
	}
	for i := range roadmap {
		if roadmap[i].Order == order {
			t := roadmap[i]
			return &t, roadmap, nil
		}
	}
	return nil, roadmap, domain.ErrTopicNotFound
}

// ReplaceRoadmap перезаливает темы языка (используется при сиде каталога)
func (r *TopicRepository) ReplaceRoadmap(ctx context.Context, language domain.Language, topics []domain.Topic) error {
	sort.Slice(topics, func(i, j int) bool { return topics[i].Order < topics[j].Order })
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&domain.Topic{}).Where("language = ?", language).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("topic_id IN ?", ids).Delete(&domain.TestCase{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&domain.Topic{}).Error; err != nil {
				return err
			}
		}
		for i := range topics {
			t := &topics[i]
			if t.Order <= 0 {
				return fmt.Errorf("topic %q: %w", t.Title, domain.ErrInvalidTopicOrder)
			}
			t.ID = uuid.New()
			t.Language = language
			for j := range t.TestCases {
				t.TestCases[j].ID = 0
				t.TestCases[j].Position = j + 1
			}
			if err := tx.Create(t).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("duplicate topic order %d for %s: %w", t.Order, language, err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.InvalidateRoadmap(ctx, language)
	}
	return nil
}
