package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

type RoadmapCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRoadmapCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RoadmapCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RoadmapCache{client: client, ttl: ttl, log: log}
}

func roadmapKey(language domain.Language) string {
	return "topics:roadmap:" + string(language)
}

func (c *RoadmapCache) GetRoadmap(ctx context.Context, language domain.Language) ([]domain.Topic, bool) {
	val, err := c.client.Get(ctx, roadmapKey(language)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("roadmap cache read failed", "language", language, "error", err)
		}
		return nil, false
	}
	var topics []domain.Topic
	if err := json.Unmarshal([]byte(val), &topics); err != nil {
		return nil, false
	}
	return topics, true
}

func (c *RoadmapCache) SetRoadmap(ctx context.Context, language domain.Language, topics []domain.Topic) {
	data, err := json.Marshal(topics)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, roadmapKey(language), data, c.ttl).Err(); err != nil {
		c.log.Warn("roadmap cache write failed", "language", language, "error", err)
	}
}

func (c *RoadmapCache) InvalidateRoadmap(ctx context.Context, language domain.Language) {
	if err := c.client.Del(ctx, roadmapKey(language)).Err(); err != nil {
		c.log.Warn("roadmap cache invalidate failed", "language", language, "error", err)
	}
}
