package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	XPPerLevel         = 500
	ExecutionXP        = 10
	ExecutionPoints    = 10
	TopicCompletionXP  = 50
	ExplainErrorXP     = 5
	ComplexityXP       = 10
	ActivityWindowDays = 365
)

// Progress: игровой прогресс пользователя. Меняется только через методы ниже,
// репозиторий сохраняет запись целиком.
type Progress struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	XP               int       `gorm:"default:0"`
	Level            int       `gorm:"default:1"`
	Streak           int       `gorm:"default:0"`
	LongestStreak    int       `gorm:"default:0"`
	LastActivityDate *Day      `gorm:"type:varchar(10)"`

	Skills SkillMetrics `gorm:"embedded;embeddedPrefix:skill_"`

	// Оптимистичная блокировка
	Version int `gorm:"not null;default:0"`

	ActivityLogs    []ActivityLog    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	CompletedTopics []CompletedTopic `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Badges          []Badge          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Progress) TableName() string { return "progress" }

type ActivityLog struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Date        Day       `gorm:"primaryKey;type:varchar(10)"`
	Submissions int       `gorm:"default:0"`
	Points      int       `gorm:"default:0"`
}

type CompletedTopic struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TopicOrder int       `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time
}

type Badge struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Name     string    `gorm:"primaryKey;size:64" json:"name"`
	Icon     string    `json:"icon"`
	EarnedAt time.Time `json:"earnedAt"`
}

func NewProgress(userID uuid.UUID) *Progress {
	return &Progress{UserID: userID, Level: 1}
}

// Clone делает глубокую копию, по ней репозиторий находит изменения
func (p *Progress) Clone() *Progress {
	c := *p
	if p.LastActivityDate != nil {
		d := *p.LastActivityDate
		c.LastActivityDate = &d
	}
	c.ActivityLogs = append([]ActivityLog(nil), p.ActivityLogs...)
	c.CompletedTopics = append([]CompletedTopic(nil), p.CompletedTopics...)
	c.Badges = append([]Badge(nil), p.Badges...)
	return &c
}

func (p *Progress) HasCompleted(order int) bool {
	for _, ct := range p.CompletedTopics {
		if ct.TopicOrder == order {
			return true
		}
	}
	return false
}

func (p *Progress) CompletedSet() map[int]bool {
	set := make(map[int]bool, len(p.CompletedTopics))
	for _, ct := range p.CompletedTopics {
		set[ct.TopicOrder] = true
	}
	return set
}

// Номера пройденных тем по возрастанию
func (p *Progress) CompletedOrders() []int {
	orders := make([]int, 0, len(p.CompletedTopics))
	for _, ct := range p.CompletedTopics {
		orders = append(orders, ct.TopicOrder)
	}
	sort.Ints(orders)
	return orders
}

func (p *Progress) HasBadge(name string) bool {
	for _, b := range p.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Повторная выдача значка не ошибка: возвращаем false и ничего не меняем
func (p *Progress) AwardBadge(name, icon string, at time.Time) (bool, error) {
	if name == "" {
		return false, ErrEmptyBadgeName
	}
	if p.HasBadge(name) {
		return false, nil
	}
	p.Badges = append(p.Badges, Badge{UserID: p.UserID, Name: name, Icon: icon, EarnedAt: at})
	return true, nil
}

type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	XP       int       `json:"xp"`
	Level    int       `json:"level"`
	Streak   int       `json:"streak"`
}
