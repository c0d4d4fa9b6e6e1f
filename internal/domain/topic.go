package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Topic: шаг линейного роадмапа. Тема N открывается после прохождения темы N-1.
type Topic struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Language         Language   `gorm:"size:16;uniqueIndex:idx_topics_language_order" json:"language"`
	Order            int        `gorm:"column:topic_order;uniqueIndex:idx_topics_language_order" json:"order"`
	Title            string     `json:"title"`
	ProblemStatement string     `json:"problemStatement"`
	StarterCode      string     `json:"starterCode"`
	TestCases        []TestCase `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE;" json:"testCases"`
}

type TestCase struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	TopicID        uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Position       int       `json:"-"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expectedOutput"`
	Description    string    `json:"description,omitempty"`
}

type CompletionResult struct {
	AlreadyCompleted bool
	LeveledUp        bool
	XPGained         int
	NewXP            int
	NewLevel         int
}

// CompleteTopic отмечает тему пройденной. Опыт начисляется только за первое
// прохождение (защита от фарма).
func (p *Progress) CompleteTopic(order, bonus int) (CompletionResult, error) {
	if order <= 0 {
		return CompletionResult{}, ErrInvalidTopicOrder
	}
	if bonus < 0 {
		return CompletionResult{}, ErrInvalidAmount
	}
	if p.HasCompleted(order) {
		return CompletionResult{AlreadyCompleted: true, NewXP: p.XP, NewLevel: p.Level}, nil
	}

	p.CompletedTopics = append(p.CompletedTopics, CompletedTopic{UserID: p.UserID, TopicOrder: order})
	leveledUp, err := p.AddXP(bonus)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{
		LeveledUp: leveledUp,
		XPGained:  bonus,
		NewXP:     p.XP,
		NewLevel:  p.Level,
	}, nil
}

// IsUnlocked: первая тема открыта всегда, остальные: если пройдена предыдущая по порядку.
func IsUnlocked(order int, completed map[int]bool, roadmap []Topic) bool {
	if len(roadmap) == 0 {
		return false
	}
	orders := make([]int, 0, len(roadmap))
	for _, t := range roadmap {
		orders = append(orders, t.Order)
	}
	sort.Ints(orders)

	if order == orders[0] {
		return true
	}
	for i := 1; i < len(orders); i++ {
		if orders[i] == order {
			return completed[orders[i-1]]
		}
	}
	return false
}
