package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteTopic_FirstTimeAwardsBonus(t *testing.T) {
	p := NewProgress(uuid.New())
	p.XP = 480

	res, err := p.CompleteTopic(3, TopicCompletionXP)
	require.NoError(t, err)

	assert.False(t, res.AlreadyCompleted)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 50, res.XPGained)
	assert.Equal(t, 530, res.NewXP)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, p.HasCompleted(3))
}

func TestCompleteTopic_Idempotent(t *testing.T) {
	p := NewProgress(uuid.New())

	_, err := p.CompleteTopic(1, TopicCompletionXP)
	require.NoError(t, err)
	xpAfterFirst := p.XP

	res, err := p.CompleteTopic(1, TopicCompletionXP)
	require.NoError(t, err)

	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, xpAfterFirst, p.XP)
	assert.Len(t, p.CompletedTopics, 1)
}

func TestCompleteTopic_Validation(t *testing.T) {
	p := NewProgress(uuid.New())

	_, err := p.CompleteTopic(0, 50)
	assert.ErrorIs(t, err, ErrInvalidTopicOrder)

	_, err = p.CompleteTopic(2, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.False(t, p.HasCompleted(2), "failed call must not mark the topic")
}

func TestIsUnlocked(t *testing.T) {
	roadmap := []Topic{{Order: 3}, {Order: 1}, {Order: 2}, {Order: 5}}

	assert.True(t, IsUnlocked(1, nil, roadmap))
	assert.False(t, IsUnlocked(2, map[int]bool{}, roadmap))
	assert.True(t, IsUnlocked(2, map[int]bool{1: true}, roadmap))
	assert.False(t, IsUnlocked(3, map[int]bool{1: true}, roadmap))
	// следующая по порядку после 3: тема 5
	assert.True(t, IsUnlocked(5, map[int]bool{3: true}, roadmap))
	assert.False(t, IsUnlocked(4, map[int]bool{3: true}, roadmap), "unknown topic")
	assert.False(t, IsUnlocked(1, nil, nil))
}

func TestCompletedOrdersSorted(t *testing.T) {
	p := NewProgress(uuid.New())
	for _, o := range []int{4, 1, 3} {
		_, err := p.CompleteTopic(o, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 3, 4}, p.CompletedOrders())
}
