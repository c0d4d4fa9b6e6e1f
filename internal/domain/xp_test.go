package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	cases := map[int]int{
		0:    1,
		499:  1,
		500:  2,
		999:  2,
		1000: 3,
		1999: 4,
	}
	for xp, want := range cases {
		assert.Equal(t, want, LevelFor(xp), "xp=%d", xp)
	}
}

func TestAddXP_LevelUp(t *testing.T) {
	p := NewProgress(uuid.New())
	p.XP = 480

	leveledUp, err := p.AddXP(50)
	require.NoError(t, err)
	assert.True(t, leveledUp)
	assert.Equal(t, 530, p.XP)
	assert.Equal(t, 2, p.Level)
}

func TestAddXP_NoLevelUp(t *testing.T) {
	p := NewProgress(uuid.New())

	leveledUp, err := p.AddXP(499)
	require.NoError(t, err)
	assert.False(t, leveledUp)
	assert.Equal(t, 1, p.Level)
}

func TestAddXP_JumpsSeveralLevels(t *testing.T) {
	p := NewProgress(uuid.New())

	leveledUp, err := p.AddXP(1999)
	require.NoError(t, err)
	assert.True(t, leveledUp)
	assert.Equal(t, 4, p.Level)
}

func TestAddXP_RejectsNegative(t *testing.T) {
	p := NewProgress(uuid.New())
	p.XP = 100

	_, err := p.AddXP(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 100, p.XP)
}

func TestAddXP_LevelInvariantHolds(t *testing.T) {
	p := NewProgress(uuid.New())
	for _, amount := range []int{0, 10, 10, 470, 1, 0, 2500, 3, 10} {
		_, err := p.AddXP(amount)
		require.NoError(t, err)
		assert.Equal(t, p.XP/500+1, p.Level)
	}
}
