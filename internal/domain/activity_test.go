package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivity_AppendsThenIncrements(t *testing.T) {
	p := NewProgress(uuid.New())

	require.NoError(t, p.RecordActivity("2026-04-01", 1, 10))
	require.NoError(t, p.RecordActivity("2026-04-01", 1, 10))
	require.NoError(t, p.RecordActivity("2026-04-02", 1, 10))

	require.Len(t, p.ActivityLogs, 2)
	day1, ok := p.ActivityOn("2026-04-01")
	require.True(t, ok)
	assert.Equal(t, 2, day1.Submissions)
	assert.Equal(t, 20, day1.Points)
	assert.Equal(t, p.UserID, day1.UserID)
}

func TestRecordActivity_RejectsNegativeDelta(t *testing.T) {
	p := NewProgress(uuid.New())

	assert.ErrorIs(t, p.RecordActivity("2026-04-01", -1, 0), ErrInvalidAmount)
	assert.Empty(t, p.ActivityLogs)
}

func TestActivitySince(t *testing.T) {
	p := NewProgress(uuid.New())
	for _, d := range []Day{"2025-01-01", "2025-10-18", "2026-06-01"} {
		require.NoError(t, p.RecordActivity(d, 1, 10))
	}

	got := p.ActivitySince("2025-10-18")

	require.Len(t, got, 2)
	assert.Equal(t, Day("2025-10-18"), got[0].Date)
	assert.Equal(t, Day("2026-06-01"), got[1].Date)
}
