package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecurrence(t *testing.T) {
	for in, want := range map[string]Recurrence{
		"":         RecurNone,
		"None":     RecurNone,
		" daily ":  RecurDaily,
		"weekdays": RecurWeekdays,
		"weekly":   RecurWeekly,
	} {
		got, err := ParseRecurrence(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRecurrence("hourly")
	assert.Error(t, err)
}

func TestNormalizeDateAndTime(t *testing.T) {
	now := time.Date(2025, 12, 31, 22, 0, 0, 0, time.UTC)

	d, err := NormalizeDate("tomorrow", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", d)
	d, err = NormalizeDate("today", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", d)
	_, err = NormalizeDate("31/12/2025", now)
	assert.Error(t, err)

	tm, err := NormalizeTime("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", tm)
	tm, err = NormalizeTime("")
	require.NoError(t, err)
	assert.Empty(t, tm)
	_, err = NormalizeTime("24:30")
	assert.Error(t, err)
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, "2025-03-01", AddDays("2025-02-28", 1))
	assert.Equal(t, "2024-12-31", AddDays("2025-01-01", -1))
	assert.Equal(t, "garbage", AddDays("garbage", 1))
}

func TestGoalDueAndTemplate(t *testing.T) {
	g := Goal{Date: "2025-03-10", Time: "18:00"}
	due, ok := g.Due(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), due)

	_, ok = Goal{Time: "18:00"}.Due(time.UTC)
	assert.False(t, ok)

	tpl := Goal{Recurring: RecurDaily}
	assert.True(t, tpl.IsTemplate())
	tpl.IsInstance = true
	assert.False(t, tpl.IsTemplate())
}

func TestClone(t *testing.T) {
	g := Goal{Tags: []string{"a"}}
	c := g.Clone()
	c.Tags[0] = "b"
	assert.Equal(t, "a", g.Tags[0])
}
