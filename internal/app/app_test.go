package app

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/summit/internal/config"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newApp(t *testing.T, kv store.KV, c *clock) *App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a, err := New(context.Background(), kv, Options{Now: c.Now, Log: logger})
	require.NoError(t, err)
	return a
}

func TestAddToggle_RecordsHistoryAndStreak(t *testing.T) {
	ctx := context.Background()
	c := &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	a := newApp(t, store.NewMemory(), c)

	g1, err := a.Add(ctx, goals.Draft{Text: "Run"})
	require.NoError(t, err)
	g2, err := a.Add(ctx, goals.Draft{Text: "Read"})
	require.NoError(t, err)

	_, err = a.Toggle(ctx, g1.ID)
	require.NoError(t, err)
	snap := a.Snapshot()
	assert.Equal(t, 50, snap.Percent)
	st, err := a.StreakStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Current)

	_, err = a.Toggle(ctx, g2.ID)
	require.NoError(t, err)
	st, err = a.StreakStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Current)
	assert.Equal(t, "2025-03-10", st.Record.LastDate)

	days, err := a.HistoryWindow(ctx, 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.False(t, days[0].Recorded)
	assert.Equal(t, 100, days[1].Percent)

	// Untoggling later the same day keeps the streak: it changes once per day.
	_, err = a.Toggle(ctx, g2.ID)
	require.NoError(t, err)
	st, err = a.StreakStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Current)
}

func TestRecurringAcrossDays(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	a := newApp(t, kv, c)

	tpl, err := a.Add(ctx, goals.Draft{Text: "Meditate", Recurring: model.RecurDaily})
	require.NoError(t, err)
	work := a.Working()
	require.Len(t, work, 1)
	assert.Equal(t, tpl.ID, work[0].ParentID)

	_, err = a.Toggle(ctx, work[0].ID)
	require.NoError(t, err)

	// Next morning, a fresh process opens the same store.
	c.t = c.t.Add(24 * time.Hour)
	b := newApp(t, kv, c)
	work = b.Working()
	require.Len(t, work, 1)
	assert.Equal(t, "2025-03-11", work[0].Date)
	assert.False(t, work[0].Done)
	assert.Equal(t, 0, b.Snapshot().Percent)
	assert.Len(t, b.Templates(), 1)

	st, err := b.StreakStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Current, "yesterday's chain is still alive")

	// Reopening the same day creates nothing new.
	b2 := newApp(t, kv, c)
	assert.Equal(t, b.Goals.Len(), b2.Goals.Len())
}

func TestAddTemplate_LeavesOtherRemovedInstancesAlone(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, store.NewMemory(), &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)})

	stretch, err := a.Add(ctx, goals.Draft{Text: "Stretch", Recurring: model.RecurDaily})
	require.NoError(t, err)
	work := a.Working()
	require.Len(t, work, 1)
	_, _, err = a.Remove(ctx, work[0].ID)
	require.NoError(t, err)
	require.Empty(t, a.Working())

	read, err := a.Add(ctx, goals.Draft{Text: "Read", Recurring: model.RecurDaily})
	require.NoError(t, err)
	work = a.Working()
	require.Len(t, work, 1)
	assert.Equal(t, read.ID, work[0].ParentID)
	for _, g := range a.Goals.All() {
		assert.NotEqual(t, stretch.ID, g.ParentID, "deleted instance came back")
	}
}

func TestSetTags_RecordsProgress(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, store.NewMemory(), &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)})
	g, err := a.Add(ctx, goals.Draft{Text: "Run"})
	require.NoError(t, err)
	_, err = a.Goals.SetDone(ctx, g.ID, true)
	require.NoError(t, err)

	_, err = a.SetTags(ctx, g.ID, []string{"health"})
	require.NoError(t, err)
	days, err := a.HistoryWindow(ctx, 1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 100, days[0].Percent)
	st, err := a.StreakStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Current)
}

func TestRebuildStreak(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Put(ctx, store.KeyDailyProgress, model.DailyProgress{
		"2025-03-08": 100,
		"2025-03-09": 90,
	}))
	a := newApp(t, kv, &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)})

	st, err := a.RebuildStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Current)
	assert.Equal(t, 2, st.Best)
	assert.Equal(t, "2025-03-09", st.Record.LastDate)
}

func TestEmail(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, store.NewMemory(), &clock{time.Now()})

	addr, err := a.Email(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)

	addr, err = a.SetEmail(ctx, "Me <me@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", addr)

	_, err = a.SetEmail(ctx, "not an email")
	assert.Error(t, err)

	_, err = a.SetEmail(ctx, "")
	require.NoError(t, err)
	addr, err = a.Email(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)
}

func TestRemoveRestore(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, store.NewMemory(), &clock{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)})
	_, err := a.Add(ctx, goals.Draft{Text: "a"})
	require.NoError(t, err)
	b, err := a.Add(ctx, goals.Draft{Text: "b"})
	require.NoError(t, err)
	_, err = a.Add(ctx, goals.Draft{Text: "c"})
	require.NoError(t, err)

	g, pos, err := a.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	require.NoError(t, a.Restore(ctx, pos, g))
	all := a.Goals.All()
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[1].Text)
}

func TestOpen_UsesConfiguredBackend(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backend = "sqlite"
	logger, _ := test.NewNullLogger()

	a, err := Open(ctx, cfg, logger, time.Now)
	require.NoError(t, err)
	_, err = a.Add(ctx, goals.Draft{Text: "persist me"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = Open(ctx, cfg, logger, time.Now)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 1, a.Goals.Len())
	assert.Equal(t, "persist me", a.Goals.All()[0].Text)
}
