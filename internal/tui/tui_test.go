package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
	"github.com/idilsaglam/summit/internal/ui"
)

func newTestModel(t *testing.T, texts ...string) (modelTUI, *app.App) {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	a, err := app.New(ctx, store.NewMemory(), app.Options{Now: now, Log: logger})
	require.NoError(t, err)
	for _, s := range texts {
		_, err := a.Add(ctx, goals.Draft{Text: s})
		require.NoError(t, err)
	}
	return newModel(ctx, a), a
}

func press(m modelTUI, keys ...string) modelTUI {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(modelTUI)
	}
	return m
}

func TestToggleUpdatesProgress(t *testing.T) {
	m, a := newTestModel(t, "Run", "Read")
	require.Len(t, m.list.Items(), 2)

	m = press(m, " ")
	assert.Equal(t, 50, a.Snapshot().Percent)
	it := m.list.Items()[0].(listItem)
	assert.True(t, it.goal.Done)
}

func TestAddViaInput(t *testing.T) {
	m, a := newTestModel(t)
	m = press(m, "a")
	assert.Equal(t, adding, m.mode)
	m = press(m, "enter")
	assert.Equal(t, "Goal cannot be empty", m.inputErr)

	m = press(m, "Stretch", "enter")
	assert.Equal(t, browsing, m.mode)
	require.Equal(t, 1, a.Goals.Len())
	assert.Equal(t, "Stretch", a.Goals.All()[0].Text)
	assert.Len(t, m.list.Items(), 1)
}

func TestDeleteAndUndo(t *testing.T) {
	m, a := newTestModel(t, "one", "two")
	m = press(m, "d")
	assert.Equal(t, 1, a.Goals.Len())
	require.NotNil(t, m.undo)

	m = press(m, "u")
	assert.Nil(t, m.undo)
	require.Equal(t, 2, a.Goals.Len())
	assert.Equal(t, "one", a.Goals.All()[0].Text)
}

func TestEditAndTags(t *testing.T) {
	m, a := newTestModel(t, "Read")
	m = press(m, "e")
	assert.Equal(t, editing, m.mode)
	assert.Equal(t, "Read", m.ti.Value())
	m = press(m, " more", "enter")
	assert.Equal(t, "Read more", a.Goals.All()[0].Text)

	m = press(m, "t", "books, #Evening", "enter")
	assert.Equal(t, []string{"books", "evening"}, a.Goals.All()[0].Tags)

	m = press(m, "e", "esc")
	assert.Equal(t, browsing, m.mode)
}

func TestViewShowsMountain(t *testing.T) {
	ui.SetColorForcing(false, true)
	m, _ := newTestModel(t, "Run")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(modelTUI)
	v := m.View()
	assert.Contains(t, v, "Run")
	assert.Contains(t, v, "streak")
	assert.Contains(t, v, "0%")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrap("one two three", 8))
}

func TestMidnightRollover(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	now := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)
	a, err := app.New(ctx, store.NewMemory(), app.Options{Now: func() time.Time { return now }, Log: logger})
	require.NoError(t, err)
	_, err = a.Add(ctx, goals.Draft{Text: "Stretch", Recurring: model.RecurDaily})
	require.NoError(t, err)

	m := newModel(ctx, a)
	require.Len(t, m.list.Items(), 1)
	m = press(m, " ")
	assert.Equal(t, 100, a.Snapshot().Percent)

	now = now.Add(20 * time.Minute)
	m = press(m, "j", " ")
	require.Len(t, m.list.Items(), 1)
	it := m.list.Items()[0].(listItem)
	assert.Equal(t, "2025-03-11", it.goal.Date)
	assert.True(t, it.goal.Done)
	assert.Equal(t, 100, a.Snapshot().Percent)
}

func TestDayTickRollsOverIdleList(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	a, err := app.New(ctx, store.NewMemory(), app.Options{Now: func() time.Time { return now }, Log: logger})
	require.NoError(t, err)
	_, err = a.Add(ctx, goals.Draft{Text: "Stretch", Recurring: model.RecurDaily})
	require.NoError(t, err)
	m := newModel(ctx, a)

	now = now.Add(2 * time.Minute)
	next, cmd := m.Update(dayTickMsg(now))
	m = next.(modelTUI)
	assert.NotNil(t, cmd)
	assert.Equal(t, "2025-03-11", m.day)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "2025-03-11", m.list.Items()[0].(listItem).goal.Date)
}
