package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/notify"
	"github.com/idilsaglam/summit/internal/store"
)

var now = time.Date(2025, 3, 10, 17, 45, 0, 0, time.UTC)

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func reminderGoal(id int64, tm string) model.Goal {
	return model.Goal{ID: id, Text: "Run 5k", Date: "2025-03-10", Time: tm, EmailNotification: true}
}

func TestCandidates(t *testing.T) {
	in := func(g model.Goal, mut func(*model.Goal)) model.Goal { mut(&g); return g }
	all := []model.Goal{
		reminderGoal(1, "18:00"), // 15 min out
		reminderGoal(2, "18:15"), // exactly 30 min: inclusive
		reminderGoal(3, "18:16"), // too far
		reminderGoal(4, "17:45"), // due now: not in the future
		reminderGoal(5, "17:00"), // overdue
		in(reminderGoal(6, "18:00"), func(g *model.Goal) { g.NotificationSent = true }),
		in(reminderGoal(7, "18:00"), func(g *model.Goal) { g.Done = true }),
		in(reminderGoal(8, "18:00"), func(g *model.Goal) { g.EmailNotification = false }),
		in(reminderGoal(9, "18:00"), func(g *model.Goal) { g.Time = "" }),
		in(reminderGoal(10, "18:00"), func(g *model.Goal) { g.Recurring = model.RecurDaily }),
	}
	var ids []int64
	for _, g := range Candidates(all, now, DefaultWindow, time.UTC) {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
}

func setup(t *testing.T, mailer notify.Mailer, email string, gs ...model.Goal) (*Scheduler, *goals.Repository, *prometheus.Registry) {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Put(ctx, store.KeyGoals, gs))
	if email != "" {
		require.NoError(t, kv.Put(ctx, store.KeyUserEmail, email))
	}
	repo := goals.New(kv, func() time.Time { return now })
	require.NoError(t, repo.Load(ctx))
	reg := prometheus.NewRegistry()
	logger, _ := test.NewNullLogger()
	s := New(repo, kv, mailer, Config{Location: time.UTC}, logger, NewMetrics(reg))
	return s, repo, reg
}

func TestTick_SendsOnceAndMarks(t *testing.T) {
	ctx := context.Background()
	m := &fakeMailer{}
	s, repo, _ := setup(t, m, "me@example.com", reminderGoal(1, "18:00"), reminderGoal(2, "20:00"))

	res, err := s.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "me@example.com", m.sent[0].To)
	assert.Equal(t, "Run 5k", m.sent[0].Params["goal_text"])
	assert.Equal(t, "18:00", m.sent[0].Params["goal_time"])

	g, err := repo.Get(1)
	require.NoError(t, err)
	assert.True(t, g.NotificationSent)

	res, err = s.Tick(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Len(t, m.sent, 1, "at most one email per goal")
}

func TestTick_FailureIsRetried(t *testing.T) {
	ctx := context.Background()
	m := &fakeMailer{err: errors.New("network down")}
	s, repo, reg := setup(t, m, "me@example.com", reminderGoal(1, "18:00"))

	res, err := s.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	g, err := repo.Get(1)
	require.NoError(t, err)
	assert.False(t, g.NotificationSent)

	m.err = nil
	res, err = s.Tick(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.reminders.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.reminders.WithLabelValues("sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.ticks))
	n, err := testutil.GatherAndCount(reg, "summit_reminder_emails_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTick_NoEmailSkips(t *testing.T) {
	m := &fakeMailer{}
	s, repo, _ := setup(t, m, "", reminderGoal(1, "18:00"))

	res, err := s.Tick(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
	assert.Empty(t, m.sent)
	g, err := repo.Get(1)
	require.NoError(t, err)
	assert.False(t, g.NotificationSent)
}

func TestTick_SeesGoalsWrittenByOtherProcess(t *testing.T) {
	ctx := context.Background()
	m := &fakeMailer{}
	s, _, _ := setup(t, m, "me@example.com")

	other := goals.New(s.kv, func() time.Time { return now })
	require.NoError(t, other.Load(ctx))
	_, err := other.Add(ctx, goals.Draft{Text: "Stand-up", Date: "2025-03-10", Time: "18:00", EmailNotification: true})
	require.NoError(t, err)

	res, err := s.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
}

func TestStart_StopsOnCancel(t *testing.T) {
	m := &fakeMailer{}
	s, _, _ := setup(t, m, "me@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, nil) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_BadSchedule(t *testing.T) {
	m := &fakeMailer{}
	s, _, _ := setup(t, m, "me@example.com")
	s.cfg.Schedule = "every now and then"
	assert.Error(t, s.Start(context.Background(), nil))
}

func TestTick_UsesRefreshHook(t *testing.T) {
	ctx := context.Background()
	m := &fakeMailer{}
	s, _, _ := setup(t, m, "me@example.com")

	calls := 0
	s.cfg.Refresh = func(ctx context.Context) error {
		calls++
		return s.repo.Reload(ctx)
	}
	_, err := s.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	s.cfg.Refresh = func(context.Context) error { return errors.New("disk gone") }
	_, err = s.Tick(ctx, now)
	assert.EqualError(t, err, "disk gone")
}
