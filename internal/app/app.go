// Package app ties the store, goal list, recurrence, streak and history
// together. Every mutation persists, then refreshes today's progress and
// the streak, the way the list view re-renders after each change.
package app

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/summit/internal/config"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/progress"
	"github.com/idilsaglam/summit/internal/recurrence"
	"github.com/idilsaglam/summit/internal/store"
	"github.com/idilsaglam/summit/internal/streak"
)

type Options struct {
	Threshold int
	Now       func() time.Time
	Log       logrus.FieldLogger
}

type App struct {
	KV         store.KV
	Goals      *goals.Repository
	Recurrence *recurrence.Engine
	Streak     *streak.Tracker
	History    *progress.History

	now func() time.Time
	log logrus.FieldLogger
}

// Open opens the configured store and loads the app on it.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger, now func() time.Time) (*App, error) {
	kv, err := store.Open(ctx, cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a, err := New(ctx, kv, Options{Threshold: cfg.Streak.Threshold, Now: now, Log: log})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return a, nil
}

// New loads goals from kv and runs today's recurrence pass.
func New(ctx context.Context, kv store.KV, opt Options) (*App, error) {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Log == nil {
		opt.Log = logrus.StandardLogger()
	}
	repo := goals.New(kv, opt.Now)
	a := &App{
		KV:         kv,
		Goals:      repo,
		Recurrence: recurrence.NewEngine(repo, kv, opt.Log),
		Streak:     streak.NewTracker(kv, opt.Threshold),
		History:    progress.NewHistory(kv),
		now:        opt.Now,
		log:        opt.Log,
	}
	if err := a.Refresh(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) Close() error { return a.KV.Close() }

func (a *App) Now() time.Time { return a.now() }

func (a *App) Today() string { return model.DateKey(a.now()) }

// Refresh reloads goals from the store and instantiates today's recurring
// goals if that has not happened yet. Long-running views call it when the
// day may have changed.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.Goals.Reload(ctx); err != nil {
		return err
	}
	n, err := a.Recurrence.Run(ctx, a.now())
	if err != nil {
		return err
	}
	if n > 0 {
		if _, err := a.AfterMutation(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Working returns today's working set in list order.
func (a *App) Working() []model.Goal {
	return progress.WorkingSet(a.Goals.All(), a.Today())
}

// Templates returns the recurring templates.
func (a *App) Templates() []model.Goal {
	var out []model.Goal
	for _, g := range a.Goals.All() {
		if g.IsTemplate() {
			out = append(out, g)
		}
	}
	return out
}

func (a *App) Snapshot() progress.Snapshot {
	return progress.Take(a.Goals.All(), a.Today())
}

// AfterMutation records today's percent in the history and lets the streak
// tracker see it.
func (a *App) AfterMutation(ctx context.Context) (progress.Snapshot, error) {
	snap := a.Snapshot()
	if err := a.History.Record(ctx, snap.Date, snap.Percent); err != nil {
		return snap, err
	}
	rec, changed, err := a.Streak.Observe(ctx, snap.Date, snap.Percent)
	if err != nil {
		return snap, err
	}
	if changed {
		a.log.WithFields(logrus.Fields{"current": rec.Current, "best": rec.Best}).Debug("streak extended")
	}
	return snap, nil
}

// StreakStatus is the record plus the value to display today.
type StreakStatus struct {
	Record    model.StreakRecord `json:"record"`
	Current   int                `json:"current"`
	Best      int                `json:"best"`
	Threshold int                `json:"threshold"`
}

func (a *App) StreakStatus(ctx context.Context) (StreakStatus, error) {
	rec, err := a.Streak.Load(ctx)
	if err != nil {
		return StreakStatus{}, err
	}
	return StreakStatus{
		Record:    rec,
		Current:   streak.Effective(rec, a.Today()),
		Best:      rec.Best,
		Threshold: a.Streak.Threshold(),
	}, nil
}

func (a *App) Add(ctx context.Context, d goals.Draft) (model.Goal, error) {
	g, err := a.Goals.Add(ctx, d)
	if err != nil {
		return g, err
	}
	// A recurring template added today gets today's instance right away.
	if g.IsTemplate() {
		if _, err := a.Goals.Insert(ctx, recurrence.InstantiateFor(g, a.Goals.All(), a.now())...); err != nil {
			return g, err
		}
	}
	_, err = a.AfterMutation(ctx)
	return g, err
}

func (a *App) Toggle(ctx context.Context, id int64) (model.Goal, error) {
	g, err := a.Goals.Toggle(ctx, id)
	if err != nil {
		return g, err
	}
	_, err = a.AfterMutation(ctx)
	return g, err
}

func (a *App) Edit(ctx context.Context, id int64, text string) (model.Goal, error) {
	g, err := a.Goals.Edit(ctx, id, text)
	if err != nil {
		return g, err
	}
	_, err = a.AfterMutation(ctx)
	return g, err
}

func (a *App) SetTags(ctx context.Context, id int64, tags []string) (model.Goal, error) {
	g, err := a.Goals.SetTags(ctx, id, tags)
	if err != nil {
		return g, err
	}
	_, err = a.AfterMutation(ctx)
	return g, err
}

func (a *App) Remove(ctx context.Context, id int64) (model.Goal, int, error) {
	g, pos, err := a.Goals.Remove(ctx, id)
	if err != nil {
		return g, pos, err
	}
	_, err = a.AfterMutation(ctx)
	return g, pos, err
}

func (a *App) Restore(ctx context.Context, pos int, g model.Goal) error {
	if err := a.Goals.Restore(ctx, pos, g); err != nil {
		return err
	}
	_, err := a.AfterMutation(ctx)
	return err
}

// RebuildStreak recomputes the streak record from the daily history.
func (a *App) RebuildStreak(ctx context.Context) (StreakStatus, error) {
	hist, err := a.History.Load(ctx)
	if err != nil {
		return StreakStatus{}, err
	}
	if _, err := a.Streak.Rebuild(ctx, hist, a.Today()); err != nil {
		return StreakStatus{}, err
	}
	return a.StreakStatus(ctx)
}

// Email returns the reminder recipient, "" when unset.
func (a *App) Email(ctx context.Context) (string, error) {
	var addr string
	if _, err := a.KV.Get(ctx, store.KeyUserEmail, &addr); err != nil {
		return "", fmt.Errorf("load email: %w", err)
	}
	return addr, nil
}

// SetEmail validates and stores the reminder recipient. An empty address
// clears it.
func (a *App) SetEmail(ctx context.Context, addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", a.KV.Delete(ctx, store.KeyUserEmail)
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("invalid email %q: %w", addr, err)
	}
	if err := a.KV.Put(ctx, store.KeyUserEmail, parsed.Address); err != nil {
		return "", fmt.Errorf("save email: %w", err)
	}
	return parsed.Address, nil
}

// HistoryWindow returns the last n days of progress ending today.
func (a *App) HistoryWindow(ctx context.Context, n int) ([]progress.Day, error) {
	return a.History.Last(ctx, n, a.Today())
}
