// Package recurrence materializes today's instances of recurring goals.
package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
)

// Due reports whether template spawns an instance on day.
// The anchor is the template's Date when set, else its creation day;
// nothing spawns before the anchor.
func Due(template model.Goal, day time.Time) bool {
	if !template.IsTemplate() {
		return false
	}
	anchor, ok := anchorDay(template, day.Location())
	if !ok {
		return false
	}
	key := model.DateKey(day)
	if key < model.DateKey(anchor) {
		return false
	}
	switch template.Recurring {
	case model.RecurDaily:
		return true
	case model.RecurWeekdays:
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case model.RecurWeekly:
		return day.Weekday() == anchor.Weekday()
	}
	return false
}

func anchorDay(t model.Goal, loc *time.Location) (time.Time, bool) {
	if t.Date != "" {
		d, err := model.ParseDateKey(t.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	if t.CreatedAt.IsZero() {
		return time.Time{}, true
	}
	c := t.CreatedAt.In(loc)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, loc), true
}

type pair struct {
	parent int64
	date   string
}

// Instantiate returns the instances missing for day. At most one instance
// exists per (template, date): existing pairs produce nothing.
func Instantiate(all []model.Goal, day time.Time) []model.Goal {
	return instantiate(all, all, day)
}

// InstantiateFor is Instantiate restricted to one template, so instances of
// other templates removed earlier today stay removed.
func InstantiateFor(template model.Goal, all []model.Goal, day time.Time) []model.Goal {
	return instantiate([]model.Goal{template}, all, day)
}

func instantiate(templates, all []model.Goal, day time.Time) []model.Goal {
	key := model.DateKey(day)
	have := map[pair]bool{}
	for _, g := range all {
		if g.IsInstance && g.ParentID != 0 {
			have[pair{g.ParentID, g.Date}] = true
		}
	}
	var out []model.Goal
	for _, t := range templates {
		if !Due(t, day) {
			continue
		}
		p := pair{t.ID, key}
		if have[p] {
			continue
		}
		have[p] = true
		out = append(out, model.Goal{
			Text:              t.Text,
			Date:              key,
			Time:              t.Time,
			Tags:              append([]string(nil), t.Tags...),
			Recurring:         model.RecurNone,
			ParentID:          t.ID,
			IsInstance:        true,
			EmailNotification: t.EmailNotification,
		})
	}
	return out
}

// Engine runs the recurrence pass at most once per calendar day.
type Engine struct {
	repo *goals.Repository
	kv   store.KV
	log  logrus.FieldLogger
}

func NewEngine(repo *goals.Repository, kv store.KV, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{repo: repo, kv: kv, log: log}
}

// Run creates today's missing instances and records the day. It returns
// the number of instances created; a second call on the same day is a no-op.
func (e *Engine) Run(ctx context.Context, now time.Time) (int, error) {
	today := model.DateKey(now)
	var last string
	if _, err := e.kv.Get(ctx, store.KeyLastRecurrence, &last); err != nil {
		return 0, fmt.Errorf("read recurrence marker: %w", err)
	}
	if last == today {
		return 0, nil
	}
	added, err := e.repo.Insert(ctx, Instantiate(e.repo.All(), now)...)
	if err != nil {
		return 0, fmt.Errorf("insert instances: %w", err)
	}
	if err := e.kv.Put(ctx, store.KeyLastRecurrence, today); err != nil {
		return len(added), fmt.Errorf("write recurrence marker: %w", err)
	}
	e.log.WithFields(logrus.Fields{"date": today, "created": len(added), "previous": last}).
		Debug("recurrence pass")
	return len(added), nil
}
