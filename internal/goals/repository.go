// Package goals holds the ordered goal list and writes it through to the
// store on every mutation.
package goals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
)

var (
	ErrNotFound  = errors.New("goal not found")
	ErrEmptyText = errors.New("empty goal text")
)

// Draft carries the user-editable fields of a new goal.
type Draft struct {
	Text              string
	Date              string
	Time              string
	Tags              []string
	Recurring         model.Recurrence
	EmailNotification bool
}

type Repository struct {
	kv     store.KV
	now    func() time.Time
	goals  []model.Goal
	lastID int64
}

// New returns an empty repository. Call Load before use.
func New(kv store.KV, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{kv: kv, now: now}
}

// Load replaces the in-memory list with what the store holds.
func (r *Repository) Load(ctx context.Context) error {
	var list []model.Goal
	if _, err := r.kv.Get(ctx, store.KeyGoals, &list); err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	for i := range list {
		list[i].Tags = NormalizeTags(list[i].Tags)
		if list[i].ID > r.lastID {
			r.lastID = list[i].ID
		}
	}
	r.goals = list
	return nil
}

// Reload is Load under the name long-running callers use between ticks.
func (r *Repository) Reload(ctx context.Context) error { return r.Load(ctx) }

// All returns a copy of the list in insertion order.
func (r *Repository) All() []model.Goal {
	out := make([]model.Goal, len(r.goals))
	for i, g := range r.goals {
		out[i] = g.Clone()
	}
	return out
}

func (r *Repository) Len() int { return len(r.goals) }

func (r *Repository) Get(id int64) (model.Goal, error) {
	i := r.index(id)
	if i < 0 {
		return model.Goal{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r.goals[i].Clone(), nil
}

func (r *Repository) Add(ctx context.Context, d Draft) (model.Goal, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return model.Goal{}, ErrEmptyText
	}
	g := model.Goal{
		ID:                r.nextID(),
		Text:              text,
		Date:              d.Date,
		Time:              d.Time,
		Tags:              NormalizeTags(d.Tags),
		Recurring:         d.Recurring,
		EmailNotification: d.EmailNotification,
		CreatedAt:         r.now(),
	}
	err := r.mutate(ctx, func() error {
		r.goals = append(r.goals, g)
		return nil
	})
	if err != nil {
		return model.Goal{}, err
	}
	return g.Clone(), nil
}

// Insert appends fully-formed goals (recurring instances). Zero ids are assigned.
func (r *Repository) Insert(ctx context.Context, gs ...model.Goal) ([]model.Goal, error) {
	if len(gs) == 0 {
		return nil, nil
	}
	added := make([]model.Goal, 0, len(gs))
	for _, g := range gs {
		g = g.Clone()
		if g.ID == 0 {
			g.ID = r.nextID()
		} else if g.ID > r.lastID {
			r.lastID = g.ID
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = r.now()
		}
		g.Tags = NormalizeTags(g.Tags)
		added = append(added, g)
	}
	err := r.mutate(ctx, func() error {
		r.goals = append(r.goals, added...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (r *Repository) Toggle(ctx context.Context, id int64) (model.Goal, error) {
	return r.update(ctx, id, func(g *model.Goal) error {
		g.Done = !g.Done
		return nil
	})
}

func (r *Repository) SetDone(ctx context.Context, id int64, done bool) (model.Goal, error) {
	return r.update(ctx, id, func(g *model.Goal) error {
		g.Done = done
		return nil
	})
}

func (r *Repository) Edit(ctx context.Context, id int64, text string) (model.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, ErrEmptyText
	}
	return r.update(ctx, id, func(g *model.Goal) error {
		g.Text = text
		return nil
	})
}

func (r *Repository) SetTags(ctx context.Context, id int64, tags []string) (model.Goal, error) {
	return r.update(ctx, id, func(g *model.Goal) error {
		g.Tags = NormalizeTags(tags)
		return nil
	})
}

// MarkNotified flips NotificationSent to true. It never goes back.
func (r *Repository) MarkNotified(ctx context.Context, id int64) (model.Goal, error) {
	return r.update(ctx, id, func(g *model.Goal) error {
		g.NotificationSent = true
		return nil
	})
}

// Remove deletes the goal and returns it with its former position so a
// caller can Restore it. Instances of a removed template are kept.
func (r *Repository) Remove(ctx context.Context, id int64) (model.Goal, int, error) {
	i := r.index(id)
	if i < 0 {
		return model.Goal{}, -1, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	removed := r.goals[i].Clone()
	err := r.mutate(ctx, func() error {
		r.goals = append(r.goals[:i], r.goals[i+1:]...)
		return nil
	})
	if err != nil {
		return model.Goal{}, -1, err
	}
	return removed, i, nil
}

// Restore puts a previously removed goal back at pos (clamped).
func (r *Repository) Restore(ctx context.Context, pos int, g model.Goal) error {
	if r.index(g.ID) >= 0 {
		return fmt.Errorf("restore: goal %d already present", g.ID)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(r.goals) {
		pos = len(r.goals)
	}
	g = g.Clone()
	return r.mutate(ctx, func() error {
		r.goals = append(r.goals, model.Goal{})
		copy(r.goals[pos+1:], r.goals[pos:])
		r.goals[pos] = g
		return nil
	})
}

func (r *Repository) ByTag(tag string) []model.Goal {
	tag = normalizeTag(tag)
	var out []model.Goal
	for _, g := range r.goals {
		if g.HasTag(tag) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// Tags counts goals per tag.
func (r *Repository) Tags() map[string]int {
	out := map[string]int{}
	for _, g := range r.goals {
		for _, t := range g.Tags {
			out[t]++
		}
	}
	return out
}

func (r *Repository) index(id int64) int {
	for i := range r.goals {
		if r.goals[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID is timestamp-derived but strictly increasing.
func (r *Repository) nextID() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

func (r *Repository) update(ctx context.Context, id int64, fn func(*model.Goal) error) (model.Goal, error) {
	i := r.index(id)
	if i < 0 {
		return model.Goal{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	err := r.mutate(ctx, func() error { return fn(&r.goals[i]) })
	if err != nil {
		return model.Goal{}, err
	}
	return r.goals[i].Clone(), nil
}

// mutate applies fn and persists; on any failure the list is rolled back.
func (r *Repository) mutate(ctx context.Context, fn func() error) error {
	before := r.All()
	if err := fn(); err != nil {
		r.goals = before
		return err
	}
	if err := r.kv.Put(ctx, store.KeyGoals, r.goals); err != nil {
		r.goals = before
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// NormalizeTags trims, lower-cases, strips a leading '#', drops empties
// and duplicates, and sorts.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range tags {
		for _, part := range strings.Split(t, ",") {
			n := normalizeTag(part)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
}
