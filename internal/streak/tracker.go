// Package streak counts consecutive days whose completion met a threshold.
package streak

import (
	"context"
	"fmt"

	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
)

// DefaultThreshold is the completion percent a day needs to extend the streak.
const DefaultThreshold = 80

type Tracker struct {
	kv        store.KV
	threshold int
}

func NewTracker(kv store.KV, threshold int) *Tracker {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Tracker{kv: kv, threshold: threshold}
}

func (t *Tracker) Threshold() int { return t.threshold }

// Load returns the stored record, zero when none exists yet.
func (t *Tracker) Load(ctx context.Context) (model.StreakRecord, error) {
	var rec model.StreakRecord
	if _, err := t.kv.Get(ctx, store.KeyStreak, &rec); err != nil {
		return model.StreakRecord{}, fmt.Errorf("load streak: %w", err)
	}
	return rec, nil
}

// Observe feeds today's percent into the record. The record changes at
// most once per day: the first observation at or above the threshold.
func (t *Tracker) Observe(ctx context.Context, today string, percent int) (model.StreakRecord, bool, error) {
	rec, err := t.Load(ctx)
	if err != nil {
		return rec, false, err
	}
	next, changed := Advance(rec, today, percent, t.threshold)
	if !changed {
		return rec, false, nil
	}
	if err := t.kv.Put(ctx, store.KeyStreak, next); err != nil {
		return rec, false, fmt.Errorf("save streak: %w", err)
	}
	return next, true, nil
}

// Rebuild replaces the stored record with one recomputed from hist. The
// best run never shrinks below the stored best.
func (t *Tracker) Rebuild(ctx context.Context, hist model.DailyProgress, today string) (model.StreakRecord, error) {
	old, err := t.Load(ctx)
	if err != nil {
		return old, err
	}
	rec := model.StreakRecord{
		Current: FromHistory(hist, today, t.threshold),
		Best:    max(BestFromHistory(hist, t.threshold), old.Best),
	}
	switch {
	case hist[today] >= t.threshold && rec.Current > 0:
		rec.LastDate = today
	case rec.Current > 0:
		rec.LastDate = model.AddDays(today, -1)
	}
	if rec.Current > rec.Best {
		rec.Best = rec.Current
	}
	if err := t.kv.Put(ctx, store.KeyStreak, rec); err != nil {
		return old, fmt.Errorf("save streak: %w", err)
	}
	return rec, nil
}

// Advance is the pure transition behind Observe.
func Advance(rec model.StreakRecord, today string, percent, threshold int) (model.StreakRecord, bool) {
	if percent < threshold || rec.LastDate == today {
		return rec, false
	}
	// A LastDate after today means the clock went backwards; leave it alone.
	if rec.LastDate != "" && rec.LastDate > today {
		return rec, false
	}
	if rec.LastDate != "" && rec.LastDate == model.AddDays(today, -1) {
		rec.Current++
	} else {
		rec.Current = 1
	}
	if rec.Current > rec.Best {
		rec.Best = rec.Current
	}
	rec.LastDate = today
	return rec, true
}

// Effective is the streak to display on today: a chain whose last
// qualifying day is older than yesterday is broken.
func Effective(rec model.StreakRecord, today string) int {
	if rec.LastDate == today || rec.LastDate == model.AddDays(today, -1) {
		return rec.Current
	}
	return 0
}

// FromHistory recomputes the current streak by walking back over the
// daily progress map. Today counts when it already qualifies; otherwise
// the walk starts at yesterday.
func FromHistory(hist model.DailyProgress, today string, threshold int) int {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	day := today
	if p, ok := hist[day]; !ok || p < threshold {
		day = model.AddDays(today, -1)
	}
	n := 0
	for {
		p, ok := hist[day]
		if !ok || p < threshold {
			return n
		}
		n++
		day = model.AddDays(day, -1)
	}
}

// BestFromHistory returns the longest qualifying run anywhere in hist.
func BestFromHistory(hist model.DailyProgress, threshold int) int {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	best := 0
	for day, p := range hist {
		if p < threshold {
			continue
		}
		// Only start counting at the beginning of a run.
		if prev, ok := hist[model.AddDays(day, -1)]; ok && prev >= threshold {
			continue
		}
		n := 0
		for d := day; ; d = model.AddDays(d, 1) {
			q, ok := hist[d]
			if !ok || q < threshold {
				break
			}
			n++
		}
		if n > best {
			best = n
		}
	}
	return best
}
