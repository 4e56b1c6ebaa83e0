// Package progress turns the goal list into completion numbers and the
// climber's altitude, and keeps the per-day history used for charts.
package progress

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/store"
)

// Mountain geometry shared with the 3D scene: a cone of height 8 centred
// on y=0, so the climber moves from the base at -4 to the summit at +4.
const (
	BaseAltitude   = -4.0
	SummitAltitude = 4.0
)

// WorkingSet returns the goals that count on today: everything except
// recurring templates, limited to undated goals and goals dated today.
func WorkingSet(all []model.Goal, today string) []model.Goal {
	out := make([]model.Goal, 0, len(all))
	for _, g := range all {
		if g.IsTemplate() {
			continue
		}
		if g.Date != "" && g.Date != today {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Percent is the rounded share of done goals, 0 for an empty list.
func Percent(gs []model.Goal) int {
	done, _ := Count(gs)
	return percentOf(done, len(gs))
}

func percentOf(done, total int) int {
	if total <= 0 {
		return 0
	}
	return Clamp(int(math.Round(float64(done) * 100 / float64(total))))
}

// Count splits gs into done and pending.
func Count(gs []model.Goal) (done, pending int) {
	for _, g := range gs {
		if g.Done {
			done++
		} else {
			pending++
		}
	}
	return
}

// Clamp forces p into [0,100].
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Altitude maps percent onto the mountain.
func Altitude(percent int) float64 {
	p := float64(Clamp(percent)) / 100
	return BaseAltitude + (SummitAltitude-BaseAltitude)*p
}

// Snapshot is what every view renders from.
type Snapshot struct {
	Date     string  `json:"date"`
	Done     int     `json:"done"`
	Pending  int     `json:"pending"`
	Total    int     `json:"total"`
	Percent  int     `json:"percent"`
	Altitude float64 `json:"altitude"`
}

// Take computes the snapshot of all goals for today.
func Take(all []model.Goal, today string) Snapshot {
	ws := WorkingSet(all, today)
	done, pending := Count(ws)
	pct := percentOf(done, len(ws))
	return Snapshot{
		Date:     today,
		Done:     done,
		Pending:  pending,
		Total:    len(ws),
		Percent:  pct,
		Altitude: Altitude(pct),
	}
}

// Day is one entry of a history window.
type Day struct {
	Date     string `json:"date"`
	Percent  int    `json:"percent"`
	Recorded bool   `json:"recorded"`
}

// History is the date → percent map kept in the store.
type History struct {
	kv store.KV
}

func NewHistory(kv store.KV) *History { return &History{kv: kv} }

func (h *History) Load(ctx context.Context) (model.DailyProgress, error) {
	hist := model.DailyProgress{}
	if _, err := h.kv.Get(ctx, store.KeyDailyProgress, &hist); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if hist == nil {
		hist = model.DailyProgress{}
	}
	return hist, nil
}

// Record sets today's entry. Past days are never touched.
func (h *History) Record(ctx context.Context, today string, percent int) error {
	hist, err := h.Load(ctx)
	if err != nil {
		return err
	}
	percent = Clamp(percent)
	if cur, ok := hist[today]; ok && cur == percent {
		return nil
	}
	hist[today] = percent
	if err := h.kv.Put(ctx, store.KeyDailyProgress, hist); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Last returns the n days ending at today, oldest first.
func (h *History) Last(ctx context.Context, n int, today string) ([]Day, error) {
	hist, err := h.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Window(hist, n, today), nil
}

// Window slices hist into n consecutive days ending at today.
func Window(hist model.DailyProgress, n int, today string) []Day {
	if n <= 0 {
		return nil
	}
	out := make([]Day, n)
	d := today
	for i := n - 1; i >= 0; i-- {
		p, ok := hist[d]
		out[i] = Day{Date: d, Percent: p, Recorded: ok}
		d = model.AddDays(d, -1)
	}
	return out
}

// Today is the date key of now in now's location.
func Today(now time.Time) string { return model.DateKey(now) }
