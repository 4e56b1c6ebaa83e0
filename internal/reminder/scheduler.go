// Package reminder emails a goal shortly before it is due, once.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/notify"
	"github.com/idilsaglam/summit/internal/store"
)

const (
	DefaultWindow   = 30 * time.Minute
	DefaultSchedule = "@every 1m"
)

type Config struct {
	Window   time.Duration
	Schedule string
	Location *time.Location
	// Refresh, when set, replaces the plain goal reload at the start of a
	// tick. The daemon uses it to run the day's recurrence pass.
	Refresh func(context.Context) error
}

// Result tallies one tick.
type Result struct {
	Sent    int
	Failed  int
	Skipped int
}

type Scheduler struct {
	repo    *goals.Repository
	kv      store.KV
	mailer  notify.Mailer
	cfg     Config
	log     logrus.FieldLogger
	metrics *Metrics

	mu sync.Mutex
}

func New(repo *goals.Repository, kv store.KV, mailer notify.Mailer, cfg Config, log logrus.FieldLogger, metrics *Metrics) *Scheduler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{repo: repo, kv: kv, mailer: mailer, cfg: cfg, log: log, metrics: metrics}
}

// Candidates returns the goals whose reminder should go out at now:
// opted in, not yet notified, not done, and due within (now, now+window].
func Candidates(all []model.Goal, now time.Time, window time.Duration, loc *time.Location) []model.Goal {
	var out []model.Goal
	for _, g := range all {
		if !g.EmailNotification || g.NotificationSent || g.Done || g.IsTemplate() {
			continue
		}
		due, ok := g.Due(loc)
		if !ok {
			continue
		}
		left := due.Sub(now)
		if left > 0 && left <= window {
			out = append(out, g)
		}
	}
	return out
}

// Tick reloads goals, sends every pending reminder, and marks each sent
// goal so it never fires again. Send failures are logged and retried on
// the next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	reload := s.repo.Reload
	if s.cfg.Refresh != nil {
		reload = s.cfg.Refresh
	}
	if err := reload(ctx); err != nil {
		return res, err
	}
	due := Candidates(s.repo.All(), now, s.cfg.Window, s.cfg.Location)
	if len(due) == 0 {
		s.metrics.observe(res, float64(now.Unix()))
		return res, nil
	}

	var to string
	if _, err := s.kv.Get(ctx, store.KeyUserEmail, &to); err != nil {
		return res, fmt.Errorf("load email: %w", err)
	}
	if strings.TrimSpace(to) == "" {
		res.Skipped = len(due)
		s.log.WithField("pending", len(due)).Warn("reminders due but no email address set; run `summit email <address>`")
		s.metrics.observe(res, float64(now.Unix()))
		return res, nil
	}

	for _, g := range due {
		entry := s.log.WithFields(logrus.Fields{"goal_id": g.ID, "goal": g.Text, "due": g.Date + " " + g.Time})
		err := s.mailer.Send(ctx, Message(g, to))
		if err != nil {
			res.Failed++
			entry.WithError(err).Warn("reminder send failed")
			continue
		}
		if _, err := s.repo.MarkNotified(ctx, g.ID); err != nil {
			// Sent but not recorded: the next tick may send it again.
			res.Failed++
			entry.WithError(err).Error("reminder sent but not marked")
			continue
		}
		res.Sent++
		entry.Info("reminder sent")
	}
	s.metrics.observe(res, float64(now.Unix()))
	return res, nil
}

// Message builds the reminder email for g.
func Message(g model.Goal, to string) notify.Message {
	return notify.Message{
		To:      to,
		Subject: "Reminder: " + g.Text,
		Params: map[string]string{
			"goal_text": g.Text,
			"goal_date": g.Date,
			"goal_time": g.Time,
			"message":   fmt.Sprintf("Your goal %q is due at %s on %s.", g.Text, g.Time, g.Date),
		},
	}
}

// Start runs Tick on the configured cron schedule until ctx is done.
func (s *Scheduler) Start(ctx context.Context, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		res, err := s.Tick(ctx, now())
		if err != nil {
			s.log.WithError(err).Error("reminder tick failed")
			return
		}
		if res.Sent+res.Failed+res.Skipped > 0 {
			s.log.WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed, "skipped": res.Skipped}).Info("reminder tick")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.cfg.Schedule, err)
	}
	s.log.WithFields(logrus.Fields{"schedule": s.cfg.Schedule, "window": s.cfg.Window.String()}).Info("reminder scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("reminder scheduler stopped")
	return nil
}
