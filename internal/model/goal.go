package model

import (
	"fmt"
	"strings"
	"time"
)

// Recurrence says how often a template goal spawns a dated instance.
type Recurrence string

const (
	RecurNone     Recurrence = ""
	RecurDaily    Recurrence = "daily"
	RecurWeekdays Recurrence = "weekdays"
	RecurWeekly   Recurrence = "weekly"
)

// ParseRecurrence accepts the user-facing spellings ("", "none", "daily", ...).
func ParseRecurrence(s string) (Recurrence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no", "off":
		return RecurNone, nil
	case "daily", "day":
		return RecurDaily, nil
	case "weekdays", "weekday", "workdays":
		return RecurWeekdays, nil
	case "weekly", "week":
		return RecurWeekly, nil
	}
	return RecurNone, fmt.Errorf("unknown recurrence %q (want none|daily|weekdays|weekly)", s)
}

// Goal is the domain model for a tracked goal.
//
// A goal with Recurring set and IsInstance false is a template: it is never
// completed itself, it spawns one instance per matching day. Instances point
// back at their template through ParentID; the link is informational only.
type Goal struct {
	ID                int64      `json:"id"`
	Text              string     `json:"text"`
	Done              bool       `json:"done"`
	Date              string     `json:"date,omitempty"` // YYYY-MM-DD
	Time              string     `json:"time,omitempty"` // HH:MM, local
	Tags              []string   `json:"tags"`
	Recurring         Recurrence `json:"recurring"`
	ParentID          int64      `json:"parentId,omitempty"`
	IsInstance        bool       `json:"isInstance"`
	EmailNotification bool       `json:"emailNotification"`
	NotificationSent  bool       `json:"notificationSent"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// IsTemplate reports whether g only exists to spawn recurring instances.
func (g Goal) IsTemplate() bool {
	return g.Recurring != RecurNone && !g.IsInstance
}

// Due returns the goal's due moment in loc. ok is false when the goal has
// no date or no time, or when either fails to parse.
func (g Goal) Due(loc *time.Location) (time.Time, bool) {
	if g.Date == "" || g.Time == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, g.Date+" "+g.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasTag reports whether g carries tag (already normalized).
func (g Goal) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with g.
func (g Goal) Clone() Goal {
	out := g
	if g.Tags != nil {
		out.Tags = append([]string(nil), g.Tags...)
	}
	return out
}

// StreakRecord tracks consecutive qualifying days.
type StreakRecord struct {
	Current  int    `json:"current"`
	Best     int    `json:"best"`
	LastDate string `json:"lastDate,omitempty"`
}

// DailyProgress maps a date key to that day's completion percent.
type DailyProgress map[string]int
