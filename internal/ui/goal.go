package ui

import (
	"strings"

	"github.com/idilsaglam/summit/internal/model"
)

// GoalLine renders the checkbox, text and a muted meta suffix (time,
// recurrence, reminder state, tags) for one goal.
func GoalLine(g model.Goal) string {
	t := current
	box := t.Muted.Render(t.BoxUnchecked)
	text := g.Text
	if g.Done {
		box = t.Success.Render(t.BoxChecked)
		text = t.DoneText.Render(text)
	}
	var meta []string
	if g.Date != "" && g.IsTemplate() {
		meta = append(meta, "from "+g.Date)
	}
	if g.Time != "" {
		meta = append(meta, g.Time)
	}
	switch {
	case g.IsTemplate():
		meta = append(meta, "↻ "+string(g.Recurring))
	case g.IsInstance:
		meta = append(meta, "↻")
	}
	if g.EmailNotification {
		if g.NotificationSent {
			meta = append(meta, "✉✓")
		} else {
			meta = append(meta, "✉")
		}
	}
	for _, tag := range g.Tags {
		meta = append(meta, "#"+tag)
	}
	line := box + " " + text
	if len(meta) > 0 {
		line += " " + t.Muted.Render(strings.Join(meta, " "))
	}
	return line
}
