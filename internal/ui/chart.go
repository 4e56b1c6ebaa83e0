package ui

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/summit/internal/progress"
)

// Chart renders one bar per day, oldest first. Days without a record show
// as a muted dash; days at or above threshold get the success color.
func Chart(days []progress.Day, width, threshold int) []string {
	if width < 5 {
		width = 5
	}
	t := current
	out := make([]string, 0, len(days))
	for _, d := range days {
		label := d.Date
		if len(label) == len("2006-01-02") {
			label = label[5:]
		}
		if !d.Recorded {
			out = append(out, fmt.Sprintf("%s %s", t.Muted.Render(label), t.Muted.Render("-")))
			continue
		}
		filled := d.Percent * width / 100
		bar := strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled)
		style := t.Pending
		if d.Percent >= threshold {
			style = t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %3d%%", label, style.Render(bar), d.Percent))
	}
	return out
}
