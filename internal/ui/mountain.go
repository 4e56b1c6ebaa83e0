package ui

import (
	"math"
	"strings"
)

// MountainRows is the default height of the drawn mountain.
const MountainRows = 8

// ClimberRow returns the row (0 = summit) the climber stands on for percent.
func ClimberRow(percent, rows int) int {
	if rows < 1 {
		rows = 1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	climbed := int(math.Round(float64(percent) / 100 * float64(rows-1)))
	return rows - 1 - climbed
}

// Mountain draws a mountain of rows lines with the climber on its left
// slope at the height matching percent. A flag marks the summit; at 100%
// the climber stands on it.
func Mountain(percent, rows int) []string {
	if rows < 2 {
		rows = 2
	}
	t := current
	at := ClimberRow(percent, rows)
	lines := make([]string, 0, rows+1)

	flag := t.Flag.Render(t.SymFlag)
	if at == 0 && percent >= 100 {
		flag = t.Climber.Render(t.SymClimber)
	}
	lines = append(lines, strings.Repeat(" ", rows)+flag)

	for i := 0; i < rows; i++ {
		pad := strings.Repeat(" ", rows-1-i)
		left := t.Slope.Render("/")
		if i == at && !(at == 0 && percent >= 100) {
			left = t.Climber.Render(t.SymClimber)
		}
		fill := strings.Repeat(" ", 2*i)
		if i == rows-1 {
			fill = strings.Repeat("_", 2*i)
		}
		lines = append(lines, pad+left+fill+t.Slope.Render("\\"))
	}
	return lines
}
