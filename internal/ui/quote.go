package ui

import "math/rand"

var quotes = []string{
	"No need to be fast, just keep going.",
	"One small step today is a win.",
	"Keep moving forward, even by 1%.",
	"You're doing great, don't stop now!",
	"Every great journey starts with a small step.",
}

// Quote picks a motivational line. A nil r uses the global source.
func Quote(r *rand.Rand) string {
	if r == nil {
		return quotes[rand.Intn(len(quotes))]
	}
	return quotes[r.Intn(len(quotes))]
}
