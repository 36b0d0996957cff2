package usecase

import (
	"strings"

	"github.com/vitos/reversal_bot/internal/domain"
)

// Phrases are matched in order: the "ai" phrases come before the "mild" ones
// so a looser matcher can never let a mild phrase shadow a strong one.
var signalPhrases = []struct {
	phrase string
	signal domain.Signal
}{
	{"ai bullish reversal", domain.Signal{Direction: domain.Bullish, Strength: domain.Strong}},
	{"ai bearish reversal", domain.Signal{Direction: domain.Bearish, Strength: domain.Strong}},
	{"mild bullish reversal", domain.Signal{Direction: domain.Bullish, Strength: domain.Mild}},
	{"mild bearish reversal", domain.Signal{Direction: domain.Bearish, Strength: domain.Mild}},
}

// ClassifySignal maps raw alert text to a Signal. The match is a
// case-insensitive substring search on the trimmed text.
func ClassifySignal(raw string) (domain.Signal, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return domain.Signal{}, false
	}
	for _, p := range signalPhrases {
		if strings.Contains(text, p.phrase) {
			return p.signal, true
		}
	}
	return domain.Signal{}, false
}
