package usecase

import "github.com/vitos/reversal_bot/internal/domain"

// DecideIntents returns the ordered intents for a signal given the held
// position. A close of the opposing side always comes first; an open is only
// emitted for a Strong signal, when not already on the target side and when
// newSize is positive. A close is never blocked by a zero newSize.
func DecideIntents(current *domain.Position, sig domain.Signal, newSize float64) []domain.OrderIntent {
	held := current.HeldSide()
	target := sig.Direction.Side()

	var intents []domain.OrderIntent
	if held == target.Opposite() {
		intents = append(intents, domain.CloseIntent(held, current.Size))
	}
	if sig.Strength == domain.Strong && held != target && newSize > 0 {
		intents = append(intents, domain.OpenIntent(target, newSize))
	}
	return intents
}

// WantsOpen reports whether the signal would open a new position from current,
// i.e. whether a size has to be computed at all.
func WantsOpen(current *domain.Position, sig domain.Signal) bool {
	return sig.Strength == domain.Strong && current.HeldSide() != sig.Direction.Side()
}
