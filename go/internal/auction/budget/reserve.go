package budget

// MaxBid returns the maximum legal bid for a participant on the current lot.
// Enough budget is reserved to still afford the per-slot minimum on every
// roster slot that would remain unfilled after winning this lot.
//
// A participant whose roster is already full is unconditionally unbiddable;
// that case is handled by the validator, not by this formula.
func MaxBid(remainingBudget int64, slotsFilled, requiredSlots int, perSlotMinimum int64) int64 {
	return remainingBudget - int64(slotsRemainingAfterWin(slotsFilled, requiredSlots))*perSlotMinimum
}

func slotsRemainingAfterWin(slotsFilled, requiredSlots int) int {
	remaining := requiredSlots - slotsFilled - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}
