package transactions

// Merge lays an update response over the previous snapshot.
// Update responses may omit the currency options, so the previous
// options are preserved whenever the update carries none.
// Every other field takes the update's value
func Merge(previous, update Summary) (merged Summary) {
	merged = update
	if len(merged.CurrencyOptions) == 0 {
		merged.CurrencyOptions = previous.CurrencyOptions
	}
	return merged
}
