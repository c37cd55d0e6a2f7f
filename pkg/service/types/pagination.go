package types

const DefaultLimit = 20
const MaxLimit = 100

// NormalizeLimit applies the default for a missing limit and caps it at MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
