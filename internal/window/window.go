// Package window maps wall-clock time onto rotation window indices.
package window

// Index returns the rotation window that nowMillis falls into for the
// given window size. Both divisions are floor divisions; the inputs are
// never negative in practice (unix time, positive window), so Go's
// truncating integer division is exact here.
func Index(windowSeconds int64, nowMillis int64) uint64 {
	if windowSeconds <= 0 {
		return 0
	}
	seconds := nowMillis / 1000
	return uint64(seconds / windowSeconds)
}

// NextRotation returns the start of the window after the one containing
// nowMillis, in unix milliseconds.
func NextRotation(windowSeconds int64, nowMillis int64) int64 {
	if windowSeconds <= 0 {
		return nowMillis
	}
	idx := int64(Index(windowSeconds, nowMillis))
	return (idx + 1) * windowSeconds * 1000
}
