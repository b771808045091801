package outbound

import "time"

// RequestCache stores decoded GET responses by request key.
// Implementations are bounded and evict the oldest insertion first.
type RequestCache interface {
	// Get returns the data stored under key if it is younger than maxAge.
	// A stale entry is removed and reported as a miss. maxAge <= 0 never hits.
	Get(key string, maxAge time.Duration) (any, bool)

	// Set stores data under key, stamping it with the current time, and
	// returns how many old entries were evicted to make room.
	Set(key string, data any) (evicted int)

	// Clear removes every entry.
	Clear()

	// Len returns the number of stored entries, fresh or stale.
	Len() int
}
