package redisx

import "time"

const (
	// Cached Econt office list, already filtered to BG: econt:offices:{country}
	KeyEcontOffices = "econt:offices:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLEcontOffices = 10 * time.Minute
	TTLDedup        = 48 * time.Hour
)
