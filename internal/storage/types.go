package storage

import "time"

// UsageRecord tracks how many generations a user has consumed in the
// current quota window. WindowStart marks when Count was last reset.
type UsageRecord struct {
	UserID      string    `json:"user_id"`
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}
