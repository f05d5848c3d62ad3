package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last known state of a check and the last time a
// notification was sent for it (used for cooldown).
type AlertRecord struct {
	Check      string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore keeps alert state per check.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, check string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt keeps the previous send time.
	Set(ctx context.Context, check string, lastState bool, sentAt time.Time) error
}
