package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/ports/output"
)

const scanKeyPrefix = "rollcall:scan:"

var _ output.ScanThrottle = (*ScanThrottle)(nil)

// ScanThrottle lets one scanner scan once per window at a given event.
type ScanThrottle struct {
	client redis.Cmdable
	window time.Duration
}

func NewScanThrottle(client redis.Cmdable, window time.Duration) *ScanThrottle {
	return &ScanThrottle{client: client, window: window}
}

func (t *ScanThrottle) Allow(ctx context.Context, scannerID, eventID string) (bool, error) {
	key := scanKeyPrefix + eventID + ":" + scannerID
	ok, err := t.client.SetNX(ctx, key, 1, t.window).Result()
	if err != nil {
		return false, fmt.Errorf("scan throttle: %w", err)
	}
	return ok, nil
}
