package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/ports/output"
)

const leaseKeyPrefix = "rollcall:lease:"

var _ output.Lease = (*Lease)(nil)

// Lease hands a named job to one instance at a time. The key expires on
// its own, so a crashed holder blocks the job for at most one ttl.
type Lease struct {
	client redis.Cmdable
	owner  string
}

func NewLease(client redis.Cmdable) *Lease {
	host, _ := os.Hostname()
	return &Lease{client: client, owner: fmt.Sprintf("%s:%d", host, os.Getpid())}
}

// Acquire reports whether this instance now holds the lease named name.
func (l *Lease) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKeyPrefix+name, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	return ok, nil
}
