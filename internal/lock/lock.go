// Package lock serializes money-moving work per group across instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrNotObtained means another holder owns the lock.
var ErrNotObtained = errors.New("lock not obtained")

// GroupLocker holds a group's disbursement lock until release is called.
type GroupLocker interface {
	Lock(ctx context.Context, groupID uuid.UUID) (release func(), err error)
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisLocker retries for up to a quarter of ttl before giving up.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) GroupLocker {
	backoff := redislock.ExponentialBackoff(20*time.Millisecond, 500*time.Millisecond)
	return &redisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(backoff, 8),
	}
}

func (l *redisLocker) Lock(ctx context.Context, groupID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("shg:disburse:%s", groupID)

	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}

	return func() {
		// Release with a fresh context: the request ctx may already be done.
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("release group lock")
		}
	}, nil
}

// Local is an in-process GroupLocker for single-instance runs and tests.
type Local struct {
	ch chan struct{}
}

func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

func (l *Local) Lock(ctx context.Context, _ uuid.UUID) (func(), error) {
	select {
	case l.ch <- struct{}{}:
		return func() { <-l.ch }, nil
	case <-ctx.Done():
		return nil, ErrNotObtained
	}
}
