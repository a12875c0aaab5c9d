// Package casereference allocates the human-facing numeric case references.
// References are unique and increasing but may have gaps: a reference taken by a
// transaction that later rolls back is never reissued.
package casereference

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"caseprocessor/pkg/platform/sentinel"
)

// RedisGenerator takes references from an INCR counter shared by every instance.
type RedisGenerator struct {
	client redis.Cmdable
	key    string
	offset int64
}

// NewRedisGenerator creates a generator over key. The first reference is offset+1.
func NewRedisGenerator(client redis.Cmdable, key string, offset int64) (*RedisGenerator, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if key == "" {
		return nil, errors.New("sequence key is required")
	}
	return &RedisGenerator{client: client, key: key, offset: offset}, nil
}

// Next returns the next reference.
func (g *RedisGenerator) Next(ctx context.Context) (int64, error) {
	n, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w: %v", g.key, sentinel.ErrUnavailable, err)
	}
	return g.offset + n, nil
}

// Sequence is an in-process generator for tests and single-instance runs.
type Sequence struct {
	n atomic.Int64
}

// NewSequence starts a sequence whose first reference is start+1.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next returns the next reference.
func (s *Sequence) Next(context.Context) (int64, error) {
	return s.n.Add(1), nil
}
