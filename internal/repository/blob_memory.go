package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

var _ SessionBlobRepository = &SessionBlobMemory{}

// SessionBlobMemory keeps blobs in process memory and forgets them after the retention period.
// Only meant for local runs: state is lost on restart and not shared between replicas.
type SessionBlobMemory struct {
	cache *cache.Cache
}

func NewSessionBlobMemory(retention time.Duration) *SessionBlobMemory {
	if retention <= 0 {
		retention = cache.NoExpiration
	}

	cleanup := retention
	if cleanup == cache.NoExpiration {
		cleanup = 0
	}

	return &SessionBlobMemory{
		cache: cache.New(retention, cleanup),
	}
}

func (r *SessionBlobMemory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := r.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	stored := value.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, true, nil
}

func (r *SessionBlobMemory) Put(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	r.cache.SetDefault(key, stored)
	return nil
}
