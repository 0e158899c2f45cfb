package services

import (
	"log"

	"coindrop/internal/pkg/mutexkv"

	"github.com/go-redsync/redsync/v4"
	"github.com/samber/do"
)

// locker serializes per-key critical sections. Callers inside one
// process are serialized by mutexkv; when a redsync instance is wired
// the key is also held across processes, so the api, bot and cron
// binaries never mutate the same row concurrently.
type locker struct {
	local *mutexkv.MutexKV
	rs    *redsync.Redsync
}

func newLocker(container *do.Injector) *locker {
	rs, _ := do.Invoke[*redsync.Redsync](container)
	return &locker{mutexkv.New(), rs}
}

func (l *locker) Lock(key string) func() {
	unlock := l.local.Lock(key)
	if l.rs == nil {
		return unlock
	}

	mutex := l.rs.NewMutex(key, redsync.WithExpiry(LOCK_MUTEX_EXPIRY))
	if err := mutex.Lock(); err != nil {
		log.Printf("distributed lock %s: %v", key, err)
		return unlock
	}

	return func() {
		//nolint:errcheck
		mutex.Unlock()
		unlock()
	}
}
