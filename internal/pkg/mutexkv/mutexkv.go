package mutexkv

import "sync"

// MutexKV serializes read-modify-write sequences per key so unrelated
// accounts and giveaways never contend on one global lock.
type MutexKV struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func New() *MutexKV {
	return &MutexKV{locks: map[string]*keyLock{}}
}

// Lock blocks until the key is held and returns the unlock func.
func (kv *MutexKV) Lock(key string) func() {
	kv.mu.Lock()
	l, ok := kv.locks[key]
	if !ok {
		l = &keyLock{}
		kv.locks[key] = l
	}
	l.refs++
	kv.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		kv.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(kv.locks, key)
		}
		kv.mu.Unlock()
	}
}
