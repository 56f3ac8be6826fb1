package keylock

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 256

// KeyLock serializes whole operations per string key. Keys hashing to
// the same stripe share a mutex, so unrelated keys may contend but a
// given key is always mutually exclusive. The zero value is not usable,
// call New.
type KeyLock struct {
	stripes []sync.Mutex
}

func New() *KeyLock {
	return NewWithStripes(defaultStripes)
}

func NewWithStripes(n int) *KeyLock {
	if n <= 0 {
		n = defaultStripes
	}
	return &KeyLock{stripes: make([]sync.Mutex, n)}
}

func (l *KeyLock) Lock(key string) {
	l.stripes[l.index(key)].Lock()
}

func (l *KeyLock) Unlock(key string) {
	l.stripes[l.index(key)].Unlock()
}

func (l *KeyLock) index(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.stripes)))
}
