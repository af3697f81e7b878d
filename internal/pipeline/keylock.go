package pipeline

import (
	"sort"
	"sync"
)

// KeyLock serializes work per identity key. Two contacts that share any key
// (same email, same phone, same platform identity) must not resolve
// concurrently, or both could miss the match and create duplicate leads.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock creates an empty KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyEntry)}
}

// Lock acquires every key in sorted order and returns the matching unlock.
// Sorting keeps the acquisition order globally consistent, so two imports
// holding overlapping key sets cannot deadlock.
func (k *KeyLock) Lock(keys []string) func() {
	if len(keys) == 0 {
		return func() {}
	}

	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	entries := make([]*keyEntry, len(sorted))
	for i, key := range sorted {
		entries[i] = k.acquire(key)
		entries[i].mu.Lock()
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
			k.release(sorted[i])
		}
	}
}

func (k *KeyLock) acquire(key string) *keyEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyEntry{}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
