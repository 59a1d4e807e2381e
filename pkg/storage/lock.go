package storage

import (
	"strconv"
	"sync"
)

// HashLock holds a fixed set of locks, shared by folders whose name hashes start alike.
type HashLock [4096]sync.RWMutex

// Get returns the lock for a hex folder hash, or nil if the hash is invalid.
func (h *HashLock) Get(hash string) *sync.RWMutex {
	if len(hash) < 3 {
		return nil
	}
	i, err := strconv.ParseInt(hash[0:3], 16, 0)
	if err != nil {
		return nil
	}
	return &h[i]
}
