// Package sequence caches the next expected sequence number (nonce) per
// account for the lifetime of a process.
package sequence

import "sync"

// Cache maps account addresses to their next expected sequence number.
//
// The mutex keeps the map consistent under concurrent use, but a caller that
// reads a value, submits, and then reconciles still races with other callers
// using the same account. Submissions for one account must be serialized by
// the caller for sequence numbers to be strictly increasing.
type Cache struct {
	mu   sync.Mutex
	next map[string]uint64
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{next: make(map[string]uint64)}
}

// Get returns the cached next sequence number for account.
func (c *Cache) Get(account string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.next[account]
	return v, ok
}

// Reconcile overwrites the cached value with the authoritative remote value.
func (c *Cache) Reconcile(account string, remote uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next[account] = remote
}

// NextForSubmission returns the sequence number to use for the next
// submission and optimistically stores value+1. The remote value wins when it
// is ahead of the cache, e.g. after another tool submitted for the account.
func (c *Cache) NextForSubmission(account string, remote uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.next[account]
	if !ok || remote > v {
		v = remote
	}
	c.next[account] = v + 1
	return v
}

// Len returns the number of tracked accounts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.next)
}
