package pings

import "sync"

// channelLocks serializes read-modify-write cycles per Discord channel.
type channelLocks struct {
	mu    sync.Mutex
	locks map[string]*channelLock
}

type channelLock struct {
	mu      sync.Mutex
	holders int
}

func newChannelLocks() *channelLocks {
	return &channelLocks{locks: make(map[string]*channelLock)}
}

// Lock blocks until the channel is free and returns the matching unlock.
// Entries are dropped once no goroutine holds or waits for them.
func (c *channelLocks) Lock(channelID string) func() {
	c.mu.Lock()
	l, ok := c.locks[channelID]
	if !ok {
		l = &channelLock{}
		c.locks[channelID] = l
	}
	l.holders++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(c.locks, channelID)
		}
		c.mu.Unlock()
	}
}
