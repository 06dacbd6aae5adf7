package ingest

import "sync"

// ChatLocks hands out one mutex per chat. Entries are dropped when no
// goroutine holds or waits for them.
type ChatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewChatLocks() *ChatLocks {
	return &ChatLocks{locks: make(map[int64]*chatLock)}
}

// Lock blocks until chatID is free and returns the matching unlock func.
func (c *ChatLocks) Lock(chatID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}

// WithLock runs fn while holding the lock for chatID.
func (c *ChatLocks) WithLock(chatID int64, fn func() error) error {
	unlock := c.Lock(chatID)
	defer unlock()
	return fn()
}

func (c *ChatLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
