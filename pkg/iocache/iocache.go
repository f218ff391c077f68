// Package iocache implements a fixed-capacity circular byte buffer with
// blocking read/write semantics, decoupling a producer goroutine from a
// consumer goroutine.
//
// Exactly one writer and one reader are expected; the cache does not
// serialize multiple concurrent writers (or readers) against each other.
package iocache

import (
	"sync"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
)

var log = logging.Get("/packager/iocache")

// IoCache is a bounded circular byte buffer with blocking read/write.
type IoCache struct {
	mu     sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	drained  *sync.Cond

	buf    []byte // sized capacity+1 so full/empty are distinguishable
	head   int    // next byte to read
	tail   int    // next slot to write
	closed bool
}

// New creates an IoCache able to hold up to capacity bytes before a writer
// blocks.
func New(capacity int) *IoCache {
	if capacity <= 0 {
		capacity = 1
	}
	c := &IoCache{
		buf: make([]byte, capacity+1),
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	c.drained = sync.NewCond(&c.mu)
	return c
}

func (c *IoCache) cachedLocked() int {
	n := c.tail - c.head
	if n < 0 {
		n += len(c.buf)
	}
	return n
}

// BytesCached reports the instantaneous number of buffered bytes.
func (c *IoCache) BytesCached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedLocked()
}

// BytesFree reports the instantaneous free capacity.
func (c *IoCache) BytesFree() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (len(c.buf) - 1) - c.cachedLocked()
}

// Read blocks until at least one byte is available or the cache is closed.
// It returns 0 only when the cache is both empty and closed.
func (c *IoCache) Read(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.cachedLocked() == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	if c.cachedLocked() == 0 && c.closed {
		return 0
	}

	n := 0
	for n < len(p) && c.cachedLocked() > 0 {
		p[n] = c.buf[c.head]
		c.head = (c.head + 1) % len(c.buf)
		n++
	}
	if c.cachedLocked() == 0 {
		c.drained.Broadcast()
	}
	c.notFull.Broadcast()
	return n
}

// Write blocks as long as there is no free capacity, looping until the
// whole input has been written. It returns 0 if the cache is closed,
// including mid-write, even though a prefix may already be visible to
// the reader.
func (c *IoCache) Write(p []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	written := 0
	for written < len(p) {
		for (len(c.buf)-1)-c.cachedLocked() == 0 && !c.closed {
			c.notFull.Wait()
		}
		if c.closed {
			return 0
		}
		free := (len(c.buf) - 1) - c.cachedLocked()
		n := len(p) - written
		if n > free {
			n = free
		}
		for i := 0; i < n; i++ {
			c.buf[c.tail] = p[written+i]
			c.tail = (c.tail + 1) % len(c.buf)
		}
		written += n
		c.notEmpty.Broadcast()
	}
	return written
}

// Clear drops all buffered bytes and wakes any blocked writer.
func (c *IoCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = 0
	c.tail = 0
	c.notFull.Broadcast()
	c.drained.Broadcast()
}

// Close wakes both readers and writers. Further reads return 0 once
// drained; further writes return 0.
func (c *IoCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
	c.drained.Broadcast()
}

// Reopen returns a closed cache to the open state, discarding any residual
// bytes.
func (c *IoCache) Reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = false
	c.head = 0
	c.tail = 0
}

// Closed reports whether the cache has been closed.
func (c *IoCache) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// WaitUntilEmptyOrClosed blocks until the cache has been fully drained or
// closed.
func (c *IoCache) WaitUntilEmptyOrClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.cachedLocked() != 0 && !c.closed {
		c.drained.Wait()
	}
}
