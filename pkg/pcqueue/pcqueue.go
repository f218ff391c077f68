// Package pcqueue implements a generic bounded producer/consumer queue with
// monotonic position indexing. It is the building block the remote key
// source uses to hand rotated crypto-period keys to consumers ("give me the
// key for period N") with bounded memory via window sliding.
package pcqueue

import (
	"sync"
	"time"

	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

// Queue is a bounded FIFO of T values addressable by monotonic position.
// Capacity 0 means unlimited.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	posReady *sync.Cond

	capacity int
	items    []T
	headPos  int // position of items[0]
	stopped  bool
}

// New creates a Queue with the given capacity (0 = unlimited).
func New[T any](capacity int) *Queue[T] {
	q := &Queue[T]{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	q.posReady = sync.NewCond(&q.mu)
	return q
}

func (q *Queue[T]) fullLocked() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

// Push blocks until free capacity exists or timeout expires. Returns
// status.Stopped if the queue was stopped, status.TimeOut on expiration.
func (q *Queue[T]) Push(v T, timeout time.Duration) status.Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for q.fullLocked() && !q.stopped {
		if !q.waitUntil(q.notFull, deadline, timeout) {
			return status.New(status.TimeOut, "push timed out")
		}
	}
	if q.stopped {
		return status.New(status.Stopped, "queue stopped")
	}
	q.items = append(q.items, v)
	q.notEmpty.Broadcast()
	q.posReady.Broadcast()
	return status.OKStatus
}

// Pop blocks until an item is available or timeout expires. Returns
// status.Stopped once the queue is both stopped and drained.
func (q *Queue[T]) Pop(timeout time.Duration) (T, status.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	deadline := time.Now().Add(timeout)
	for len(q.items) == 0 && !q.stopped {
		if !q.waitUntil(q.notEmpty, deadline, timeout) {
			return zero, status.New(status.TimeOut, "pop timed out")
		}
	}
	if len(q.items) == 0 {
		return zero, status.New(status.Stopped, "queue stopped and drained")
	}
	v := q.items[0]
	q.items = q.items[1:]
	q.headPos++
	q.notFull.Broadcast()
	return v, status.OKStatus
}

// Peek blocks until position pos is available or timeout expires. As a
// side effect, the head slides forward so that pos sits near the center of
// the window, bounding memory across long runs. Precondition: pos >=
// head position (violations return status.InvalidArgument immediately).
func (q *Queue[T]) Peek(pos int, timeout time.Duration) (T, status.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if pos < q.headPos {
		return zero, status.New(status.InvalidArgument, "peek position has already slid out of the window")
	}

	deadline := time.Now().Add(timeout)
	idx := pos - q.headPos
	for idx >= len(q.items) && !q.stopped {
		if !q.waitUntil(q.posReady, deadline, timeout) {
			return zero, status.New(status.TimeOut, "peek timed out")
		}
		idx = pos - q.headPos
		if idx < 0 {
			return zero, status.New(status.InvalidArgument, "peek position has already slid out of the window")
		}
	}
	if idx >= len(q.items) {
		return zero, status.New(status.Stopped, "queue stopped before position was available")
	}
	v := q.items[idx]

	// Slide the window so pos sits near the center of a capacity-sized
	// window, discarding everything strictly before the new head.
	if q.capacity > 0 {
		half := q.capacity / 2
		newHeadPos := pos - half
		if newHeadPos > q.headPos {
			drop := newHeadPos - q.headPos
			if drop > len(q.items) {
				drop = len(q.items)
			}
			q.items = q.items[drop:]
			q.headPos += drop
			q.notFull.Broadcast()
		}
	}
	return v, status.OKStatus
}

// Stop wakes all waiters; after Stop, pushes fail but pops/peeks already
// in the window may still drain.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.posReady.Broadcast()
}

// Stopped reports whether Stop has been called.
func (q *Queue[T]) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Len reports the instantaneous number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// waitUntil waits on cond until woken or deadline passes (timeout<=0 means
// wait forever). It returns false on timeout. The caller must hold q.mu.
func (q *Queue[T]) waitUntil(cond *sync.Cond, deadline time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		cond.Wait()
		return true
	}
	if time.Now().After(deadline) {
		return false
	}
	// sync.Cond has no timed wait; a timer broadcasts on cond when the
	// deadline passes, so this Wait returns no later than the deadline.
	timer := time.AfterFunc(time.Until(deadline), func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
	})
	cond.Wait()
	timer.Stop()
	return !time.Now().After(deadline)
}
