package pcqueue

import (
	"testing"
	"time"

	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicPeek(t *testing.T) {
	q := New[int](0)
	require.True(t, q.Push(10, time.Second).Ok())
	require.True(t, q.Push(11, time.Second).Ok())

	v, st := q.Peek(0, time.Second)
	require.True(t, st.Ok())
	assert.Equal(t, 10, v)

	v, st = q.Peek(1, time.Second)
	require.True(t, st.Ok())
	assert.Equal(t, 11, v)
}

func TestPeekInvalidArgumentAfterWindowSlides(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 20; i++ {
		require.True(t, q.Push(i, time.Second).Ok())
		_, st := q.Peek(i, time.Second)
		require.True(t, st.Ok())
	}

	_, st := q.Peek(18, time.Second)
	require.True(t, st.Ok())

	_, st = q.Peek(0, time.Second)
	assert.Equal(t, status.InvalidArgument, st.Code())
}

func TestStopWakesBlockedWaiters(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Push(1, time.Second).Ok())

	pushDone := make(chan status.Status, 1)
	go func() { pushDone <- q.Push(2, 5*time.Second) }()

	popDone := make(chan status.Status, 1)
	go func() {
		_, st := q.Peek(5, 5*time.Second)
		popDone <- st
	}()

	time.Sleep(30 * time.Millisecond)
	q.Stop()

	select {
	case st := <-pushDone:
		assert.Equal(t, status.Stopped, st.Code())
	case <-time.After(time.Second):
		t.Fatal("blocked push did not wake on Stop")
	}

	select {
	case st := <-popDone:
		assert.Equal(t, status.Stopped, st.Code())
	case <-time.After(time.Second):
		t.Fatal("blocked peek did not wake on Stop")
	}
}

func TestPopDrainsAfterStop(t *testing.T) {
	q := New[int](0)
	require.True(t, q.Push(42, time.Second).Ok())
	q.Stop()

	v, st := q.Pop(time.Second)
	require.True(t, st.Ok())
	assert.Equal(t, 42, v)

	_, st = q.Pop(time.Second)
	assert.Equal(t, status.Stopped, st.Code())
}

func TestPushTimeout(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Push(1, time.Second).Ok())
	st := q.Push(2, 20*time.Millisecond)
	assert.Equal(t, status.TimeOut, st.Code())
}
