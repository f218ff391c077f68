package iocache

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlocksUntilDataOrClose(t *testing.T) {
	c := New(16)
	done := make(chan int, 1)
	go func() {
		buf := make([]byte, 4)
		done <- c.Read(buf)
	}()

	select {
	case <-done:
		t.Fatal("Read returned before any data was written or the cache closed")
	case <-time.After(50 * time.Millisecond):
	}

	c.Close()
	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Close")
	}
}

func TestWriteBlocksOnFullCache(t *testing.T) {
	c := New(4)
	require.Equal(t, 4, c.Write([]byte{1, 2, 3, 4}))
	assert.Equal(t, 4, c.BytesCached())
	assert.Equal(t, 0, c.BytesFree())

	writeDone := make(chan int, 1)
	go func() { writeDone <- c.Write([]byte{5}) }()

	select {
	case <-writeDone:
		t.Fatal("Write on a full cache should block")
	case <-time.After(50 * time.Millisecond):
	}

	out := make([]byte, 1)
	n := c.Read(out)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(1), out[0])

	select {
	case n := <-writeDone:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("Write did not unblock once space freed up")
	}
}

func TestFIFOUnderConcurrentSingleWriterSingleReader(t *testing.T) {
	c := New(37) // deliberately awkward capacity vs. chunk sizes
	const total = 200_000
	src := make([]byte, total)
	rand.New(rand.NewSource(1)).Read(src)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		off := 0
		for off < len(src) {
			n := 1 + rand.Intn(13)
			if off+n > len(src) {
				n = len(src) - off
			}
			written := c.Write(src[off : off+n])
			require.NotZero(t, written)
			off += written
		}
		c.Close()
	}()

	var got bytes.Buffer
	go func() {
		defer wg.Done()
		buf := make([]byte, 11)
		for {
			n := c.Read(buf)
			if n == 0 {
				return
			}
			got.Write(buf[:n])
		}
	}()

	wg.Wait()
	assert.Equal(t, src, got.Bytes())
}

func TestClearDropsBufferedBytes(t *testing.T) {
	c := New(8)
	c.Write([]byte{1, 2, 3})
	assert.Equal(t, 3, c.BytesCached())
	c.Clear()
	assert.Equal(t, 0, c.BytesCached())
}

func TestReopenAfterClose(t *testing.T) {
	c := New(8)
	c.Write([]byte{1, 2, 3})
	c.Close()
	assert.Equal(t, 3, c.Read(make([]byte, 8)))

	c.Reopen()
	assert.False(t, c.Closed())
	assert.Equal(t, 0, c.BytesCached())
	require.Equal(t, 2, c.Write([]byte{9, 9}))
}

func TestWaitUntilEmptyOrClosed(t *testing.T) {
	c := New(8)
	c.Write([]byte{1, 2})

	drained := make(chan struct{})
	go func() {
		c.WaitUntilEmptyOrClosed()
		close(drained)
	}()

	select {
	case <-drained:
		t.Fatal("should not be drained yet")
	case <-time.After(30 * time.Millisecond):
	}

	c.Read(make([]byte, 2))
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilEmptyOrClosed did not return after drain")
	}
}
