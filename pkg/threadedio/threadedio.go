// Package threadedio decorates an iofile.File with a background goroutine
// and an iocache.IoCache, decoupling the caller's compute from the
// underlying blocking I/O. Grounded on
// packager/media/file/threaded_io_file.{h,cc}.
package threadedio

import (
	"context"
	"io"
	"sync"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iocache"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iofile"
	"golang.org/x/sync/errgroup"
)

var log = logging.Get("/packager/threadedio")

// direction the wrapper operates in. A ThreadedIoFile is either an input
// decorator or an output decorator, never both.
type direction int

const (
	input direction = iota
	output
)

// DefaultCacheSize and DefaultBlockSize are the buffered-I/O size defaults,
// chosen to hold several network round-trips' worth of segment data
// without the foreground blocking on the kernel.
const (
	DefaultCacheSize = 4 << 20 // 4 MiB
	DefaultBlockSize = 64 << 10
)

// ThreadedIoFile wraps an iofile.File so the foreground never blocks on the
// underlying kernel I/O, only on the cache.
type ThreadedIoFile struct {
	underlying iofile.File
	cache      *iocache.IoCache
	dir        direction
	blockSize  int

	mu        sync.Mutex
	stickyErr error

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewInput starts a background goroutine that reads blocks from the
// underlying file into the cache; the foreground reads from the cache.
func NewInput(underlying iofile.File, cacheSize, blockSize int) *ThreadedIoFile {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	t := &ThreadedIoFile{
		underlying: underlying,
		cache:      iocache.New(cacheSize),
		dir:        input,
		blockSize:  blockSize,
		group:      group,
		cancel:     cancel,
	}
	group.Go(func() error { return t.pumpInput(ctx) })
	return t
}

// NewOutput starts a background goroutine that drains the cache into the
// underlying file; the foreground writes into the cache.
func NewOutput(underlying iofile.File, cacheSize, blockSize int) *ThreadedIoFile {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	t := &ThreadedIoFile{
		underlying: underlying,
		cache:      iocache.New(cacheSize),
		dir:        output,
		blockSize:  blockSize,
		group:      group,
		cancel:     cancel,
	}
	group.Go(func() error { return t.pumpOutput(ctx) })
	return t
}

func (t *ThreadedIoFile) pumpInput(ctx context.Context) error {
	buf := make([]byte, t.blockSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := t.underlying.Read(buf)
		if n > 0 {
			t.cache.Write(buf[:n])
		}
		if err != nil {
			t.latch(err)
			t.cache.Close()
			return err
		}
		if n == 0 {
			t.cache.Close()
			return nil
		}
	}
}

func (t *ThreadedIoFile) pumpOutput(ctx context.Context) error {
	buf := make([]byte, t.blockSize)
	for {
		n := t.cache.Read(buf)
		if n == 0 {
			if t.cache.Closed() {
				return nil
			}
			continue
		}
		if _, err := t.underlying.Write(buf[:n]); err != nil {
			t.latch(err)
			return err
		}
	}
}

func (t *ThreadedIoFile) latch(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stickyErr == nil {
		t.stickyErr = err
		log.Error("threadedio: sticky error latched", "error", err)
	}
}

func (t *ThreadedIoFile) Sticky() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stickyErr
}

// Read reads from the cache (input mode only).
func (t *ThreadedIoFile) Read(buf []byte) (int, error) {
	if t.dir != input {
		return 0, &iofile.ErrNotSupported{Op: "read on an output-mode ThreadedIoFile"}
	}
	if err := t.Sticky(); err != nil {
		return 0, err
	}
	n := t.cache.Read(buf)
	if n == 0 {
		if err := t.Sticky(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return n, nil
}

// Write writes into the cache (output mode only).
func (t *ThreadedIoFile) Write(buf []byte) (int, error) {
	if t.dir != output {
		return 0, &iofile.ErrNotSupported{Op: "write on an input-mode ThreadedIoFile"}
	}
	if err := t.Sticky(); err != nil {
		return 0, err
	}
	n := t.cache.Write(buf)
	if n == 0 {
		if err := t.Sticky(); err != nil {
			return 0, err
		}
		return 0, io.ErrClosedPipe
	}
	return n, nil
}

// Size returns the underlying file's size.
func (t *ThreadedIoFile) Size() int64 { return t.underlying.Size() }

// Seek is not supported on the wrapper.
func (t *ThreadedIoFile) Seek(pos int64) (int64, error) {
	return 0, &iofile.ErrNotSupported{Op: "seek"}
}

// Tell is not supported on the wrapper.
func (t *ThreadedIoFile) Tell() (int64, error) {
	return 0, &iofile.ErrNotSupported{Op: "tell"}
}

// Flush is a barrier in output mode: it closes the cache, waits for the
// drain goroutine, then reopens the cache for reuse. It is a no-op for
// input mode.
func (t *ThreadedIoFile) Flush() error {
	if t.dir != output {
		return nil
	}
	t.cache.WaitUntilEmptyOrClosed()
	t.cache.Close()
	if err := t.group.Wait(); err != nil {
		return err
	}
	if err := t.underlying.Flush(); err != nil {
		return err
	}
	t.cache.Reopen()
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	t.group = group
	t.cancel = cancel
	group.Go(func() error { return t.pumpOutput(ctx) })
	return nil
}

// Close drains any pending data (output mode) then releases the
// underlying file. Its return value indicates whether buffered data was
// successfully flushed.
func (t *ThreadedIoFile) Close() error {
	if t.dir == output {
		t.cache.WaitUntilEmptyOrClosed()
	}
	t.cache.Close()
	t.cancel()
	err := t.group.Wait()
	if closeErr := t.underlying.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
