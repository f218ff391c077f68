package threadedio

import (
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iofile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadedWriteThenRead(t *testing.T) {
	name := "memory://" + uuid.NewString()
	key := name[len("memory://"):]
	t.Cleanup(func() { iofile.DeleteMemoryFile(key) })

	underlyingW, err := iofile.Open(name, iofile.WriteMode)
	require.NoError(t, err)
	tw := NewOutput(underlyingW, 64<<10, 4<<10)

	const total = 1 << 20
	chunk := make([]byte, 4096)
	for i := range chunk {
		chunk[i] = byte(i)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		written := 0
		for written < total {
			n, err := tw.Write(chunk)
			require.NoError(t, err)
			written += n
		}
		require.NoError(t, tw.Close())
	}()
	wg.Wait()

	underlyingR, err := iofile.Open(name, iofile.ReadMode)
	require.NoError(t, err)
	tr := NewInput(underlyingR, 64<<10, 4<<10)
	defer tr.Close()

	got := make([]byte, 0, total)
	buf := make([]byte, 4096)
	for {
		n, err := tr.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}

	assert.Equal(t, total, len(got))
	for i := 0; i < total; i++ {
		assert.Equal(t, chunk[i%len(chunk)], got[i], "mismatch at %d", i)
	}
}

func TestReadOnOutputModeUnsupported(t *testing.T) {
	name := "memory://" + uuid.NewString()
	t.Cleanup(func() { iofile.DeleteMemoryFile(name[len("memory://"):]) })
	underlying, err := iofile.Open(name, iofile.WriteMode)
	require.NoError(t, err)
	tw := NewOutput(underlying, 0, 0)
	defer tw.Close()

	_, err = tw.Read(make([]byte, 1))
	var nsErr *iofile.ErrNotSupported
	require.ErrorAs(t, err, &nsErr)
}

func TestStickyErrorOnUnderlyingFailure(t *testing.T) {
	underlying := &failingFile{}
	tr := NewInput(underlying, 0, 1024)

	buf := make([]byte, 16)
	for i := 0; i < 100; i++ {
		n, err := tr.Read(buf)
		if err != nil {
			require.Equal(t, 0, n)
			return
		}
	}
	t.Fatal("expected sticky error to surface")
}

type failingFile struct{}

func (f *failingFile) Read(buf []byte) (int, error)  { return 0, io.ErrUnexpectedEOF }
func (f *failingFile) Write(buf []byte) (int, error) { return 0, io.ErrClosedPipe }
func (f *failingFile) Size() int64                   { return iofile.SizeUnknown }
func (f *failingFile) Seek(pos int64) (int64, error) { return 0, &iofile.ErrNotSupported{Op: "seek"} }
func (f *failingFile) Tell() (int64, error)          { return 0, &iofile.ErrNotSupported{Op: "tell"} }
func (f *failingFile) Flush() error                  { return nil }
func (f *failingFile) Close() error                  { return nil }
