// Package iofile implements the File abstraction: a single interface over
// local-filesystem, UDP-receive, and in-memory backings, selected by a
// URL-style scheme prefix and a package-level registry of one constructor
// per scheme.
package iofile

import (
	"fmt"
	"strings"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
)

var log = logging.Get("/packager/iofile")

// Mode is the access mode a file is opened with.
type Mode int

const (
	ReadMode Mode = iota
	WriteMode
	AppendMode
)

// SizeUnknown is the sentinel Size() returns for non-seekable or unbounded
// backings (UDP sockets, some remote sources). Callers must not treat it as
// a finite value.
const SizeUnknown int64 = -1

// File is the abstraction every parser and writer in this module is coded
// against, so that every pipeline is testable against in-memory storage.
type File interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Size() int64
	Seek(pos int64) (int64, error)
	Tell() (int64, error)
	Flush() error
	Close() error
}

// ErrNotSupported is returned by operations a backing cannot perform
// (seek/tell on a non-seekable file, write on a read-only UDP socket).
type ErrNotSupported struct{ Op string }

func (e *ErrNotSupported) Error() string { return fmt.Sprintf("iofile: %s not supported", e.Op) }

// Opener constructs a File for a name stripped of its scheme prefix.
type Opener func(name string, mode Mode) (File, error)

var schemes = map[string]Opener{}

// RegisterScheme associates a URL scheme (without "://") with a
// constructor. Tests register "memory" before use and may deregister it in
// teardown to avoid cross-test leakage.
func RegisterScheme(scheme string, opener Opener) {
	schemes[scheme] = opener
}

// DeregisterScheme removes a previously registered scheme.
func DeregisterScheme(scheme string) {
	delete(schemes, scheme)
}

func init() {
	RegisterScheme("file", func(name string, mode Mode) (File, error) { return openLocal(name, mode) })
	RegisterScheme("udp", func(name string, mode Mode) (File, error) { return openUDP(name, mode) })
	RegisterScheme("memory", func(name string, mode Mode) (File, error) { return openMemory(name, mode) })
}

// Open dispatches name's scheme prefix ("file://", "udp://", "memory://",
// or no scheme meaning local file) to the registered Opener.
func Open(name string, mode Mode) (File, error) {
	scheme, rest := splitScheme(name)
	opener, ok := schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("iofile: no opener registered for scheme %q", scheme)
	}
	log.Debug("Open", "name", name, "scheme", scheme, "mode", mode)
	return opener(rest, mode)
}

func splitScheme(name string) (scheme, rest string) {
	if i := strings.Index(name, "://"); i >= 0 {
		return name[:i], name[i+3:]
	}
	return "file", name
}

// ShouldCache reports whether Open's caller should wrap the returned File
// with the threaded-I/O layer: true for every scheme (local files and
// udp:// included) except memory://.
func ShouldCache(name string) bool {
	scheme, _ := splitScheme(name)
	return scheme != "memory"
}
