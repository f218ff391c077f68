package iofile

import (
	"fmt"
	"sync"
)

// memoryEntry is one name's backing byte vector in memRegistry, the
// process-wide map of name -> entry; concurrent opens of a name share the
// same entry. Grounded on
// packager/media/file/memory_file.cc.
type memoryEntry struct {
	mu   sync.Mutex
	data []byte
}

var (
	memRegistryMu sync.Mutex
	memRegistry   = map[string]*memoryEntry{}
)

// DeleteMemoryFile removes a name from the in-memory registry. Handles
// still open against it observe undefined data thereafter.
func DeleteMemoryFile(name string) {
	memRegistryMu.Lock()
	defer memRegistryMu.Unlock()
	delete(memRegistry, name)
}

// ClearMemoryFiles wipes the entire registry. Used by test teardown.
func ClearMemoryFiles() {
	memRegistryMu.Lock()
	defer memRegistryMu.Unlock()
	memRegistry = map[string]*memoryEntry{}
}

func entryFor(name string, create bool) (*memoryEntry, bool) {
	memRegistryMu.Lock()
	defer memRegistryMu.Unlock()
	e, ok := memRegistry[name]
	if !ok && create {
		e = &memoryEntry{}
		memRegistry[name] = e
		ok = true
	}
	return e, ok
}

type memoryFile struct {
	name string
	mode Mode
	pos  int64
}

func openMemory(name string, mode Mode) (File, error) {
	switch mode {
	case ReadMode:
		if _, ok := entryFor(name, false); !ok {
			return nil, fmt.Errorf("iofile: memory://%s does not exist", name)
		}
	case WriteMode:
		e, _ := entryFor(name, true)
		e.mu.Lock()
		e.data = nil
		e.mu.Unlock()
	case AppendMode:
		entryFor(name, true)
	}
	return &memoryFile{name: name, mode: mode}, nil
}

func (m *memoryFile) entry() *memoryEntry {
	e, _ := entryFor(m.name, true)
	return e
}

func (m *memoryFile) Read(buf []byte) (int, error) {
	e := m.entry()
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.pos >= int64(len(e.data)) {
		return 0, nil
	}
	n := copy(buf, e.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memoryFile) Write(buf []byte) (int, error) {
	e := m.entry()
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.mode == AppendMode {
		m.pos = int64(len(e.data))
	}
	end := m.pos + int64(len(buf))
	if end > int64(len(e.data)) {
		grown := make([]byte, end)
		copy(grown, e.data)
		e.data = grown
	}
	copy(e.data[m.pos:end], buf)
	m.pos = end
	return len(buf), nil
}

func (m *memoryFile) Size() int64 {
	e := m.entry()
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(len(e.data))
}

func (m *memoryFile) Seek(pos int64) (int64, error) {
	m.pos = pos
	return m.pos, nil
}

func (m *memoryFile) Tell() (int64, error) {
	return m.pos, nil
}

func (m *memoryFile) Flush() error { return nil }

func (m *memoryFile) Close() error { return nil }
