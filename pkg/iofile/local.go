package iofile

import (
	"io"
	"os"
)

// localFile is a thin wrapper over the OS's unbuffered file API, grounded
// on packager/media/file/file.cc's description of the local backing.
type localFile struct {
	f    *os.File
	mode Mode
}

func openLocal(name string, mode Mode) (File, error) {
	var f *os.File
	var err error
	switch mode {
	case ReadMode:
		f, err = os.Open(name)
	case WriteMode:
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	case AppendMode:
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	}
	if err != nil {
		return nil, err
	}
	return &localFile{f: f, mode: mode}, nil
}

func (l *localFile) Read(buf []byte) (int, error) {
	n, err := l.f.Read(buf)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (l *localFile) Write(buf []byte) (int, error) {
	return l.f.Write(buf)
}

func (l *localFile) Size() int64 {
	info, err := l.f.Stat()
	if err != nil {
		return SizeUnknown
	}
	return info.Size()
}

func (l *localFile) Seek(pos int64) (int64, error) {
	return l.f.Seek(pos, io.SeekStart)
}

func (l *localFile) Tell() (int64, error) {
	return l.f.Seek(0, io.SeekCurrent)
}

func (l *localFile) Flush() error {
	return l.f.Sync()
}

func (l *localFile) Close() error {
	return l.f.Close()
}
