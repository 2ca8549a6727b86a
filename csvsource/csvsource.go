// Package csvsource provides the CSV line cursor the rest of the engine
// treats as an external collaborator: a header-aware reader exposing
// byte-offset seeking, backed either by a real file (via afero, for
// testability) or by an in-memory string.
package csvsource

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// Cursor iterates the data rows of one opened CSV source. Next() returns
// each row's fields in turn; Offset() reports the byte offset of
// the row most recently returned by Next(), for use by the parent-index
// builder's reference-index variant.
type Cursor interface {
	Header() []string
	Next() (row []string, err error)
	Offset() int64
	Seek(offset int64) error
	Reset() error
	Close() error
}

// Source opens a fresh Cursor positioned at the first data row (the
// header line having already been consumed).
type Source interface {
	Open() (Cursor, error)
}

// File is a Source backed by a real file path, read through afero so
// tests can substitute an in-memory filesystem.
type File struct {
	Fs   afero.Fs
	Path string
}

// NewFile returns a File source over fs (use afero.NewOsFs() for real
// disk access).
func NewFile(fs afero.Fs, path string) *File {
	return &File{Fs: fs, Path: path}
}

func (f *File) Open() (Cursor, error) {
	fh, err := f.Fs.Open(f.Path)
	if err != nil {
		return nil, err
	}
	c := &fileCursor{fs: f.Fs, path: f.Path, file: fh}
	if err := c.readHeader(); err != nil {
		fh.Close()
		return nil, err
	}
	return c, nil
}

type fileCursor struct {
	fs     afero.Fs
	path   string
	file   afero.File
	reader *bufio.Reader
	header []string
	pos    int64 // byte offset of the row most recently returned by Next
	next   int64 // byte offset the underlying reader is positioned at
}

func (c *fileCursor) readHeader() error {
	c.reader = bufio.NewReader(c.file)
	line, n, err := readRawLine(c.reader)
	if err != nil {
		return err
	}
	c.next = n
	header, err := splitCSVLine(line, ',')
	if err != nil {
		return err
	}
	c.header = header
	return nil
}

func (c *fileCursor) Header() []string { return c.header }
func (c *fileCursor) Offset() int64    { return c.pos }

func (c *fileCursor) Next() ([]string, error) {
	for {
		line, n, err := readRawLine(c.reader)
		if err != nil {
			return nil, err
		}
		offset := c.next
		c.next += n
		if line == "" {
			continue
		}
		c.pos = offset
		return splitCSVLine(line, ',')
	}
}

func (c *fileCursor) Seek(offset int64) error {
	if _, err := c.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	c.reader = bufio.NewReader(c.file)
	c.pos = offset
	c.next = offset
	return nil
}

func (c *fileCursor) Reset() error {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return c.readHeader()
}

func (c *fileCursor) Close() error { return c.file.Close() }

// readRawLine reads one \n-terminated line (trailing \r stripped) and
// reports the number of raw bytes consumed, including the terminator,
// so callers can track byte offsets for later Seek calls.
func readRawLine(r *bufio.Reader) (string, int64, error) {
	raw, err := r.ReadString('\n')
	if err != nil && raw == "" {
		return "", 0, err
	}
	n := int64(len(raw))
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")
	if err == io.EOF {
		return raw, n, nil
	}
	return raw, n, nil
}

// InMemory is a Source backed by a whole CSV document held as a string,
// grounded on the original's CsvReader(source, isFile=false) variant
// that wraps an std::istringstream instead of an ifstream.
type InMemory struct {
	Name    string
	Content string
}

func NewInMemory(name, content string) *InMemory {
	return &InMemory{Name: name, Content: content}
}

func (m *InMemory) Open() (Cursor, error) {
	c := &memCursor{content: m.Content}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

type memCursor struct {
	content string
	reader  *bufio.Reader
	header  []string
	pos     int64
	next    int64
}

func (c *memCursor) Header() []string { return c.header }
func (c *memCursor) Offset() int64    { return c.pos }

func (c *memCursor) Next() ([]string, error) {
	for {
		line, n, err := readRawLine(c.reader)
		if err != nil {
			return nil, err
		}
		offset := c.next
		c.next += n
		if line == "" {
			continue
		}
		c.pos = offset
		return splitCSVLine(line, ',')
	}
}

func (c *memCursor) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(c.content)) {
		return fmt.Errorf("csvsource: seek offset %d out of range", offset)
	}
	c.reader = bufio.NewReader(strings.NewReader(c.content[offset:]))
	c.pos = offset
	c.next = offset
	return nil
}

func (c *memCursor) Reset() error {
	c.reader = bufio.NewReader(strings.NewReader(c.content))
	c.pos = 0
	c.next = 0
	line, n, err := readRawLine(c.reader)
	if err != nil {
		return err
	}
	c.next = n
	header, err := splitCSVLine(line, ',')
	if err != nil {
		return err
	}
	c.header = header
	return nil
}

func (c *memCursor) Close() error { return nil }

// Registry resolves a logical source name (RML's rml:source value) to a
// Source, allowing an in-memory source registered under a name to stand
// in for a file path of that name without touching the filesystem.
type Registry struct {
	fs    afero.Fs
	named map[string]Source
}

// NewRegistry builds a Registry that falls back to opening unregistered
// names as files against fs.
func NewRegistry(fs afero.Fs) *Registry {
	return &Registry{fs: fs, named: map[string]Source{}}
}

// Register associates an in-memory or custom Source with a logical name,
// taking precedence over filesystem lookup for that name.
func (r *Registry) Register(name string, src Source) {
	r.named[name] = src
}

func (r *Registry) Resolve(name string) Source {
	if src, ok := r.named[name]; ok {
		return src
	}
	return NewFile(r.fs, name)
}
