// Package shm provides shared-memory segments for surfaces handed between
// the content and compositor sides.
//
// New returns an anonymous shared mapping where the platform has one and a
// heap slice elsewhere. NewMemfd returns a memfd-backed mapping on Linux,
// whose descriptor could be passed to another process.
package shm

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by allocators the platform does not provide.
var ErrUnsupported = errors.New("shm: not supported on this platform")

// ErrClosed is returned when a closed segment is closed again.
var ErrClosed = errors.New("shm: segment closed")

// Segment is a block of memory that may be shared with another process.
type Segment struct {
	data   []byte
	fd     int
	kind   string
	unmap  func([]byte) error
	closed bool
}

// Bytes returns the segment memory. It is nil after Close.
func (s *Segment) Bytes() []byte {
	return s.data
}

// Len returns the segment size in bytes.
func (s *Segment) Len() int {
	return len(s.data)
}

// Fd returns the file descriptor backing the segment, or -1.
func (s *Segment) Fd() int {
	return s.fd
}

// Kind names the allocator that produced the segment.
func (s *Segment) Kind() string {
	return s.kind
}

// Close unmaps the segment and closes its descriptor.
func (s *Segment) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	var err error
	if s.unmap != nil {
		err = s.unmap(s.data)
	}
	if s.fd >= 0 {
		err = errors.Join(err, closeFd(s.fd))
	}
	s.data = nil
	if err != nil {
		return fmt.Errorf("shm: close %s segment: %w", s.kind, err)
	}
	return nil
}

// NewHeap returns a segment backed by ordinary memory. It is only shared
// within the process.
func NewHeap(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d", size)
	}
	return &Segment{data: make([]byte, size), fd: -1, kind: "heap"}, nil
}
