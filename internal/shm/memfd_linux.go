//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MemfdSupported reports whether NewMemfd can succeed on this platform.
func MemfdSupported() bool {
	return true
}

// NewMemfd returns a segment backed by an anonymous memfd file of size
// bytes, mapped shared.
func NewMemfd(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d", size)
	}
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create %q: %w", name, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate memfd to %d: %w", size, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: mmap memfd: %w", err)
	}
	return &Segment{data: data, fd: fd, kind: "memfd", unmap: unix.Munmap}, nil
}
