//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// New returns an anonymous shared mapping of size bytes.
func New(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap %d bytes: %w", size, err)
	}
	return &Segment{data: data, fd: -1, kind: "anon", unmap: unix.Munmap}, nil
}

func closeFd(fd int) error {
	return unix.Close(fd)
}
