//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package shm

// New returns a heap segment; this platform has no anonymous shared
// mappings.
func New(size int) (*Segment, error) {
	return NewHeap(size)
}

func closeFd(int) error {
	return nil
}
