//go:build !linux

package shm

// MemfdSupported reports whether NewMemfd can succeed on this platform.
func MemfdSupported() bool {
	return false
}

// NewMemfd is only available on Linux.
func NewMemfd(string, int) (*Segment, error) {
	return nil, ErrUnsupported
}
