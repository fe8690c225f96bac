// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/internal/shm"
	"github.com/gogpu/layers/surface"
)

// AllocFunc allocates a front and back buffer of the given size. It returns
// ErrDeclined when it does not handle the request.
type AllocFunc func(size image.Point, content surface.ContentType) (front, back *Descriptor, err error)

// FreeFunc releases a descriptor created by the same allocator.
type FreeFunc func(d *Descriptor) error

// AllocatorEntry is a registered platform allocator.
type AllocatorEntry struct {
	// Name is the unique identifier, also recorded in the descriptors it
	// creates.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Alloc creates buffer pairs.
	Alloc AllocFunc

	// Free releases descriptors. Nil means the channel's generic release.
	Free FreeFunc

	// Available reports if the allocator works on this system.
	Available func() bool
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("memfd", 100, allocMemfd, nil, shm.MemfdSupported)
}

// Registry holds the platform allocators that AllocDoubleBuffer tries
// before falling back to generic shared memory.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*AllocatorEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*AllocatorEntry)}
}

// DefaultRegistry returns the registry forwarders use unless WithRegistry
// says otherwise.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds an allocator. If available is nil the allocator is assumed
// always available. Registering a name that already exists replaces the
// previous entry.
func (r *Registry) Register(name string, priority int, alloc AllocFunc, free FreeFunc, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &AllocatorEntry{
		Name:      name,
		Priority:  priority,
		Alloc:     alloc,
		Free:      free,
		Available: available,
	}
}

// Unregister removes an allocator.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// Get returns the allocator registered under name.
func (r *Registry) Get(name string) (*AllocatorEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e, ok
}

// Available returns the available allocators sorted by priority, highest
// first.
func (r *Registry) Available() []*AllocatorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*AllocatorEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Available() {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// allocate tries each available allocator in priority order. A failing
// allocator is logged and skipped.
func (r *Registry) allocate(size image.Point, content surface.ContentType) (front, back *Descriptor, err error) {
	for _, e := range r.Available() {
		front, back, err = e.Alloc(size, content)
		if err == nil {
			return front, back, nil
		}
		if !errors.Is(err, ErrDeclined) {
			layers.Logger().Warn("shadow: platform allocator failed", "allocator", e.Name, "size", size, "err", err)
		}
	}
	return nil, nil, ErrDeclined
}

func allocMemfd(size image.Point, content surface.ContentType) (front, back *Descriptor, err error) {
	return allocPair("memfd", size, content, func(n int) (*shm.Segment, error) {
		return shm.NewMemfd("layers-buffer", n)
	})
}

// allocShmem is the generic fallback.
func allocShmem(size image.Point, content surface.ContentType) (front, back *Descriptor, err error) {
	return allocPair("shmem", size, content, shm.New)
}

func allocPair(name string, size image.Point, content surface.ContentType,
	newSegment func(int) (*shm.Segment, error)) (front, back *Descriptor, err error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, nil, fmt.Errorf("shadow: %s: %v: %w", name, size, surface.ErrInvalidSize)
	}
	n := 4 * size.X * size.Y
	fseg, err := newSegment(n)
	if err != nil {
		return nil, nil, err
	}
	bseg, err := newSegment(n)
	if err != nil {
		_ = fseg.Close()
		return nil, nil, err
	}
	return newSegmentDescriptor(fseg, name, content, size), newSegmentDescriptor(bseg, name, content, size), nil
}
