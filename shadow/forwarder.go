// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/surface"
)

// Shadowable is a client layer whose state the forwarder mirrors. Layers
// are identified by interface equality, so implementations must be
// pointer types.
type Shadowable interface {
	VisibleRegion() region.Region
	Transform() layers.Matrix
	ContentFlags() layers.ContentFlags
	Opacity() float64
	// ClipRect returns the clip rectangle in the parent's coordinate space
	// and whether the layer has one.
	ClipRect() (image.Rectangle, bool)
}

// SpecificAttributer is implemented by layers that carry per-kind
// attributes.
type SpecificAttributer interface {
	SpecificAttributes() SpecificAttributes
}

// Channel carries transactions to the parent.
type Channel interface {
	// SendUpdate delivers the edits of one transaction and blocks until
	// the parent has applied them. On error the parent has kept none of
	// the descriptors the edits carry.
	SendUpdate(edits []Edit) ([]EditReply, error)

	// DeallocShmem releases a shared-memory descriptor.
	DeallocShmem(d *Descriptor)
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*forwarderOptions)

type forwarderOptions struct {
	registry *Registry
	platform bool
}

// WithRegistry sets the platform allocator registry. The default is
// DefaultRegistry.
func WithRegistry(r *Registry) ForwarderOption {
	return func(o *forwarderOptions) {
		o.registry = r
	}
}

// WithPlatformBuffers enables or disables platform allocators. When
// disabled every buffer comes from generic shared memory.
func WithPlatformBuffers(enabled bool) ForwarderOption {
	return func(o *forwarderOptions) {
		o.platform = enabled
	}
}

// Forwarder records changes to a client layer tree and sends them to the
// parent as one transaction.
//
// Usage:
//
//	f.BeginTransaction()
//	f.CreatedThebesLayer(l)
//	f.SetRoot(l)
//	f.Mutated(l)
//	replies, err := f.EndTransaction()
//
// A Forwarder is not safe for concurrent use.
type Forwarder struct {
	channel Channel
	txn     *transaction
	opts    forwarderOptions

	shadows map[Shadowable]LayerID
	nextID  LayerID
}

// NewForwarder creates a forwarder with no channel.
func NewForwarder(opts ...ForwarderOption) *Forwarder {
	o := forwarderOptions{registry: DefaultRegistry(), platform: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Forwarder{
		txn:     newTransaction(),
		opts:    o,
		shadows: make(map[Shadowable]LayerID),
	}
}

// SetChannel connects the forwarder to the parent.
func (f *Forwarder) SetChannel(ch Channel) {
	f.channel = ch
}

// HasChannel reports whether the forwarder is connected.
func (f *Forwarder) HasChannel() bool {
	return f.channel != nil
}

// ShadowFor returns the id of the shadow of l, assigning one the first
// time l is seen.
func (f *Forwarder) ShadowFor(l Shadowable) LayerID {
	if id, ok := f.shadows[l]; ok {
		return id
	}
	f.nextID++
	f.shadows[l] = f.nextID
	return f.nextID
}

// ForgetShadow drops l from the side table. Later calls to ShadowFor
// assign a new id.
func (f *Forwarder) ForgetShadow(l Shadowable) {
	delete(f.shadows, l)
}

// BeginTransaction starts collecting edits. It panics without a channel or
// when the previous transaction was not ended.
func (f *Forwarder) BeginTransaction() {
	if !f.HasChannel() {
		panic("shadow: no channel to forward to")
	}
	if !f.txn.finished() {
		panic("shadow: uncommitted transaction")
	}
	f.txn.begin()
}

func (f *Forwarder) createdLayer(kind layers.Kind, l Shadowable) {
	f.txn.addEdit(OpCreateLayer{Layer: f.ShadowFor(l), Kind: kind})
}

// CreatedThebesLayer records the creation of a thebes layer.
func (f *Forwarder) CreatedThebesLayer(l Shadowable) { f.createdLayer(layers.KindThebes, l) }

// CreatedContainerLayer records the creation of a container layer.
func (f *Forwarder) CreatedContainerLayer(l Shadowable) { f.createdLayer(layers.KindContainer, l) }

// CreatedImageLayer records the creation of an image layer.
func (f *Forwarder) CreatedImageLayer(l Shadowable) { f.createdLayer(layers.KindImage, l) }

// CreatedColorLayer records the creation of a color layer.
func (f *Forwarder) CreatedColorLayer(l Shadowable) { f.createdLayer(layers.KindColor, l) }

// CreatedCanvasLayer records the creation of a canvas layer.
func (f *Forwarder) CreatedCanvasLayer(l Shadowable) { f.createdLayer(layers.KindCanvas, l) }

// CreatedThebesBuffer gives the shadow of l its first front buffer, which
// now belongs to the parent.
func (f *Forwarder) CreatedThebesBuffer(l Shadowable, bufferRect image.Rectangle, front *Descriptor) {
	f.addGranting(OpCreateThebesBuffer{Layer: f.ShadowFor(l), BufferRect: bufferRect, InitialFront: front})
}

// CreatedImageBuffer gives the shadow of an image layer its first front
// buffer.
func (f *Forwarder) CreatedImageBuffer(l Shadowable, size image.Point, front *Descriptor) {
	f.addGranting(OpCreateImageBuffer{Layer: f.ShadowFor(l), Size: size, InitialFront: front})
}

// CreatedCanvasBuffer gives the shadow of a canvas layer its first front
// buffer.
func (f *Forwarder) CreatedCanvasBuffer(l Shadowable, size image.Point, front *Descriptor) {
	f.addGranting(OpCreateCanvasBuffer{Layer: f.ShadowFor(l), Size: size, InitialFront: front})
}

// DestroyedThebesBuffer tells the parent to drop the front buffer of l.
// backToDestroy, the child's back buffer, is released before the
// transaction is sent. It may be nil while the parent holds both buffers.
func (f *Forwarder) DestroyedThebesBuffer(l Shadowable, backToDestroy *Descriptor) {
	f.txn.addEdit(OpDestroyThebesFrontBuffer{Layer: f.ShadowFor(l)})
	if backToDestroy != nil {
		f.txn.addBufferToDestroy(backToDestroy)
	}
}

// DestroyedImageBuffer tells the parent to drop the front buffer of an
// image layer.
func (f *Forwarder) DestroyedImageBuffer(l Shadowable) {
	f.txn.addEdit(OpDestroyImageFrontBuffer{Layer: f.ShadowFor(l)})
}

// DestroyedCanvasBuffer tells the parent to drop the front buffer of a
// canvas layer.
func (f *Forwarder) DestroyedCanvasBuffer(l Shadowable) {
	f.txn.addEdit(OpDestroyCanvasFrontBuffer{Layer: f.ShadowFor(l)})
}

// Mutated marks l so that its attributes are sent when the transaction
// ends. Marking a layer twice sends it once.
func (f *Forwarder) Mutated(l Shadowable) {
	f.txn.addMutant(l)
}

// SetRoot makes l the root of the shadow tree.
func (f *Forwarder) SetRoot(l Shadowable) {
	f.txn.addEdit(OpSetRoot{Root: f.ShadowFor(l)})
}

// InsertAfter inserts child into container after the given sibling. A nil
// after (untyped nil) inserts child at the bottom.
func (f *Forwarder) InsertAfter(container, child, after Shadowable) {
	if after == nil {
		f.txn.addEdit(OpAppendChild{Container: f.ShadowFor(container), Child: f.ShadowFor(child)})
		return
	}
	f.txn.addEdit(OpInsertAfter{
		Container: f.ShadowFor(container),
		Child:     f.ShadowFor(child),
		After:     f.ShadowFor(after),
	})
}

// RemoveChild removes child from container.
func (f *Forwarder) RemoveChild(container, child Shadowable) {
	f.txn.addEdit(OpRemoveChild{Container: f.ShadowFor(container), Child: f.ShadowFor(child)})
}

// PaintedThebesBuffer hands a newly painted front buffer to the parent.
// The previous front comes back in an OpThebesBufferSwap reply.
func (f *Forwarder) PaintedThebesBuffer(l Shadowable, bufferRect image.Rectangle, rotation image.Point, newFront *Descriptor) {
	f.addGranting(OpPaintThebesBuffer{
		Layer:          f.ShadowFor(l),
		NewFrontBuffer: ThebesBuffer{Buffer: newFront, Rect: bufferRect, Rotation: rotation},
	})
}

// PaintedImage hands a newly painted image buffer to the parent.
func (f *Forwarder) PaintedImage(l Shadowable, newFront *Descriptor) {
	f.addGranting(OpPaintImage{Layer: f.ShadowFor(l), NewFront: newFront})
}

// PaintedCanvas hands a newly painted canvas buffer to the parent.
func (f *Forwarder) PaintedCanvas(l Shadowable, newFront *Descriptor) {
	f.addGranting(OpPaintCanvas{Layer: f.ShadowFor(l), NewFront: newFront})
}

func (f *Forwarder) addGranting(e Edit) {
	f.txn.addEdit(e)
	for _, d := range Descriptors(e) {
		d.grant()
	}
}

// EndTransaction releases the dying buffers, appends an attribute edit per
// mutated layer, and sends the transaction. The transaction is reset
// whatever happens. An empty transaction sends nothing.
//
// Descriptors returned in swap replies are owned by the child again. When
// the send fails, every descriptor the transaction carried is.
func (f *Forwarder) EndTransaction() ([]EditReply, error) {
	if !f.HasChannel() {
		panic("shadow: no channel to forward to")
	}
	if f.txn.finished() {
		panic("shadow: forgot BeginTransaction?")
	}
	defer f.txn.end()

	log := layers.Logger()
	if f.txn.empty() {
		log.Debug("shadow: empty transaction, skipping update")
		return nil, nil
	}

	log.Debug("shadow: destroying buffers", "count", len(f.txn.dying))
	for _, d := range f.txn.dying {
		f.DestroySharedSurface(d)
	}

	log.Debug("shadow: building transaction", "mutants", len(f.txn.mutants))
	for _, m := range f.txn.mutants {
		f.txn.addEdit(OpSetLayerAttributes{Layer: f.ShadowFor(m), Attrs: snapshot(m)})
	}
	edits := slices.Clone(f.txn.edits)

	log.Debug("shadow: sending transaction", "edits", len(edits))
	replies, err := f.channel.SendUpdate(edits)
	if err != nil {
		log.Warn("shadow: sending transaction failed", "edits", len(edits), "err", err)
		returnGranted(edits)
		return nil, fmt.Errorf("shadow: send update: %w", err)
	}
	for _, r := range replies {
		if d := ReplyDescriptor(r); d != nil {
			d.reclaim()
		}
	}
	log.Debug("shadow: transaction done", "replies", len(replies))
	return replies, nil
}

// returnGranted hands back the descriptors of a transaction the parent
// never applied.
func returnGranted(edits []Edit) {
	for _, e := range edits {
		for _, d := range Descriptors(e) {
			if d != nil && d.owner == OwnerParent {
				d.reclaim()
			}
		}
	}
}

func snapshot(l Shadowable) LayerAttributes {
	clip, useClip := l.ClipRect()
	if !useClip {
		clip = image.Rectangle{}
	}
	attrs := LayerAttributes{
		Common: CommonAttributes{
			VisibleRegion: l.VisibleRegion(),
			Transform:     l.Transform(),
			ContentFlags:  l.ContentFlags(),
			Opacity:       l.Opacity(),
			UseClipRect:   useClip,
			ClipRect:      clip,
		},
	}
	if s, ok := l.(SpecificAttributer); ok {
		attrs.Specific = s.SpecificAttributes()
	}
	return attrs
}

// AllocDoubleBuffer allocates a front and back buffer of the given size,
// trying platform allocators first and generic shared memory last. Both
// descriptors are owned by the child.
func (f *Forwarder) AllocDoubleBuffer(size image.Point, content surface.ContentType) (front, back *Descriptor, err error) {
	if f.opts.platform && f.opts.registry != nil {
		front, back, err = f.opts.registry.allocate(size, content)
		if err == nil {
			return front, back, nil
		}
	}
	front, back, err = allocShmem(size, content)
	if err != nil {
		layers.Logger().Warn("shadow: buffer allocation failed", "size", size, "err", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrNoAllocator, err)
	}
	return front, back, nil
}

// DestroySharedSurface releases a descriptor the child owns, through the
// allocator that created it or through the channel. It panics when the
// parent owns d.
func (f *Forwarder) DestroySharedSurface(d *Descriptor) {
	switch d.owner {
	case OwnerFreed:
		return
	case OwnerParent:
		panic("shadow: destroying " + d.String() + " that the parent owns")
	}
	if f.opts.registry != nil {
		if e, ok := f.opts.registry.Get(d.allocator); ok && e.Free != nil {
			if err := e.Free(d); err != nil {
				layers.Logger().Warn("shadow: platform free failed", "descriptor", d.id, "err", err)
			}
			d.owner = OwnerFreed
			d.pix = nil
			return
		}
	}
	if f.channel != nil {
		f.channel.DeallocShmem(d)
	}
	d.free()
}

// Close checks that no transaction is pending and disconnects the
// channel.
func (f *Forwarder) Close() {
	if !f.txn.finished() {
		panic("shadow: unfinished transaction")
	}
	f.channel = nil
}
