// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadow

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/surface"
)

type fakeLayer struct {
	visible region.Region
	opacity float64
	clip    image.Rectangle
	useClip bool
	color   color.RGBA
}

func (l *fakeLayer) VisibleRegion() region.Region      { return l.visible }
func (l *fakeLayer) Transform() layers.Matrix          { return layers.Identity() }
func (l *fakeLayer) ContentFlags() layers.ContentFlags { return 0 }
func (l *fakeLayer) Opacity() float64                  { return l.opacity }
func (l *fakeLayer) ClipRect() (image.Rectangle, bool) { return l.clip, l.useClip }

type fakeColorLayer struct{ fakeLayer }

func (l *fakeColorLayer) SpecificAttributes() SpecificAttributes {
	return ColorAttributes{Color: l.color}
}

// recordingChannel records what it is sent.
type recordingChannel struct {
	sent     [][]Edit
	replies  []EditReply
	err      error
	onSend   func([]Edit)
	released []*Descriptor
}

func (c *recordingChannel) SendUpdate(edits []Edit) ([]EditReply, error) {
	if c.onSend != nil {
		c.onSend(edits)
	}
	c.sent = append(c.sent, edits)
	return c.replies, c.err
}

func (c *recordingChannel) DeallocShmem(d *Descriptor) {
	c.released = append(c.released, d)
}

func newTestForwarder(ch Channel) *Forwarder {
	f := NewForwarder(WithPlatformBuffers(false))
	f.SetChannel(ch)
	return f
}

func allocTestPair(t *testing.T, f *Forwarder, w, h int) (front, back *Descriptor) {
	t.Helper()
	front, back, err := f.AllocDoubleBuffer(image.Pt(w, h), surface.ContentColorAlpha)
	if err != nil {
		t.Fatalf("AllocDoubleBuffer: %v", err)
	}
	return front, back
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

func TestCreateOnlyTransaction(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	l := &fakeLayer{opacity: 1}

	f.BeginTransaction()
	f.CreatedThebesLayer(l)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}

	if len(ch.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(ch.sent))
	}
	edits := ch.sent[0]
	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	want := OpCreateLayer{Layer: f.ShadowFor(l), Kind: layers.KindThebes}
	if edits[0] != want {
		t.Errorf("edit = %#v, want %#v", edits[0], want)
	}
}

func TestMutatedCoalesces(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	l := &fakeLayer{opacity: 0.25}

	f.BeginTransaction()
	f.Mutated(l)
	l.opacity = 0.5
	f.Mutated(l)
	l.opacity = 0.75
	l.visible = region.FromRect(image.Rect(0, 0, 10, 10))
	f.Mutated(l)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}

	edits := ch.sent[0]
	if len(edits) != 1 {
		t.Fatalf("len(edits) = %d, want 1", len(edits))
	}
	op, ok := edits[0].(OpSetLayerAttributes)
	if !ok {
		t.Fatalf("edit = %T, want OpSetLayerAttributes", edits[0])
	}
	if op.Attrs.Common.Opacity != 0.75 {
		t.Errorf("Opacity = %v, want 0.75", op.Attrs.Common.Opacity)
	}
	if !op.Attrs.Common.VisibleRegion.Equal(l.visible) {
		t.Errorf("VisibleRegion = %v, want %v", op.Attrs.Common.VisibleRegion, l.visible)
	}
	if op.Attrs.Specific != nil {
		t.Errorf("Specific = %#v, want nil", op.Attrs.Specific)
	}
}

func TestAttributeEditsFollowStructuralEdits(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	root := &fakeLayer{opacity: 1}
	child := &fakeColorLayer{fakeLayer{opacity: 1, color: color.RGBA{R: 255, A: 255}}}

	f.BeginTransaction()
	f.CreatedContainerLayer(root)
	f.Mutated(child)
	f.CreatedColorLayer(child)
	f.Mutated(root)
	f.SetRoot(root)
	f.InsertAfter(root, child, nil)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}

	rootID, childID := f.ShadowFor(root), f.ShadowFor(child)
	want := []Edit{
		OpCreateLayer{Layer: rootID, Kind: layers.KindContainer},
		OpCreateLayer{Layer: childID, Kind: layers.KindColor},
		OpSetRoot{Root: rootID},
		OpAppendChild{Container: rootID, Child: childID},
	}
	edits := ch.sent[0]
	if len(edits) != len(want)+2 {
		t.Fatalf("len(edits) = %d, want %d", len(edits), len(want)+2)
	}
	for i, w := range want {
		if edits[i] != w {
			t.Errorf("edits[%d] = %#v, want %#v", i, edits[i], w)
		}
	}
	first := edits[len(want)].(OpSetLayerAttributes)
	second := edits[len(want)+1].(OpSetLayerAttributes)
	if first.Layer != childID || second.Layer != rootID {
		t.Errorf("attribute order = %d, %d, want %d, %d", first.Layer, second.Layer, childID, rootID)
	}
	if c, ok := first.Attrs.Specific.(ColorAttributes); !ok || c.Color != child.color {
		t.Errorf("Specific = %#v, want color %v", first.Attrs.Specific, child.color)
	}
}

func TestInsertAfterSibling(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	c, a, b := &fakeLayer{}, &fakeLayer{}, &fakeLayer{}

	f.BeginTransaction()
	f.InsertAfter(c, b, a)
	f.RemoveChild(c, a)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	want := []Edit{
		OpInsertAfter{Container: f.ShadowFor(c), Child: f.ShadowFor(b), After: f.ShadowFor(a)},
		OpRemoveChild{Container: f.ShadowFor(c), Child: f.ShadowFor(a)},
	}
	for i, w := range want {
		if ch.sent[0][i] != w {
			t.Errorf("edits[%d] = %#v, want %#v", i, ch.sent[0][i], w)
		}
	}
}

func TestShadowForIsStable(t *testing.T) {
	f := NewForwarder()
	a, b := &fakeLayer{}, &fakeLayer{}
	ida := f.ShadowFor(a)
	idb := f.ShadowFor(b)
	if ida == idb {
		t.Fatalf("distinct layers share id %d", ida)
	}
	if got := f.ShadowFor(a); got != ida {
		t.Errorf("ShadowFor(a) = %d, want %d", got, ida)
	}
	f.ForgetShadow(a)
	if got := f.ShadowFor(a); got == ida || got == idb {
		t.Errorf("ShadowFor after ForgetShadow = %d, want a fresh id", got)
	}
}

func TestEmptyTransactionSendsNothing(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)

	f.BeginTransaction()
	replies, err := f.EndTransaction()
	if err != nil || replies != nil {
		t.Errorf("EndTransaction = %v, %v, want nil, nil", replies, err)
	}
	if len(ch.sent) != 0 {
		t.Errorf("sent %d transactions, want 0", len(ch.sent))
	}
	// The forwarder is ready for the next transaction.
	f.BeginTransaction()
	f.SetRoot(&fakeLayer{})
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
}

func TestTransactionContractPanics(t *testing.T) {
	mustPanic(t, "BeginTransaction without channel", func() {
		NewForwarder().BeginTransaction()
	})
	mustPanic(t, "edit outside transaction", func() {
		newTestForwarder(&recordingChannel{}).SetRoot(&fakeLayer{})
	})
	mustPanic(t, "Mutated outside transaction", func() {
		newTestForwarder(&recordingChannel{}).Mutated(&fakeLayer{})
	})
	mustPanic(t, "EndTransaction without BeginTransaction", func() {
		_, _ = newTestForwarder(&recordingChannel{}).EndTransaction()
	})
	mustPanic(t, "BeginTransaction with pending edits", func() {
		f := newTestForwarder(&recordingChannel{})
		f.BeginTransaction()
		f.SetRoot(&fakeLayer{})
		f.BeginTransaction()
	})
	mustPanic(t, "Close with pending edits", func() {
		f := newTestForwarder(&recordingChannel{})
		f.BeginTransaction()
		f.SetRoot(&fakeLayer{})
		f.Close()
	})
}

func TestSendFailureResetsTransaction(t *testing.T) {
	sendErr := errors.New("broken pipe")
	ch := &recordingChannel{err: sendErr}
	f := newTestForwarder(ch)
	l := &fakeLayer{}

	f.BeginTransaction()
	f.CreatedThebesLayer(l)
	f.Mutated(l)
	_, err := f.EndTransaction()
	if !errors.Is(err, sendErr) {
		t.Fatalf("EndTransaction error = %v, want %v", err, sendErr)
	}

	ch.err = nil
	f.BeginTransaction()
	f.SetRoot(l)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	if got := len(ch.sent[1]); got != 1 {
		t.Errorf("second transaction has %d edits, want 1", got)
	}
}

func TestSendFailureReturnsBuffers(t *testing.T) {
	ch := &recordingChannel{err: errors.New("broken pipe")}
	f := newTestForwarder(ch)
	l := &fakeLayer{}
	front, back := allocTestPair(t, f, 4, 4)

	f.BeginTransaction()
	f.CreatedThebesLayer(l)
	f.CreatedThebesBuffer(l, image.Rect(0, 0, 4, 4), front)
	f.PaintedThebesBuffer(l, image.Rect(0, 0, 4, 4), image.Point{}, back)
	if _, err := f.EndTransaction(); err == nil {
		t.Fatal("EndTransaction succeeded, want error")
	}
	for name, d := range map[string]*Descriptor{"front": front, "back": back} {
		if d.Owner() != OwnerChild {
			t.Errorf("%s owner = %v, want %v", name, d.Owner(), OwnerChild)
		}
		f.DestroySharedSurface(d)
		if d.Owner() != OwnerFreed {
			t.Errorf("%s owner after destroy = %v, want %v", name, d.Owner(), OwnerFreed)
		}
	}
	if len(ch.released) != 2 {
		t.Errorf("released %d descriptors, want 2", len(ch.released))
	}
}

func TestDestroyedThebesBufferWithoutBack(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	l := &fakeLayer{}

	f.BeginTransaction()
	f.DestroyedThebesBuffer(l, nil)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	want := OpDestroyThebesFrontBuffer{Layer: f.ShadowFor(l)}
	if len(ch.sent) != 1 || len(ch.sent[0]) != 1 || ch.sent[0][0] != want {
		t.Errorf("sent = %v, want [[%v]]", ch.sent, want)
	}
	if len(ch.released) != 0 {
		t.Errorf("released = %v, want none", ch.released)
	}
}

func TestDyingBuffersDestroyedBeforeSend(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	l := &fakeLayer{}
	_, back := allocTestPair(t, f, 4, 4)

	ch.onSend = func([]Edit) {
		if back.Owner() != OwnerFreed {
			t.Errorf("back buffer owner at send = %v, want %v", back.Owner(), OwnerFreed)
		}
	}
	f.BeginTransaction()
	f.DestroyedThebesBuffer(l, back)
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	if len(ch.released) != 1 || ch.released[0] != back {
		t.Errorf("released = %v, want [%v]", ch.released, back)
	}
	want := OpDestroyThebesFrontBuffer{Layer: f.ShadowFor(l)}
	if ch.sent[0][0] != want {
		t.Errorf("edit = %#v, want %#v", ch.sent[0][0], want)
	}
}

func TestBufferOwnershipRoundTrip(t *testing.T) {
	ch := &recordingChannel{}
	f := newTestForwarder(ch)
	l := &fakeLayer{}
	front, back := allocTestPair(t, f, 8, 8)

	if front.Owner() != OwnerChild || back.Owner() != OwnerChild {
		t.Fatalf("fresh owners = %v, %v, want child", front.Owner(), back.Owner())
	}

	f.BeginTransaction()
	f.CreatedThebesBuffer(l, image.Rect(0, 0, 8, 8), front)
	if front.Owner() != OwnerParent {
		t.Errorf("front owner after create = %v, want %v", front.Owner(), OwnerParent)
	}
	if _, err := f.EndTransaction(); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}

	// The parent swaps back and returns the old front.
	ch.replies = []EditReply{OpThebesBufferSwap{Layer: f.ShadowFor(l), NewBackBuffer: ThebesBuffer{Buffer: front}}}
	f.BeginTransaction()
	f.PaintedThebesBuffer(l, image.Rect(0, 0, 8, 8), image.Point{}, back)
	replies, err := f.EndTransaction()
	if err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("len(replies) = %d, want 1", len(replies))
	}
	if front.Owner() != OwnerChild {
		t.Errorf("front owner after swap = %v, want %v", front.Owner(), OwnerChild)
	}
	if back.Owner() != OwnerParent {
		t.Errorf("back owner after paint = %v, want %v", back.Owner(), OwnerParent)
	}

	mustPanic(t, "DestroySharedSurface of parent-owned buffer", func() {
		f.DestroySharedSurface(back)
	})
	f.DestroySharedSurface(front)
	if front.Owner() != OwnerFreed {
		t.Errorf("front owner after destroy = %v, want %v", front.Owner(), OwnerFreed)
	}
	mustPanic(t, "Pixels of freed descriptor", func() { _ = front.Pixels() })
}

func TestGrantTwicePanics(t *testing.T) {
	f := newTestForwarder(&recordingChannel{})
	l := &fakeLayer{}
	front, _ := allocTestPair(t, f, 2, 2)

	f.BeginTransaction()
	f.CreatedThebesBuffer(l, image.Rect(0, 0, 2, 2), front)
	mustPanic(t, "second grant", func() {
		f.PaintedThebesBuffer(l, image.Rect(0, 0, 2, 2), image.Point{}, front)
	})
}
