// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package basic

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

const (
	viewW = 64
	viewH = 48
)

// world is a page taller than the view, with a distinct color per pixel.
func newWorld(t *testing.T) *surface.ImageSurface {
	t.Helper()
	s, err := surface.NewImageSurface(surface.ContentColorAlpha, viewW, 512)
	if err != nil {
		t.Fatalf("NewImageSurface: %v", err)
	}
	img := s.RGBA()
	for y := range 512 {
		for x := range viewW {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y), B: uint8(y >> 8 * 64), A: 255})
		}
	}
	return s
}

type harness struct {
	t       *testing.T
	shadows *shadow.Manager
	channel *shadow.Loopback
	m       *LayerManager
	world   *surface.ImageSurface
	painted []region.Region
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, shadows: shadow.NewManager(), world: newWorld(t)}
	h.channel = shadow.NewLoopback(h.shadows)
	fwd := shadow.NewForwarder(shadow.WithPlatformBuffers(false))
	fwd.SetChannel(h.channel)
	h.m = NewLayerManager(fwd)
	return h
}

func (h *harness) paintWorld(ctx *surface.Context, toDraw region.Region) {
	h.painted = append(h.painted, toDraw)
	ctx.SetSource(h.world, image.Point{})
	ctx.Paint(1)
}

func (h *harness) end() {
	h.t.Helper()
	if err := h.m.EndTransaction(); err != nil {
		h.t.Fatalf("EndTransaction: %v", err)
	}
}

func (h *harness) composite() *image.RGBA {
	h.t.Helper()
	target, err := surface.NewImageSurface(surface.ContentColorAlpha, viewW, viewH)
	if err != nil {
		h.t.Fatalf("NewImageSurface: %v", err)
	}
	h.shadows.Composite(surface.NewContext(target))
	return target.RGBA()
}

// scrollTo shows rows [y, y+viewH) of the page.
func scrollTo(l *ThebesLayer, y int) {
	l.SetVisibleRegion(region.FromRect(image.Rect(0, y, viewW, y+viewH)))
	l.SetTransform(layers.Translate(0, float64(-y)))
}

func (h *harness) checkView(y int) {
	h.t.Helper()
	got := h.composite()
	want := h.world.RGBA()
	for ty := range viewH {
		for x := range viewW {
			if g, w := got.RGBAAt(x, ty), want.RGBAAt(x, ty+y); g != w {
				h.t.Fatalf("scroll %d: pixel (%d,%d) = %v, want %v", y, x, ty, g, w)
			}
		}
	}
}

func TestScrollingThebesLayer(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	root := h.m.CreateContainerLayer()
	page := h.m.CreateThebesLayer(h.paintWorld)
	page.SetContentFlags(layers.ContentOpaque)
	root.InsertAfter(page, nil)
	h.m.SetRoot(root)
	scrollTo(page, 0)
	h.end()
	h.checkView(0)

	for _, y := range []int{8, 16, 40, 41, 100, 60} {
		h.painted = nil
		h.m.BeginTransaction()
		scrollTo(page, y)
		h.end()
		h.checkView(y)
		if len(h.painted) != 1 {
			t.Fatalf("scroll %d: painted %d times, want 1", y, len(h.painted))
		}
	}
	if got := page.ValidRegion(); !got.Equal(page.VisibleRegion()) {
		t.Errorf("ValidRegion = %v, want %v", got, page.VisibleRegion())
	}
}

func TestScrollRepaintsOnlyExposedStrip(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	h.m.SetRoot(page)
	scrollTo(page, 0)
	h.end()

	h.painted = nil
	h.m.BeginTransaction()
	scrollTo(page, 12)
	h.end()
	want := region.FromRect(image.Rect(0, viewH, viewW, viewH+12))
	if len(h.painted) != 1 || !h.painted[0].Equal(want) {
		t.Errorf("painted = %v, want [%v]", h.painted, want)
	}
	if got := page.Buffer().Rotation(); got != image.Pt(0, 12) {
		t.Errorf("Rotation = %v, want (0,12)", got)
	}
	h.checkView(12)
}

func TestIdleFrameSendsNothing(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	h.m.SetRoot(page)
	scrollTo(page, 0)
	h.end()
	sent := h.channel.Updates()

	h.painted = nil
	h.m.BeginTransaction()
	h.end()
	if len(h.painted) != 0 {
		t.Errorf("idle frame painted %v", h.painted)
	}
	if got := h.channel.Updates(); got != sent {
		t.Errorf("idle frame sent %d transactions, want 0", got-sent)
	}
}

func TestBuffersAlternate(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	h.m.SetRoot(page)
	scrollTo(page, 0)
	h.end()

	shadowPage, ok := h.shadows.Layer(h.m.Forwarder().ShadowFor(page))
	if !ok {
		t.Fatal("shadow layer missing")
	}
	seen := map[*shadow.Descriptor]bool{}
	for y := 4; y <= 16; y += 4 {
		h.m.BeginTransaction()
		scrollTo(page, y)
		h.end()
		front := shadowPage.Front()
		if front.Owner() != shadow.OwnerParent {
			t.Errorf("front owner = %v, want parent", front.Owner())
		}
		if page.back == nil || page.back.Owner() != shadow.OwnerChild {
			t.Fatalf("child back buffer = %v, want a child-owned buffer", page.back)
		}
		seen[front] = true
	}
	if len(seen) != 2 {
		t.Errorf("front buffers used = %d, want 2", len(seen))
	}
}

func TestGrowingLayerReplacesSharedBuffers(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	h.m.SetRoot(page)
	page.SetVisibleRegion(region.FromRect(image.Rect(0, 0, viewW, 10)))
	h.end()
	oldBack := page.back

	h.m.BeginTransaction()
	scrollTo(page, 0)
	h.end()
	if oldBack.Owner() != shadow.OwnerFreed {
		t.Errorf("old back owner = %v, want freed", oldBack.Owner())
	}
	sl, _ := h.shadows.Layer(h.m.Forwarder().ShadowFor(page))
	if got := sl.Front().Size(); got != image.Pt(viewW, viewH) {
		t.Errorf("front size = %v, want %v", got, image.Pt(viewW, viewH))
	}
	h.checkView(0)
}

func TestDiscardBuffer(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	h.m.SetRoot(page)
	scrollTo(page, 0)
	h.end()
	back := page.back

	h.m.BeginTransaction()
	page.DiscardBuffer()
	h.end()
	if back.Owner() != shadow.OwnerFreed {
		t.Errorf("back owner = %v, want freed", back.Owner())
	}

	h.painted = nil
	h.m.BeginTransaction()
	h.end()
	if len(h.painted) != 0 {
		t.Errorf("frame after repaint painted %v", h.painted)
	}
	h.checkView(0)
}

func TestColorAndImageLayers(t *testing.T) {
	h := newHarness(t)
	red := color.RGBA{R: 255, A: 255}

	picture := image.NewRGBA(image.Rect(10, 10, 14, 14))
	for i := range picture.Pix {
		picture.Pix[i] = 0xff
	}

	h.m.BeginTransaction()
	root := h.m.CreateContainerLayer()
	bg := h.m.CreateColorLayer()
	bg.SetColor(red)
	bg.SetVisibleRegion(region.FromRect(image.Rect(0, 0, viewW, viewH)))
	img := h.m.CreateImageLayer()
	img.SetImage(picture)
	img.SetVisibleRegion(region.FromRect(image.Rect(0, 0, 4, 4)))
	img.SetTransform(layers.Translate(5, 5))
	root.InsertAfter(bg, nil)
	root.InsertAfter(img, bg)
	h.m.SetRoot(root)
	h.end()

	got := h.composite()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if c := got.RGBAAt(0, 0); c != red {
		t.Errorf("background pixel = %v, want %v", c, red)
	}
	if c := got.RGBAAt(6, 6); c != white {
		t.Errorf("image pixel = %v, want %v", c, white)
	}
	if c := got.RGBAAt(9, 9); c != red {
		t.Errorf("pixel past image = %v, want %v", c, red)
	}

	// A second image of the same size swaps buffers.
	h.m.BeginTransaction()
	img.SetImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	h.end()
	if img.back == nil {
		t.Error("image back buffer not returned by swap")
	}
	if c := h.composite().RGBAAt(6, 6); c != red {
		t.Errorf("transparent image pixel = %v, want %v", c, red)
	}
}

func TestTreeMirrorsClient(t *testing.T) {
	h := newHarness(t)

	h.m.BeginTransaction()
	root := h.m.CreateContainerLayer()
	a := h.m.CreateColorLayer()
	b := h.m.CreateColorLayer()
	root.InsertAfter(a, nil)
	root.InsertAfter(b, a)
	root.RemoveChild(a)
	root.InsertAfter(a, b)
	h.m.SetRoot(root)
	h.end()

	fwd := h.m.Forwarder()
	var ids []shadow.LayerID
	for _, c := range h.shadows.Root().Children() {
		ids = append(ids, c.ID())
	}
	want := []shadow.LayerID{fwd.ShadowFor(b), fwd.ShadowFor(a)}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("shadow children = %v, want %v", ids, want)
	}
	if got := root.Children(); len(got) != 2 || got[0] != Layer(b) || got[1] != Layer(a) {
		t.Errorf("client children = %v, want [b a]", got)
	}
}

// flakyChannel fails sends while fail is set.
type flakyChannel struct {
	shadow.Channel
	fail bool
}

func (c *flakyChannel) SendUpdate(edits []shadow.Edit) ([]shadow.EditReply, error) {
	if c.fail {
		return nil, errors.New("connection reset")
	}
	return c.Channel.SendUpdate(edits)
}

func TestFailedSendReleasesBuffers(t *testing.T) {
	h := newHarness(t)
	flaky := &flakyChannel{Channel: h.channel}
	h.m.Forwarder().SetChannel(flaky)

	h.m.BeginTransaction()
	page := h.m.CreateThebesLayer(h.paintWorld)
	page.SetContentFlags(layers.ContentOpaque)
	h.m.SetRoot(page)
	scrollTo(page, 0)
	h.end()
	sl, _ := h.shadows.Layer(h.m.Forwarder().ShadowFor(page))
	oldFront, back := sl.Front(), page.back

	flaky.fail = true
	h.m.BeginTransaction()
	scrollTo(page, 8)
	if err := h.m.EndTransaction(); err == nil {
		t.Fatal("EndTransaction succeeded, want error")
	}
	if back.Owner() != shadow.OwnerFreed {
		t.Errorf("back owner after failed send = %v, want freed", back.Owner())
	}
	if sl.Front() != oldFront {
		t.Errorf("parent front changed by a failed send")
	}
	h.checkView(0)

	flaky.fail = false
	h.painted = nil
	h.m.BeginTransaction()
	h.end()
	if len(h.painted) != 0 {
		t.Errorf("recovery frame painted %v, want nothing", h.painted)
	}
	if oldFront.Owner() != shadow.OwnerFreed {
		t.Errorf("old front owner = %v, want freed", oldFront.Owner())
	}
	if page.back == nil || page.back.Owner() != shadow.OwnerChild {
		t.Errorf("back after recovery = %v, want a child-owned buffer", page.back)
	}
	h.checkView(8)
}
