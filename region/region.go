// Package region implements sets of integer pixels as lists of
// non-overlapping rectangles.
//
// Regions are values. Every operation returns a new Region and leaves its
// operands untouched, so a Region can be stored in a layer and handed out
// without copying.
package region

import (
	"cmp"
	"fmt"
	"image"
	"slices"
	"strings"
)

// Region is a set of pixels. The zero value is the empty region.
type Region struct {
	rects []image.Rectangle
}

// FromRect returns the region covering r. Empty rectangles give the empty
// region.
func FromRect(r image.Rectangle) Region {
	r = r.Canon()
	if r.Empty() {
		return Region{}
	}
	return Region{rects: []image.Rectangle{r}}
}

// FromRects returns the union of rs.
func FromRects(rs ...image.Rectangle) Region {
	var out Region
	for _, r := range rs {
		out = out.Union(FromRect(r))
	}
	return out
}

// IsEmpty reports whether the region covers no pixels.
func (r Region) IsEmpty() bool {
	return len(r.rects) == 0
}

// Rects returns the disjoint rectangles making up the region, sorted top to
// bottom then left to right.
func (r Region) Rects() []image.Rectangle {
	return slices.Clone(r.rects)
}

// Bounds returns the smallest rectangle containing the region.
func (r Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, rc := range r.rects {
		b = b.Union(rc)
	}
	return b
}

// Area returns the number of pixels in the region.
func (r Region) Area() int {
	n := 0
	for _, rc := range r.rects {
		n += rc.Dx() * rc.Dy()
	}
	return n
}

// Union returns r ∪ o.
func (r Region) Union(o Region) Region {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	out := slices.Clone(r.rects)
	out = append(out, o.Sub(r).rects...)
	return Region{rects: coalesce(out)}
}

// UnionRect returns r ∪ rc.
func (r Region) UnionRect(rc image.Rectangle) Region {
	return r.Union(FromRect(rc))
}

// Sub returns r − o.
func (r Region) Sub(o Region) Region {
	if r.IsEmpty() || o.IsEmpty() {
		return r
	}
	pieces := slices.Clone(r.rects)
	for _, s := range o.rects {
		var next []image.Rectangle
		for _, p := range pieces {
			next = appendDifference(next, p, s)
		}
		pieces = next
		if len(pieces) == 0 {
			break
		}
	}
	return Region{rects: coalesce(pieces)}
}

// SubRect returns r − rc.
func (r Region) SubRect(rc image.Rectangle) Region {
	return r.Sub(FromRect(rc))
}

// IntersectRect returns r ∩ rc.
func (r Region) IntersectRect(rc image.Rectangle) Region {
	var out []image.Rectangle
	for _, p := range r.rects {
		if i := p.Intersect(rc); !i.Empty() {
			out = append(out, i)
		}
	}
	return Region{rects: coalesce(out)}
}

// Intersect returns r ∩ o.
func (r Region) Intersect(o Region) Region {
	var out []image.Rectangle
	for _, p := range r.rects {
		for _, q := range o.rects {
			if i := p.Intersect(q); !i.Empty() {
				out = append(out, i)
			}
		}
	}
	return Region{rects: coalesce(out)}
}

// Contains reports whether every pixel of o is in r.
func (r Region) Contains(o Region) bool {
	return o.Sub(r).IsEmpty()
}

// ContainsRect reports whether every pixel of rc is in r.
func (r Region) ContainsRect(rc image.Rectangle) bool {
	return FromRect(rc).Sub(r).IsEmpty()
}

// Equal reports whether r and o cover the same pixels.
func (r Region) Equal(o Region) bool {
	return r.Area() == o.Area() && r.Contains(o)
}

// Translate returns r moved by p.
func (r Region) Translate(p image.Point) Region {
	if r.IsEmpty() {
		return r
	}
	out := make([]image.Rectangle, len(r.rects))
	for i, rc := range r.rects {
		out[i] = rc.Add(p)
	}
	return Region{rects: out}
}

func (r Region) String() string {
	if r.IsEmpty() {
		return "{}"
	}
	parts := make([]string, len(r.rects))
	for i, rc := range r.rects {
		parts[i] = fmt.Sprintf("(%d,%d,%d,%d)", rc.Min.X, rc.Min.Y, rc.Dx(), rc.Dy())
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// appendDifference appends a − b to dst as at most four rectangles: the full
// width bands above and below b, then the pieces left and right of b.
func appendDifference(dst []image.Rectangle, a, b image.Rectangle) []image.Rectangle {
	i := a.Intersect(b)
	if i.Empty() {
		return append(dst, a)
	}
	if a.Min.Y < i.Min.Y {
		dst = append(dst, image.Rect(a.Min.X, a.Min.Y, a.Max.X, i.Min.Y))
	}
	if i.Max.Y < a.Max.Y {
		dst = append(dst, image.Rect(a.Min.X, i.Max.Y, a.Max.X, a.Max.Y))
	}
	if a.Min.X < i.Min.X {
		dst = append(dst, image.Rect(a.Min.X, i.Min.Y, i.Min.X, i.Max.Y))
	}
	if i.Max.X < a.Max.X {
		dst = append(dst, image.Rect(i.Max.X, i.Min.Y, a.Max.X, i.Max.Y))
	}
	return dst
}

// coalesce merges rectangles that share a full edge, then sorts the result.
// The input must already be disjoint.
func coalesce(rs []image.Rectangle) []image.Rectangle {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(rs) && !merged; i++ {
			for j := i + 1; j < len(rs); j++ {
				if u, ok := mergeable(rs[i], rs[j]); ok {
					rs[i] = u
					rs = slices.Delete(rs, j, j+1)
					merged = true
					break
				}
			}
		}
	}
	slices.SortFunc(rs, func(a, b image.Rectangle) int {
		if c := cmp.Compare(a.Min.Y, b.Min.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Min.X, b.Min.X)
	})
	if len(rs) == 0 {
		return nil
	}
	return rs
}

func mergeable(a, b image.Rectangle) (image.Rectangle, bool) {
	if a.Min.X == b.Min.X && a.Max.X == b.Max.X && (a.Max.Y == b.Min.Y || b.Max.Y == a.Min.Y) {
		return a.Union(b), true
	}
	if a.Min.Y == b.Min.Y && a.Max.Y == b.Max.Y && (a.Max.X == b.Min.X || b.Max.X == a.Min.X) {
		return a.Union(b), true
	}
	return image.Rectangle{}, false
}
