package layers

// Kind identifies the type of a layer on both sides of the channel.
type Kind uint8

const (
	KindThebes Kind = iota + 1
	KindContainer
	KindImage
	KindColor
	KindCanvas
)

// String returns the layer kind name.
func (k Kind) String() string {
	switch k {
	case KindThebes:
		return "thebes"
	case KindContainer:
		return "container"
	case KindImage:
		return "image"
	case KindColor:
		return "color"
	case KindCanvas:
		return "canvas"
	default:
		return "unknown"
	}
}

// ContentFlags describe what a layer promises about its pixels.
type ContentFlags uint32

const (
	// ContentOpaque means every pixel in the visible region is opaque,
	// so the layer can be painted into a surface without alpha.
	ContentOpaque ContentFlags = 1 << iota
)

// Filter selects the resampling used when an image or canvas layer is
// composited.
type Filter uint8

const (
	FilterGood Filter = iota
	FilterNearest
	FilterBilinear
)
