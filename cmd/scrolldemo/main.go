// Command scrolldemo connects to shadowd and scrolls a striped page, one
// transaction per frame.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/basic"
	"github.com/gogpu/layers/config"
	"github.com/gogpu/layers/region"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
	"github.com/gogpu/layers/transport"
)

const bandHeight = 24

func main() {
	defaultPath, _ := config.DefaultConfigPath()
	var (
		configPath = flag.String("config", defaultPath, "configuration file")
		frames     = flag.Int("frames", 0, "frames to scroll (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *frames > 0 {
		cfg.Demo.Frames = *frames
	}
	level, _ := cfg.Level()
	layers.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := transport.Dial(ctx, "ws://"+cfg.Listen+"/layers")
	if err != nil {
		return err
	}
	defer client.Close()

	fwd := shadow.NewForwarder(shadow.WithPlatformBuffers(cfg.Buffers.Platform))
	fwd.SetChannel(client)
	defer fwd.Close()

	ref, err := surface.NewImageSurface(surface.ContentColorAlpha, 1, 1, surface.WithMaxPixels(cfg.Buffers.MaxPixels))
	if err != nil {
		return err
	}
	m := basic.NewLayerManager(fwd, basic.WithReferenceSurface(ref))

	w, h := cfg.Compositor.Width, cfg.Compositor.Height
	view := image.Rect(0, 0, w, h)

	m.BeginTransaction()
	root := m.CreateContainerLayer()
	root.SetVisibleRegion(region.FromRect(view))
	bg := m.CreateColorLayer()
	bg.SetColor(color.RGBA{R: 32, G: 32, B: 40, A: 255})
	bg.SetVisibleRegion(region.FromRect(view))
	page := m.CreateThebesLayer(paintStripes(w))
	page.SetContentFlags(layers.ContentOpaque)
	page.SetClipRect(view.Inset(16))
	root.InsertAfter(bg, nil)
	root.InsertAfter(page, bg)
	m.SetRoot(root)
	scroll(page, w, h, 0)
	if err := m.EndTransaction(); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	for i := 1; i <= cfg.Demo.Frames; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		m.BeginTransaction()
		scroll(page, w, h, i*cfg.Demo.Step)
		if err := m.EndTransaction(); err != nil {
			return err
		}
		layers.Logger().Debug("scrolldemo: frame", "frame", i, "rotation", page.Buffer().Rotation())
	}
	return nil
}

func scroll(page *basic.ThebesLayer, w, h, y int) {
	page.SetVisibleRegion(region.FromRect(image.Rect(0, y, w, y+h)))
	page.SetTransform(layers.Translate(0, float64(-y)))
}

// paintStripes paints horizontal bands whose color depends on the row.
func paintStripes(width int) basic.PaintFunc {
	return func(ctx *surface.Context, toDraw region.Region) {
		b := toDraw.Bounds()
		for y := b.Min.Y - mod(b.Min.Y, bandHeight); y < b.Max.Y; y += bandHeight {
			band := y / bandHeight
			ctx.SetSourceColor(color.RGBA{
				R: uint8(band * 37),
				G: uint8(128 + band*11),
				B: uint8(255 - band*23),
				A: 255,
			})
			ctx.FillRect(image.Rect(0, y, width, y+bandHeight))
		}
	}
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
