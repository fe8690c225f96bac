// Command shadowd is a compositor: it serves shadow layer transactions
// over a WebSocket and can write a PNG of the composited tree after every
// update.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/config"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
	"github.com/gogpu/layers/transport"
)

func main() {
	defaultPath, _ := config.DefaultConfigPath()
	var (
		configPath = flag.String("config", defaultPath, "configuration file")
		listen     = flag.String("listen", "", "listen address (overrides config)")
		snapshot   = flag.String("snapshot", "", "PNG written after each update (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *snapshot != "" {
		cfg.Compositor.Snapshot = *snapshot
	}
	level, _ := cfg.Level()
	layers.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	opts := []transport.ServerOption{
		transport.WithReadLimit(cfg.Compositor.ReadLimit),
		transport.WithMaxPixels(cfg.Buffers.MaxPixels),
	}
	if cfg.Compositor.Snapshot != "" {
		opts = append(opts, transport.WithUpdateHook(func(m *shadow.Manager) {
			if err := writeSnapshot(m, cfg); err != nil {
				layers.Logger().Warn("shadowd: snapshot failed", "err", err)
			}
		}))
	}

	mux := http.NewServeMux()
	mux.Handle("/layers", transport.NewServer(opts...))
	hs := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		layers.Logger().Info("shadowd: listening", "addr", cfg.Listen)
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shadowd: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeSnapshot(m *shadow.Manager, cfg *config.Config) error {
	target, err := surface.NewImageSurface(surface.ContentColorAlpha, cfg.Compositor.Width, cfg.Compositor.Height)
	if err != nil {
		return err
	}
	m.Composite(surface.NewContext(target))

	f, err := os.Create(cfg.Compositor.Snapshot)
	if err != nil {
		return err
	}
	if err := png.Encode(f, target.RGBA()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
