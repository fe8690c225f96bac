// Package config loads the YAML configuration shared by the compositor
// daemon and the demo client.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Buffers configures shared buffer allocation.
type Buffers struct {
	Platform  bool `yaml:"platform"`   // try platform allocators (memfd) first
	MaxPixels int  `yaml:"max_pixels"` // per-surface cap, 0 = unlimited
}

// Compositor configures the daemon's output.
type Compositor struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Snapshot  string `yaml:"snapshot"`   // PNG written after each update, empty = off
	ReadLimit int64  `yaml:"read_limit"` // largest update message in bytes
}

// Demo configures the scrolling client.
type Demo struct {
	Frames int `yaml:"frames"`
	Step   int `yaml:"step"` // pixels scrolled per frame
}

// Config is the complete configuration.
type Config struct {
	Listen     string     `yaml:"listen"`
	LogLevel   string     `yaml:"log_level"`
	Buffers    Buffers    `yaml:"buffers"`
	Compositor Compositor `yaml:"compositor"`
	Demo       Demo       `yaml:"demo"`
}

// ValidationError names the setting that failed validation.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:   "127.0.0.1:7340",
		LogLevel: "info",
		Buffers: Buffers{
			Platform:  true,
			MaxPixels: 4096 * 4096,
		},
		Compositor: Compositor{Width: 800, Height: 600, ReadLimit: 256 << 20},
		Demo:       Demo{Frames: 60, Step: 7},
	}
}

// DefaultConfigPath returns ~/.config/layers/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "layers", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return &ValidationError{Path: "listen", Err: err}
	}
	if _, err := c.Level(); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if c.Buffers.MaxPixels < 0 {
		return &ValidationError{Path: "buffers.max_pixels", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Compositor.Width <= 0 || c.Compositor.Height <= 0 {
		return &ValidationError{Path: "compositor", Err: fmt.Errorf("width and height must be > 0")}
	}
	if c.Compositor.ReadLimit <= 0 {
		return &ValidationError{Path: "compositor.read_limit", Err: fmt.Errorf("must be > 0")}
	}
	if c.Demo.Frames < 0 {
		return &ValidationError{Path: "demo.frames", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Demo.Step <= 0 {
		return &ValidationError{Path: "demo.step", Err: fmt.Errorf("must be > 0")}
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	return l, nil
}
