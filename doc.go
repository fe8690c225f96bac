// Package layers is the shared vocabulary of the layer compositing stack.
//
// # Overview
//
// A layer tree is painted on the content side and mirrored into a compositor
// that may live in another process. Painting is incremental: each thebes
// layer keeps a rotated pixel buffer (package buffer) so that scrolling only
// repaints the newly exposed strip. The result of each frame is shipped to the
// compositor as one transaction of edits (package shadow).
//
// # Packages
//
//   - region: integer pixel regions (union, subtract, bounds)
//   - surface: pixel surfaces and the drawing Context
//   - buffer: rotated buffers and the incremental painter
//   - shadow: transactions, edits, shared buffer descriptors, the compositor side tree
//   - basic: a client layer tree that paints and forwards
//   - transport: WebSocket channel between the two sides
//   - config: YAML configuration for the commands
//
// # Logging
//
// The stack is silent by default. Call SetLogger to enable structured
// logging for this package and all its sub-packages.
package layers
