// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/shadow"
)

// ErrRemote wraps an error reported by the server.
var ErrRemote = errors.New("transport: remote error")

// Client is a shadow.Channel to a Server.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn

	// held are the descriptors the server holds, by id.
	held map[uint64]*shadow.Descriptor
	// fronts are the server's front buffers, by layer.
	fronts map[shadow.LayerID]*shadow.Descriptor
}

// Dial connects to the server at url, for example "ws://127.0.0.1:7340/layers".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	layers.Logger().Info("transport: connected", "url", url)
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		held:   make(map[uint64]*shadow.Descriptor),
		fronts: make(map[shadow.LayerID]*shadow.Descriptor),
	}
}

// SendUpdate sends edits and waits for the server's replies.
func (c *Client) SendUpdate(edits []shadow.Edit) ([]shadow.EditReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := updateMessage{Edits: make([]wireEdit, 0, len(edits))}
	for _, e := range edits {
		w, err := encodeEdit(e)
		if err != nil {
			return nil, err
		}
		msg.Edits = append(msg.Edits, w)
	}
	if err := c.conn.WriteJSON(&msg); err != nil {
		return nil, fmt.Errorf("transport: write update: %w", err)
	}
	var reply replyMessage
	if err := c.conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("transport: read reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemote, reply.Error)
	}

	for _, e := range edits {
		c.track(e)
	}
	replies := make([]shadow.EditReply, 0, len(reply.Replies))
	for _, w := range reply.Replies {
		r, err := decodeReply(w, c.lookup)
		if err != nil {
			return nil, err
		}
		delete(c.held, shadow.ReplyDescriptor(r).ID())
		replies = append(replies, r)
	}
	return replies, nil
}

func (c *Client) lookup(id uint64) (*shadow.Descriptor, bool) {
	d, ok := c.held[id]
	return d, ok
}

// track mirrors the server's bookkeeping of front buffers so that buffers
// the server drops are released here too.
func (c *Client) track(e shadow.Edit) {
	switch e := e.(type) {
	case shadow.OpCreateThebesBuffer:
		c.replaceFront(e.Layer, e.InitialFront)
	case shadow.OpCreateImageBuffer:
		c.replaceFront(e.Layer, e.InitialFront)
	case shadow.OpCreateCanvasBuffer:
		c.replaceFront(e.Layer, e.InitialFront)
	case shadow.OpDestroyThebesFrontBuffer:
		c.replaceFront(e.Layer, nil)
	case shadow.OpDestroyImageFrontBuffer:
		c.replaceFront(e.Layer, nil)
	case shadow.OpDestroyCanvasFrontBuffer:
		c.replaceFront(e.Layer, nil)
	case shadow.OpPaintThebesBuffer:
		c.swapFront(e.Layer, e.NewFrontBuffer.Buffer)
	case shadow.OpPaintImage:
		c.swapFront(e.Layer, e.NewFront)
	case shadow.OpPaintCanvas:
		c.swapFront(e.Layer, e.NewFront)
	}
}

// replaceFront drops the current front of layer and installs d.
func (c *Client) replaceFront(layer shadow.LayerID, d *shadow.Descriptor) {
	if old := c.fronts[layer]; old != nil {
		delete(c.held, old.ID())
		old.Release()
	}
	c.swapFront(layer, d)
}

// swapFront installs d; the previous front comes back in a reply.
func (c *Client) swapFront(layer shadow.LayerID, d *shadow.Descriptor) {
	if d == nil {
		delete(c.fronts, layer)
		return
	}
	c.fronts[layer] = d
	c.held[d.ID()] = d
}

// DeallocShmem does nothing: the server holds its own copy of the pixels.
func (c *Client) DeallocShmem(*shadow.Descriptor) {}

// Close closes the connection with a normal closure.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteMessage(websocket.CloseMessage, msg)
	return errors.Join(err, c.conn.Close())
}
