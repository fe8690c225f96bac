// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package transport

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gogpu/layers"
	"github.com/gogpu/layers/shadow"
	"github.com/gogpu/layers/surface"
)

// DefaultReadLimit is the largest update message a server accepts unless
// WithReadLimit says otherwise.
const DefaultReadLimit = 256 << 20

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReadLimit sets the largest update message, in bytes, the server
// reads. Larger messages close the connection.
func WithReadLimit(n int64) ServerOption {
	return func(s *Server) {
		s.readLimit = n
	}
}

// WithMaxPixels caps the area of every buffer a client sends. Zero means
// no cap.
func WithMaxPixels(n int) ServerOption {
	return func(s *Server) {
		s.maxPixels = n
	}
}

// WithUpdateHook calls fn after every applied update, with the server's
// lock held.
func WithUpdateHook(fn func(m *shadow.Manager)) ServerOption {
	return func(s *Server) {
		s.onUpdate = fn
	}
}

// Server applies updates from one client at a time to a shadow tree. A
// new connection starts from an empty tree.
type Server struct {
	upgrader  websocket.Upgrader
	onUpdate  func(*shadow.Manager)
	readLimit int64
	maxPixels int

	mu      sync.Mutex
	manager *shadow.Manager
}

// NewServer creates a server with an empty tree.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{manager: shadow.NewManager(), readLimit: DefaultReadLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP upgrades the request and serves updates until the client
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		layers.Logger().Warn("transport: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.readLimit)

	log := layers.Logger().With("remote", r.RemoteAddr)
	log.Info("transport: client connected")
	s.reset()

	err = s.serve(conn)
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Info("transport: client disconnected")
		return
	}
	log.Warn("transport: connection failed", "err", err)
}

func (s *Server) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Close()
	s.manager = shadow.NewManager()
}

func (s *Server) serve(conn *websocket.Conn) error {
	for {
		var msg updateMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		reply := s.apply(msg)
		if err := conn.WriteJSON(&reply); err != nil {
			return fmt.Errorf("transport: write reply: %w", err)
		}
	}
}

func (s *Server) apply(msg updateMessage) replyMessage {
	edits := make([]shadow.Edit, 0, len(msg.Edits))
	for _, w := range msg.Edits {
		e, err := decodeEdit(w, s.maxPixels)
		if err != nil {
			return replyMessage{Error: err.Error()}
		}
		edits = append(edits, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	replies, err := s.manager.Update(edits)
	if err != nil {
		return replyMessage{Error: err.Error()}
	}
	if s.onUpdate != nil {
		s.onUpdate(s.manager)
	}

	out := replyMessage{Replies: make([]wireReply, 0, len(replies))}
	for _, r := range replies {
		w, err := encodeReply(r)
		if err != nil {
			return replyMessage{Error: err.Error()}
		}
		out.Replies = append(out.Replies, w)
	}
	return out
}

// Composite draws the current tree into target.
func (s *Server) Composite(target *surface.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Composite(target)
}
