// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package transport carries shadow transactions over a WebSocket.
//
// Client implements shadow.Channel. Each SendUpdate writes one JSON update
// message and waits for the reply message. Pixels of the descriptors an
// edit carries travel inline; descriptors in replies travel by id and are
// resolved against the ones the client sent.
//
// Server is an http.Handler that applies updates to a shadow.Manager.
package transport
