package main

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// client is one SSE connection to an editor.
type client struct {
	ch       chan string
	editorID string
}

// Broadcaster fans state events out to the SSE clients of each editor.
type Broadcaster struct {
	mu      sync.RWMutex
	editors map[string]map[*client]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		editors: make(map[string]map[*client]struct{}),
	}
}

// Register adds a client for an editor and returns it.
func (b *Broadcaster) Register(editorID string) *client {
	c := &client{
		ch:       make(chan string, sseChannelBuffer),
		editorID: editorID,
	}
	b.mu.Lock()
	group := b.editors[editorID]
	if group == nil {
		group = make(map[*client]struct{})
		b.editors[editorID] = group
	}
	group[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Unregister removes a client and closes its channel. Unknown clients are ignored.
func (b *Broadcaster) Unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group := b.editors[c.editorID]
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	close(c.ch)
	if len(group) == 0 {
		delete(b.editors, c.editorID)
	}
}

// Broadcast queues data for every client of an editor. Clients whose buffer
// is full miss the event; the next state event supersedes it.
func (b *Broadcaster) Broadcast(editorID, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.editors[editorID] {
		select {
		case c.ch <- data:
		default:
		}
	}
}

// Close disconnects every client of an editor.
func (b *Broadcaster) Close(editorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.editors[editorID] {
		close(c.ch)
	}
	delete(b.editors, editorID)
}

// ClientCount returns the number of connected clients for an editor.
func (b *Broadcaster) ClientCount(editorID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.editors[editorID])
}

// ServeSSE streams an editor's events to w, starting with initial, until the
// request ends or the editor is closed.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, editorID, initial string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming non supporté", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Register(editorID)
	defer b.Unregister(c)

	writeEvent(w, initial)
	flusher.Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			writeEvent(w, msg)
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
		}
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
}
