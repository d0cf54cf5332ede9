// Package sse implements a Server-Sent Events broker that tells open views
// when the sheet changed.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeDocumentChanged = "document.changed"
	TypeRender          = "render"
)

// OpResync marks the catch-up change sent to a client that reconnects
// behind the current revision.
const OpResync = "resync"

// DefaultKeepAlive is the interval of comment frames on idle streams.
const DefaultKeepAlive = 15 * time.Second

// Event represents an SSE event to broadcast. A non-zero ID is sent as the
// event id so reconnecting clients report the last revision they saw.
type Event struct {
	Type string `json:"type"`
	ID   uint64 `json:"-"`
	Data any    `json:"data"`
}

// Change is the payload of a document.changed event.
type Change struct {
	Op       string `json:"op"`
	Revision uint64 `json:"revision"`
}

type subscription struct {
	ch     chan []byte
	resume bool
	last   uint64
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set, the latest change and
// the render throttle. Public methods talk to it over channels.
//
// Render events are rate limited to one per throttle window. A change that
// lands inside the window is not lost: a trailing render for the newest
// revision fires when the window closes.
type Broker struct {
	renderMin time.Duration
	keepAlive time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan Change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given render throttle interval.
func NewBroker(renderThrottle time.Duration) *Broker {
	if renderThrottle <= 0 {
		renderThrottle = 250 * time.Millisecond
	}

	b := &Broker{
		renderMin:     renderThrottle,
		keepAlive:     DefaultKeepAlive,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan Change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func frame(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if event.ID > 0 {
		fmt.Fprintf(&sb, "id: %d\n", event.ID)
	}
	fmt.Fprintf(&sb, "event: %s\ndata: %s\n\n", event.Type, payload)
	return []byte(sb.String()), nil
}

func send(ch chan []byte, raw []byte) {
	select {
	case ch <- raw:
	default:
		// Client buffer full; skip to avoid blocking broker loop.
	}
}

func renderEvent(revision uint64) Event {
	return Event{Type: TypeRender, ID: revision, Data: map[string]uint64{"revision": revision}}
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var latest Change
	var lastRender time.Time
	var trailing *time.Timer
	var trailingC <-chan time.Time

	broadcast := func(event Event) {
		raw, err := frame(event)
		if err != nil {
			return
		}
		for ch := range clients {
			send(ch, raw)
		}
	}

	render := func(now time.Time) {
		lastRender = now
		broadcast(renderEvent(latest.Revision))
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = struct{}{}
			if sub.resume && sub.last < latest.Revision {
				if raw, err := frame(Event{
					Type: TypeDocumentChanged,
					ID:   latest.Revision,
					Data: Change{Op: OpResync, Revision: latest.Revision},
				}); err == nil {
					send(sub.ch, raw)
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case c := <-b.changeCh:
			latest = c
			broadcast(Event{Type: TypeDocumentChanged, ID: c.Revision, Data: c})

			now := time.Now()
			if wait := b.renderMin - now.Sub(lastRender); wait <= 0 {
				render(now)
			} else if trailingC == nil {
				trailing = time.NewTimer(wait)
				trailingC = trailing.C
			}

		case now := <-trailingC:
			trailingC = nil
			render(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscription{})
}

// Resume adds a client that has already seen revision last. If the sheet
// has moved on since, the client first receives a resync change.
func (b *Broker) Resume(last uint64) chan []byte {
	return b.subscribe(subscription{resume: true, last: last})
}

func (b *Broker) subscribe(sub subscription) chan []byte {
	sub.ch = make(chan []byte, 64)
	if b.closed.Load() {
		close(sub.ch)
		return sub.ch
	}

	select {
	case b.subscribeCh <- sub:
	case <-b.stopped:
		close(sub.ch)
	}

	return sub.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange publishes a committed change and a throttled render event.
// Its signature matches the sheet service notifier.
func (b *Broker) PublishChange(op string, revision uint64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- Change{Op: op, Revision: revision}:
	case <-b.stopped:
	}
}

// lastEventID reads the revision a reconnecting client reports, from the
// Last-Event-ID header or the lastEventId query parameter.
func lastEventID(r *http.Request) (uint64, bool) {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("lastEventId")
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if last, ok := lastEventID(r); ok {
		ch = b.Resume(last)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
