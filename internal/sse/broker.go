// Package sse streams collection changes to HTTP clients as Server-Sent
// Events.
//
// Every message carries a sequence number as its SSE id. The broker keeps
// the most recent messages so a client reconnecting with Last-Event-ID
// receives what it missed, as long as it is still in the history.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeFileCreated  = "file.created"
	TypeFileUpdated  = "file.updated"
	TypeFileDeleted  = "file.deleted"
	TypeIndexUpdated = "index.updated"
)

const (
	historySize = 64
	clientBuf   = historySize
)

// Event is a message to broadcast. Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// FileChange is the data of file.* events.
type FileChange struct {
	Path string `json:"path"`
}

// IndexUpdate is the data of index.updated: the number of file changes of
// each kind since the previous index.updated.
type IndexUpdate struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

func (u IndexUpdate) empty() bool {
	return u.Created == 0 && u.Updated == 0 && u.Deleted == 0
}

type message struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch    chan []byte
	after uint64
}

type fileChangeReq struct {
	kind string
	path string
}

// Broker fans events out to subscribed clients.
//
// One goroutine owns the clients, the history, the sequence counter and the
// pending index counts; public methods reach it through channels.
// index.updated is sent at most once per throttle interval. Changes that
// arrive inside the interval are counted and sent when it ends.
type Broker struct {
	indexMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	fileCh        chan fileChangeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that sends at most one index.updated per
// indexThrottle.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}

	b := &Broker{
		indexMin:      indexThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		fileCh:        make(chan fileChangeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]message, 0, historySize)
	var seq uint64

	var pending IndexUpdate
	var lastIndex time.Time
	var flush <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		m := message{id: seq, raw: fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload)}
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, m)

		for ch := range clients {
			select {
			case ch <- m.raw:
			default:
				// Slow client; it can catch up with Last-Event-ID.
			}
		}
	}

	sendIndex := func(now time.Time) {
		flush = nil
		if pending.empty() {
			return
		}
		broadcast(Event{Type: TypeIndexUpdated, Data: pending})
		pending = IndexUpdate{}
		lastIndex = now
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			for _, m := range history {
				if m.id <= sub.after {
					continue
				}
				select {
				case sub.ch <- m.raw:
				default:
				}
			}
			clients[sub.ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.fileCh:
			switch req.kind {
			case "created":
				pending.Created++
			case "updated":
				pending.Updated++
			case "deleted":
				pending.Deleted++
			default:
				continue
			}
			broadcast(Event{Type: "file." + req.kind, Data: FileChange{Path: req.path}})

			now := time.Now()
			if wait := b.indexMin - now.Sub(lastIndex); wait <= 0 {
				sendIndex(now)
			} else if flush == nil {
				flush = time.After(wait)
			}

		case now := <-flush:
			sendIndex(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client. Messages with an id above after that are still
// in the history are queued on the channel first.
func (b *Broker) Subscribe(after uint64) chan []byte {
	ch := make(chan []byte, clientBuf)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, after: after}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

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

// PublishFileEvent announces a created, updated or deleted collection file
// and counts it towards the next index.updated. Other kinds are dropped.
func (b *Broker) PublishFileEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.fileCh <- fileChangeReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events). A
// Last-Event-ID header resumes after that id.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var after uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid Last-Event-ID", http.StatusBadRequest)
			return
		}
		after = id
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ch := b.Subscribe(after)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
