package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"ContentGenesis/internal/domain"
)

// streamEvent is one snapshot queued for a client. Seq counts every snapshot
// offered to the client; Dropped counts those replaced before delivery.
type streamEvent struct {
	Seq     uint64
	Dropped uint64
	State   domain.PipelineState
}

// mailbox keeps only the newest snapshot for a slow client and remembers how
// many were coalesced away.
type mailbox struct {
	mu      sync.Mutex
	seq     uint64
	dropped uint64
	pending *streamEvent
	ready   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) put(s domain.PipelineState) {
	m.mu.Lock()
	m.seq++
	if m.pending != nil {
		m.dropped++
	}
	m.pending = &streamEvent{Seq: m.seq, State: s}
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() (streamEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return streamEvent{}, false
	}
	ev := *m.pending
	ev.Dropped = m.dropped
	m.pending = nil
	m.dropped = 0
	return ev, true
}

// handleEvents streams snapshots as Server-Sent Events. Each client holds at
// most one pending snapshot, so a slow client skips intermediate states. Every
// `state` event carries an increasing id; when snapshots were skipped a
// `dropped` event with their count precedes the next state.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	box := newMailbox()
	unsubscribe := a.pipeline.Subscribe(box.put)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, streamEvent{State: a.pipeline.State()}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-box.ready:
			ev, ok := box.take()
			if !ok {
				continue
			}
			if err := writeEvent(w, ev); err != nil {
				a.logger.Debug("event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev streamEvent) error {
	if ev.Dropped > 0 {
		if _, err := fmt.Fprintf(w, "event: dropped\ndata: {\"dropped\":%d}\n\n", ev.Dropped); err != nil {
			return err
		}
	}
	payload, err := json.Marshal(ev.State)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\nid: %d\ndata: %s\n\n", ev.Seq, payload)
	return err
}
