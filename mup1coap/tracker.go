// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// frameWriter is the narrow slice of Transport the tracker needs: handing
// one already-framed, already-escaped message to the wire as a single
// logical write.
type frameWriter interface {
	Write([]byte) (int, error)
}

// pendingEntry tracks one in-flight request: the mid it was sent under,
// a deadline timer, and the channel its caller is blocked reading from.
type pendingEntry struct {
	mid    uint16
	method byte
	uri    string
	sentAt time.Time
	timer  *time.Timer
	result chan requestResult
}

type requestResult struct {
	msg Message
	err error
}

// Tracker allocates CoAP message-ids, correlates responses by mid, and
// enforces the fixed per-request deadline. It is the sole owner of the
// pending-request map, guarded by a single mutex: one map, one lock,
// callers block on a per-request channel rather than the lock itself.
type Tracker struct {
	mu      sync.Mutex
	pending map[uint16]*pendingEntry
	nextMid uint16
	writer  frameWriter
	codec   *Codec
	logger  *logrus.Entry
	closed  bool
	stats   *Stats
}

// NewTracker creates a Tracker that writes CoAP-in-MUP1 frames to writer.
func NewTracker(writer frameWriter, logger *logrus.Entry) *Tracker {
	if logger == nil {
		logger = defaultLogger
	}
	return &Tracker{
		pending: make(map[uint16]*pendingEntry),
		writer:  writer,
		codec:   NewCodec(),
		logger:  logger,
		stats:   newStats(),
	}
}

// Stats returns a snapshot of completed-request latency statistics.
func (t *Tracker) Stats() StatsSnapshot {
	return t.stats.Snapshot()
}

// Request allocates a mid, builds and frames the CoAP message, records
// the pending entry, and writes the frame — in that order, so a response
// racing in on another goroutine can never arrive before the entry is
// registered. It blocks until the request resolves, is rejected with a
// ResponseError, times out, or the tracker is closed.
func (t *Tracker) Request(method byte, uri string, payload interface{}, hasPayload bool) (Message, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Message{}, ErrConnectionClosed
	}

	mid := t.nextMid
	t.nextMid++
	if _, exists := t.pending[mid]; exists {
		t.mu.Unlock()
		return Message{}, ErrTooManyInFlight
	}

	coapBytes, err := t.codec.Build(method, mid, uri, payload, hasPayload)
	if err != nil {
		t.mu.Unlock()
		return Message{}, err
	}
	wire := EncodeFrame(TypeCoAP, coapBytes)

	entry := &pendingEntry{
		mid:    mid,
		method: method,
		uri:    uri,
		sentAt: time.Now(),
		result: make(chan requestResult, 1),
	}
	entry.timer = time.AfterFunc(requestTimeout, func() { t.expire(mid) })
	t.pending[mid] = entry
	t.mu.Unlock()

	if _, err := t.writer.Write(wire); err != nil {
		t.mu.Lock()
		delete(t.pending, mid)
		t.mu.Unlock()
		entry.timer.Stop()
		return Message{}, fmt.Errorf("mup1coap: writing request: %w", err)
	}

	res := <-entry.result
	return res.msg, res.err
}

// HandleResponse is called by the dispatcher for every decoded 'C' frame
// payload. It parses the CoAP message and resolves the matching pending
// request, if any. A response with no matching mid — arrived after
// timeout, or never requested — is discarded.
func (t *Tracker) HandleResponse(payload []byte) {
	msg, err := t.codec.Parse(payload)
	if err != nil {
		t.logger.WithError(err).Debug("mup1coap: dropping malformed CoAP response")
		t.completeWith(msg.Mid, requestResult{err: fmt.Errorf("%w: %v", ErrProtocolError, err)})
		return
	}
	t.completeWith(msg.Mid, requestResult{msg: msg, err: ClassifyResponse(msg)})
}

func (t *Tracker) completeWith(mid uint16, res requestResult) {
	t.mu.Lock()
	entry, ok := t.pending[mid]
	if ok {
		delete(t.pending, mid)
	}
	t.mu.Unlock()

	if !ok {
		t.logger.WithField("mid", mid).Debug("mup1coap: response for unknown or expired mid, discarding")
		return
	}

	entry.timer.Stop()
	t.stats.record(time.Since(entry.sentAt))
	entry.result <- res
}

func (t *Tracker) expire(mid uint16) {
	t.mu.Lock()
	entry, ok := t.pending[mid]
	if ok {
		delete(t.pending, mid)
	}
	t.mu.Unlock()

	if !ok {
		return // already resolved by a response that won the race
	}
	entry.result <- requestResult{err: ErrTimeout}
}

// Close rejects every pending request with ErrConnectionClosed and marks
// the tracker unusable for further requests.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	entries := make([]*pendingEntry, 0, len(t.pending))
	for mid, entry := range t.pending {
		entries = append(entries, entry)
		delete(t.pending, mid)
	}
	t.mu.Unlock()

	for _, entry := range entries {
		entry.timer.Stop()
		entry.result <- requestResult{err: ErrConnectionClosed}
	}
}
