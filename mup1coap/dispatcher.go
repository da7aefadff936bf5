// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventKind names the five observable frame events a Controller publishes:
// a pong in answer to ping(), an unsolicited announcement, a CoAP response
// (also resolved against the Tracker), a system-channel frame, and a trace
// frame.
type EventKind int

const (
	EventPong EventKind = iota
	EventAnnounce
	EventCoAPResponse
	EventSystem
	EventTrace
)

// Event is the payload handed to subscribers. Raw holds the frame payload
// exactly as decoded; Info is populated only for EventAnnounce once parsed
// successfully.
type Event struct {
	Kind EventKind
	Raw  []byte
	Info *DeviceInfo
}

type subscriber struct {
	id   uint64
	fn   func(Event)
	once bool
}

// Dispatcher routes decoded frames to both the Tracker (for CoAP
// correlation) and any registered event subscribers, with an on/once/off
// subscription API. Delivery is in registration order; a panicking or
// error-returning callback never prevents later subscribers in the same
// dispatch from running, and a once subscriber is removed exactly once
// regardless of how its callback behaves.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    uint64
	subs      map[EventKind][]subscriber
	tracker   *Tracker
	logger    *logrus.Entry
	trace     *TraceRing
	firstInfo bool
}

// NewDispatcher creates a Dispatcher that resolves CoAP responses against
// tracker and records every frame's payload into trace (trace may be nil
// to disable recording).
func NewDispatcher(tracker *Tracker, trace *TraceRing, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = defaultLogger
	}
	return &Dispatcher{
		subs:    make(map[EventKind][]subscriber),
		tracker: tracker,
		trace:   trace,
		logger:  logger,
	}
}

// On registers fn to be called for every future event of kind. It returns
// an id usable with Off.
func (d *Dispatcher) On(kind EventKind, fn func(Event)) uint64 {
	return d.subscribe(kind, fn, false)
}

// Once registers fn to be called at most once for kind, then
// automatically removed.
func (d *Dispatcher) Once(kind EventKind, fn func(Event)) uint64 {
	return d.subscribe(kind, fn, true)
}

func (d *Dispatcher) subscribe(kind EventKind, fn func(Event), once bool) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subs[kind] = append(d.subs[kind], subscriber{id: id, fn: fn, once: once})
	return id
}

// Off removes a subscription previously returned by On or Once.
func (d *Dispatcher) Off(kind EventKind, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.subs[kind]
	for i, s := range list {
		if s.id == id {
			d.subs[kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Dispatch routes one decoded frame by its type byte. It never returns an
// error: a malformed announcement or a panicking subscriber is logged and
// swallowed so one bad frame or callback can never take down the read
// loop.
func (d *Dispatcher) Dispatch(frame Frame) {
	if d.trace != nil {
		d.trace.Record(frame)
	}

	switch frame.Type {
	case TypePong:
		d.emit(Event{Kind: EventPong, Raw: frame.Payload})
	case TypeAnnounce:
		d.handleAnnounce(frame.Payload)
	case TypeCoAP:
		if d.tracker != nil {
			d.tracker.HandleResponse(frame.Payload)
		}
		d.emit(Event{Kind: EventCoAPResponse, Raw: frame.Payload})
	case TypeSystem:
		d.emit(Event{Kind: EventSystem, Raw: frame.Payload})
	case TypeTrace:
		d.emit(Event{Kind: EventTrace, Raw: frame.Payload})
	default:
		d.logger.WithField("type", string(frame.Type)).Debug("mup1coap: unknown frame type, ignoring")
	}
}

func (d *Dispatcher) handleAnnounce(payload []byte) {
	info, err := ParseDeviceInfo(payload)
	if err != nil {
		d.logger.WithError(err).Debug("mup1coap: unparseable announcement, delivering raw only")
		d.emit(Event{Kind: EventAnnounce, Raw: payload})
		return
	}
	d.emit(Event{Kind: EventAnnounce, Raw: payload, Info: &info})
}

// emit delivers ev to every current subscriber of ev.Kind, removing once
// subscribers first so a panicking callback cannot leave them registered.
func (d *Dispatcher) emit(ev Event) {
	d.mu.Lock()
	list := append([]subscriber(nil), d.subs[ev.Kind]...)
	var remaining []subscriber
	for _, s := range d.subs[ev.Kind] {
		if !s.once {
			remaining = append(remaining, s)
		}
	}
	d.subs[ev.Kind] = remaining
	d.mu.Unlock()

	for _, s := range list {
		d.safeInvoke(s, ev)
	}
}

func (d *Dispatcher) safeInvoke(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("recover", r).Error("mup1coap: event subscriber panicked")
		}
	}()
	s.fn(ev)
}
