// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Transport is the byte-stream collaborator a Controller drives:
// something that can write raw bytes out, deliver raw bytes in via
// a callback, and be torn down. internal/transport's Serial and
// WebSocket implementations satisfy this directly.
type Transport interface {
	Write(p []byte) (int, error)
	OnBytes(func([]byte))
	Close() error
}

// options configures a Controller. See WithLogger (log.go) and
// WithTraceCapacity below.
type options struct {
	logger     *logrus.Entry
	traceSize  int
}

// Option configures optional Controller behavior via the functional
// options pattern.
type Option func(*options)

// WithTraceCapacity sets how many recent frames the Controller retains
// for Trace(). A capacity of 0 disables trace recording.
func WithTraceCapacity(capacity int) Option {
	return func(o *options) { o.traceSize = capacity }
}

func defaultOptions() *options {
	return &options{logger: defaultLogger, traceSize: 256}
}

// Controller is the top-level facade: it owns the reassembler, tracker,
// and dispatcher behind the transport's byte stream, and exposes the
// device operations (ping, device info, save config, factory reset,
// reboot, coap_*) as plain Go methods.
type Controller struct {
	transport   Transport
	reassembler *Reassembler
	tracker     *Tracker
	dispatcher  *Dispatcher
	trace       *TraceRing
	logger      *logrus.Entry

	infoMu     sync.Mutex
	cachedInfo *DeviceInfo
}

// New creates a Controller bound to transport. It registers the
// transport's byte callback immediately; frames begin flowing as soon as
// the transport itself starts delivering bytes.
func New(transport Transport, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var trace *TraceRing
	if o.traceSize > 0 {
		trace = NewTraceRing(o.traceSize)
	}

	c := &Controller{
		transport:   transport,
		reassembler: NewReassembler(o.logger),
		trace:       trace,
		logger:      o.logger,
	}
	c.tracker = NewTracker(transport, o.logger)
	c.dispatcher = NewDispatcher(c.tracker, trace, o.logger)

	transport.OnBytes(c.handleBytes)
	return c
}

func (c *Controller) handleBytes(data []byte) {
	for _, frame := range c.reassembler.Push(data) {
		c.dispatcher.Dispatch(frame)
	}
}

// On subscribes fn to events of kind.
func (c *Controller) On(kind EventKind, fn func(Event)) uint64 { return c.dispatcher.On(kind, fn) }

// Once subscribes fn to the next event of kind only.
func (c *Controller) Once(kind EventKind, fn func(Event)) uint64 { return c.dispatcher.Once(kind, fn) }

// Off removes a subscription registered with On or Once.
func (c *Controller) Off(kind EventKind, id uint64) { c.dispatcher.Off(kind, id) }

// Stats returns current request/response latency statistics.
func (c *Controller) Stats() StatsSnapshot { return c.tracker.Stats() }

// Trace returns every frame recorded since startup (or since the ring
// wrapped), oldest first. Returns nil if trace recording is disabled.
func (c *Controller) Trace() []TraceEntry {
	if c.trace == nil {
		return nil
	}
	return c.trace.Snapshot()
}

// Close drains any in-flight requests with ErrConnectionClosed and closes
// the underlying transport.
func (c *Controller) Close() error {
	c.tracker.Close()
	return c.transport.Close()
}

// Ping sends a 'P' frame and waits for the device's pong. It does not go
// through the tracker (pongs carry no mid); it subscribes a one-shot
// pong listener before writing.
func (c *Controller) Ping() error {
	done := make(chan struct{}, 1)
	id := c.dispatcher.Once(EventPong, func(Event) { done <- struct{}{} })

	if _, err := c.transport.Write(EncodeFrame(TypePong, nil)); err != nil {
		c.dispatcher.Off(EventPong, id)
		return fmt.Errorf("mup1coap: sending ping: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(pingTimeout):
		c.dispatcher.Off(EventPong, id)
		return ErrTimeout
	}
}

// DeviceInfo emits the 'S' system command "info" and waits for the
// device's next announcement, parsing and caching it.
func (c *Controller) DeviceInfo() (DeviceInfo, error) {
	resultCh := make(chan DeviceInfo, 1)
	errCh := make(chan error, 1)

	id := c.dispatcher.Once(EventAnnounce, func(ev Event) {
		if ev.Info == nil {
			errCh <- fmt.Errorf("%w: unparseable announcement", ErrProtocolError)
			return
		}
		resultCh <- *ev.Info
	})

	if _, err := c.transport.Write(EncodeFrame(TypeSystem, []byte("info"))); err != nil {
		c.dispatcher.Off(EventAnnounce, id)
		return DeviceInfo{}, fmt.Errorf("mup1coap: sending info command: %w", err)
	}

	select {
	case info := <-resultCh:
		c.infoMu.Lock()
		c.cachedInfo = &info
		c.infoMu.Unlock()
		return info, nil
	case err := <-errCh:
		return DeviceInfo{}, err
	case <-time.After(requestTimeout):
		c.dispatcher.Off(EventAnnounce, id)
		return DeviceInfo{}, ErrTimeout
	}
}

// CachedDeviceInfo returns the most recent DeviceInfo resolved by
// DeviceInfo or Initialize, if any.
func (c *Controller) CachedDeviceInfo() (DeviceInfo, bool) {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()
	if c.cachedInfo == nil {
		return DeviceInfo{}, false
	}
	return *c.cachedInfo, true
}

// Initialize performs the device bring-up sequence: ping the device,
// attempt (best effort, not fatal) a CORECONF FETCH handshake, then wait
// for the device's own announcement.
func (c *Controller) Initialize() (DeviceInfo, error) {
	if err := c.Ping(); err != nil {
		return DeviceInfo{}, fmt.Errorf("mup1coap: initial ping: %w", err)
	}

	// CBOR [0x7278]: an array of one 16-bit unsigned integer — the
	// ietf-yang-library "modules-state" branch, used only as a
	// reachability probe.
	if _, err := c.CoAPFetch("c?d=a", []uint16{0x7278}); err != nil {
		c.logger.WithError(err).Debug("mup1coap: CORECONF handshake FETCH failed, continuing anyway")
	}

	return c.DeviceInfo()
}

// SaveConfig emits the 'S' system command "save-config" and waits for a
// system-response whose ASCII payload contains "success".
func (c *Controller) SaveConfig() error {
	return c.systemCommand("save-config", true)
}

// FactoryReset emits the 'S' system command "factory-reset" and waits for
// a system-response whose ASCII payload contains "success".
func (c *Controller) FactoryReset() error {
	return c.systemCommand("factory-reset", true)
}

// Reboot emits the 'S' system command "reboot". Unlike SaveConfig and
// FactoryReset it does not wait for a response: the device may drop the
// link before it can answer.
func (c *Controller) Reboot() error {
	return c.systemCommand("reboot", false)
}

// systemCommand writes an 'S' frame carrying cmd. When awaitSuccess is
// true it blocks for the next system-response event and checks its
// ASCII payload for the case-sensitive substring "success".
func (c *Controller) systemCommand(cmd string, awaitSuccess bool) error {
	var done chan []byte
	var id uint64
	if awaitSuccess {
		done = make(chan []byte, 1)
		id = c.dispatcher.Once(EventSystem, func(ev Event) { done <- ev.Raw })
	}

	if _, err := c.transport.Write(EncodeFrame(TypeSystem, []byte(cmd))); err != nil {
		if awaitSuccess {
			c.dispatcher.Off(EventSystem, id)
		}
		return fmt.Errorf("mup1coap: sending %s command: %w", cmd, err)
	}

	if !awaitSuccess {
		return nil
	}

	select {
	case resp := <-done:
		if !strings.Contains(string(resp), "success") {
			return fmt.Errorf("mup1coap: %s command failed: %s", cmd, resp)
		}
		return nil
	case <-time.After(requestTimeout):
		c.dispatcher.Off(EventSystem, id)
		return ErrTimeout
	}
}

// CoAPGet issues a CORECONF GET against uri.
func (c *Controller) CoAPGet(uri string) (Message, error) {
	return c.tracker.Request(CodeGET, uri, nil, false)
}

// CoAPPost issues a CORECONF POST of payload against uri.
func (c *Controller) CoAPPost(uri string, payload interface{}) (Message, error) {
	return c.tracker.Request(CodePOST, uri, payload, true)
}

// CoAPPut issues a CORECONF PUT of payload against uri.
func (c *Controller) CoAPPut(uri string, payload interface{}) (Message, error) {
	return c.tracker.Request(CodePUT, uri, payload, true)
}

// CoAPDelete issues a CORECONF DELETE against uri.
func (c *Controller) CoAPDelete(uri string) (Message, error) {
	return c.tracker.Request(CodeDELETE, uri, nil, false)
}

// CoAPFetch issues a CORECONF FETCH of payload against uri (RFC 8132).
func (c *Controller) CoAPFetch(uri string, payload interface{}) (Message, error) {
	return c.tracker.Request(CodeFETCH, uri, payload, true)
}
