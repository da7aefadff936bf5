// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport supplies the byte-stream implementations the
// mup1coap.Controller drives: serial and WebSocket, both reshaped from
// blocking io.Reader pull to a callback push so the Controller never owns
// a read goroutine itself.
package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// readWriteCloser is satisfied by both the serial and WebSocket
// connection types below.
type readWriteCloser interface {
	io.Reader
	io.Writer
	io.Closer
}

// pump reads from rwc in a loop, handing every chunk to onBytes, until rwc
// is closed or a read error occurs. It is shared by Serial and WebSocket
// so both get identical shutdown and logging behavior.
type pump struct {
	mu       sync.Mutex
	rwc      readWriteCloser
	onBytes  func([]byte)
	logger   *logrus.Entry
	closed   bool
	closeErr error
}

func newPump(rwc readWriteCloser, logger *logrus.Entry) *pump {
	return &pump{rwc: rwc, logger: logger}
}

// OnBytes registers the callback and starts the read loop. Matches
// mup1coap.Transport's OnBytes contract: bytes delivered as they arrive,
// in a single background goroutine per transport instance.
func (p *pump) OnBytes(fn func([]byte)) {
	p.mu.Lock()
	p.onBytes = fn
	p.mu.Unlock()
	go p.run()
}

func (p *pump) run() {
	buf := make([]byte, 4096)
	for {
		n, err := p.rwc.Read(buf)
		if n > 0 {
			p.mu.Lock()
			cb := p.onBytes
			p.mu.Unlock()
			if cb != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				cb(chunk)
			}
		}
		if err != nil {
			p.mu.Lock()
			already := p.closed
			p.mu.Unlock()
			if !already {
				p.logger.WithError(err).Debug("transport: read loop ending")
			}
			return
		}
	}
}

func (p *pump) Write(data []byte) (int, error) {
	return p.rwc.Write(data)
}

func (p *pump) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	if err := p.rwc.Close(); err != nil {
		return fmt.Errorf("transport: closing: %w", err)
	}
	return nil
}
