// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// ErrWebSocketClosed is returned by reads once the underlying connection
// has failed or been closed.
var ErrWebSocketClosed = errors.New("transport: websocket connection closed")

// wsConn adapts a *websocket.Conn's message framing to the byte-stream
// io.Reader/io.Writer shape pump expects, one binary message at a time.
type wsConn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *wsConn) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWebSocketClosed
	}
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// WebSocket drives a VelocityDRIVE device over its WebSocket console
// proxy.
type WebSocket struct {
	*pump
}

// OpenWebSocket dials wsURL (ws:// or wss://) with optional HTTP Basic
// auth. If username is set and password is empty, the password is read
// from the VELOCICTL_PASSWORD environment variable or, failing that,
// prompted interactively with echo disabled.
func OpenWebSocket(wsURL, username, password string, skipSSLVerify bool, logger *logrus.Entry) (*WebSocket, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("transport: unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	if username != "" && password == "" {
		password, err = resolvePassword()
		if err != nil {
			return nil, err
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+creds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("transport: websocket dial failed: %w", err)
	}

	return &WebSocket{pump: newPump(&wsConn{conn: conn}, logger)}, nil
}

func resolvePassword() (string, error) {
	if pw := os.Getenv("VELOCICTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("transport: reading password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}
