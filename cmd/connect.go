// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/velocictl/internal/transport"
	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/sirupsen/logrus"
)

// openController opens the transport selected by the persistent --port /
// --url flags and wraps it in a Controller.
func openController(opts ...mup1coap.Option) (*mup1coap.Controller, error) {
	logEntry := logrus.NewEntry(log)

	switch {
	case portName != "":
		tr, err := transport.OpenSerial(portName, baudRate, logEntry)
		if err != nil {
			return nil, err
		}
		return mup1coap.New(tr, append(opts, mup1coap.WithLogger(logEntry))...), nil

	case wsURL != "":
		tr, err := transport.OpenWebSocket(wsURL, wsUsername, "", wsNoSSLVerify, logEntry)
		if err != nil {
			return nil, err
		}
		return mup1coap.New(tr, append(opts, mup1coap.WithLogger(logEntry))...), nil

	default:
		return nil, fmt.Errorf("velocictl: specify either --port or --url")
	}
}
