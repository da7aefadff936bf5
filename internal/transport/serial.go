// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial drives a VelocityDRIVE device over its UART console.
type Serial struct {
	*pump
	port serial.Port
}

// OpenSerial opens portName at baudRate with the 8N1 framing
// VelocityDRIVE's console UART uses.
func OpenSerial(portName string, baudRate int, logger *logrus.Entry) (*Serial, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: opening serial port %s: %w", portName, err)
	}

	return &Serial{pump: newPump(port, logger), port: port}, nil
}
