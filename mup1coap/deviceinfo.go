// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"fmt"
	"strings"
)

// DeviceInfo is the parsed form of an 'A' (announcement) frame payload:
// "VelocitySP-v<firmware>-<model>-<serial> n1 n2 n3".
type DeviceInfo struct {
	DeviceType      string
	FirmwareVersion string
	SerialNumber    string
	Raw             string
}

// ParseDeviceInfo parses a raw announcement payload: "VelocitySP-v<fw>-
// <model>-<serial> n1 n2 n3". If the first token isn't a VelocitySP
// announcement with at least four dash components, DeviceType is the
// entire first token and the other fields are "Unknown"; this is a
// fallback, not an error, so an unrecognized announcement is still
// delivered to subscribers.
func ParseDeviceInfo(payload []byte) (DeviceInfo, error) {
	raw := string(payload)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return DeviceInfo{}, fmt.Errorf("%w: empty announcement", ErrProtocolError)
	}

	first := fields[0]
	parts := strings.Split(first, "-")
	if parts[0] != "VelocitySP" || len(parts) < 4 {
		return DeviceInfo{
			DeviceType:      first,
			FirmwareVersion: "Unknown",
			SerialNumber:    "Unknown",
			Raw:             raw,
		}, nil
	}

	return DeviceInfo{
		DeviceType:      parts[2],
		FirmwareVersion: strings.TrimPrefix(parts[1], "v"),
		SerialNumber:    parts[3],
		Raw:             raw,
	}, nil
}

// portCounts maps a case-insensitive substring of DeviceType to its known
// port count. Unrecognized device types default to 2 ports, the smallest
// VelocityDRIVE-class board.
var portCounts = []struct {
	substr string
	ports  int
}{
	{"9662", 2},
	{"9668", 8},
	{"9692", 12},
}

// PortCount returns the number of switch ports for this device, derived
// from its device-type string.
func (d DeviceInfo) PortCount() int {
	upper := strings.ToUpper(d.DeviceType)
	for _, pc := range portCounts {
		if strings.Contains(upper, pc.substr) {
			return pc.ports
		}
	}
	return 2
}
