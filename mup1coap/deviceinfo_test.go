// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDeviceInfo(t *testing.T) {
	info, err := ParseDeviceInfo([]byte("VelocitySP-v1.2.3-LAN9662-SN00001234 1 2 3"))
	if err != nil {
		t.Fatalf("ParseDeviceInfo: %v", err)
	}
	want := DeviceInfo{
		DeviceType:      "LAN9662",
		FirmwareVersion: "1.2.3",
		SerialNumber:    "SN00001234",
		Raw:             "VelocitySP-v1.2.3-LAN9662-SN00001234 1 2 3",
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("ParseDeviceInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDeviceInfo_ExtraDashComponentsIgnored(t *testing.T) {
	// Only components[1..3] are interpreted; a model string containing
	// extra dashes does not get joined back together.
	info, err := ParseDeviceInfo([]byte("VelocitySP-v2.0-LAN-9668-EVB-SN99 0 0 0"))
	if err != nil {
		t.Fatalf("ParseDeviceInfo: %v", err)
	}
	if info.DeviceType != "LAN" {
		t.Errorf("DeviceType = %q, want %q", info.DeviceType, "LAN")
	}
	if info.SerialNumber != "9668" {
		t.Errorf("SerialNumber = %q, want %q", info.SerialNumber, "9668")
	}
}

func TestParseDeviceInfo_UnrecognizedFallsBackRatherThanErrors(t *testing.T) {
	tests := []struct {
		payload    string
		deviceType string
	}{
		{"garbage", "garbage"},
		{"VelocitySP-onlytwo", "VelocitySP-onlytwo"},
	}
	for _, tc := range tests {
		info, err := ParseDeviceInfo([]byte(tc.payload))
		if err != nil {
			t.Fatalf("ParseDeviceInfo(%q): %v", tc.payload, err)
		}
		if info.DeviceType != tc.deviceType {
			t.Errorf("ParseDeviceInfo(%q).DeviceType = %q, want %q", tc.payload, info.DeviceType, tc.deviceType)
		}
		if info.FirmwareVersion != "Unknown" || info.SerialNumber != "Unknown" {
			t.Errorf("ParseDeviceInfo(%q) = %+v, want Unknown/Unknown", tc.payload, info)
		}
	}
}

func TestParseDeviceInfo_EmptyPayloadErrors(t *testing.T) {
	if _, err := ParseDeviceInfo([]byte("")); err == nil {
		t.Error("ParseDeviceInfo(\"\"): expected error, got nil")
	}
}

func TestDeviceInfo_PortCount(t *testing.T) {
	tests := []struct {
		deviceType string
		want       int
	}{
		{"LAN9662", 2},
		{"LAN9668", 8},
		{"LAN9692-VAO", 12},
		{"unknown-board", 2},
	}
	for _, tt := range tests {
		info := DeviceInfo{DeviceType: tt.deviceType}
		if got := info.PortCount(); got != tt.want {
			t.Errorf("PortCount(%q) = %d, want %d", tt.deviceType, got, tt.want)
		}
	}
}
