// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mup1coap implements the host-side MUP1 framing, CoAP request/
// response, and event-dispatch core used to talk to a VelocityDRIVE-class
// network device over a serial (or serial-like) byte stream.
package mup1coap

import "time"

// MUP1 framing bytes.
const (
	SOF = 0x3E // '>'
	EOF = 0x3C // '<'
	Esc = 0x5C // '\\'
)

// MUP1 frame type bytes. The 'P' type is dual-use: the host sends it as a
// ping and the device echoes it back as a pong, so there is no separate
// ping type on the wire.
const (
	TypePong     = 'P'
	TypeAnnounce = 'A'
	TypeCoAP     = 'C'
	TypeSystem   = 'S'
	TypeTrace    = 'T'
)

// escapeMap is the byte -> escaped-byte table used for MUP1 byte
// stuffing. Any byte not present here is transmitted literally.
var escapeMap = map[byte]byte{
	0x00: '0',
	0xFF: 'F',
	SOF:  '>',
	EOF:  '<',
	Esc:  '\\',
}

// unescapeMap is the inverse of escapeMap, built once at init.
var unescapeMap = func() map[byte]byte {
	m := make(map[byte]byte, len(escapeMap))
	for k, v := range escapeMap {
		m[v] = k
	}
	return m
}()

// CoAP option numbers used by the core.
const (
	OptionURIPath      = 11
	OptionContentFormat = 12
	OptionURIQuery     = 15
)

// DefaultContentFormat is the content-format byte used for CORECONF/CBOR
// payloads. It is provisional pending IANA assignment; callers that need a
// different value can override it via Codec.ContentFormat.
const DefaultContentFormat = 60 // application/cbor

// CoAP method/code bytes used when building requests.
const (
	CodeGET    = 0x01
	CodePOST   = 0x02
	CodePUT    = 0x03
	CodeDELETE = 0x04
	CodeFETCH  = 0x05
)

// responseReasons maps known CoAP response codes to their textual reason.
// Codes not present here still classify correctly by class; they just
// report a generic reason string. Built from class/detail pairs so the
// table is easy to audit against RFC 7252 §5.9.
var responseReasons = func() map[byte]string {
	m := map[byte]string{
		coapCode(2, 1): "Created",
		coapCode(2, 2): "Deleted",
		coapCode(2, 3): "Valid",
		coapCode(2, 4): "Changed",
		coapCode(2, 5): "Content",
		coapCode(4, 0): "Bad Request",
		coapCode(4, 1): "Unauthorized",
		coapCode(4, 2): "Bad Option",
		coapCode(4, 3): "Forbidden",
		coapCode(4, 4): "Not Found",
		coapCode(4, 5): "Method Not Allowed",
		coapCode(4, 6): "Not Acceptable",
		coapCode(4, 12): "Precondition Failed",
		coapCode(4, 13): "Request Entity Too Large",
		coapCode(4, 15): "Unsupported Content-Format",
		coapCode(5, 0): "Internal Server Error",
		coapCode(5, 1): "Not Implemented",
		coapCode(5, 2): "Bad Gateway",
		coapCode(5, 3): "Service Unavailable",
		coapCode(5, 4): "Gateway Timeout",
		coapCode(5, 5): "Proxying Not Supported",
	}
	return m
}()

// coapCode packs a CoAP class/detail pair into the single-byte wire code.
func coapCode(class, detail byte) byte {
	return class<<5 | detail
}

// responseReason returns the textual reason for a CoAP response code,
// falling back to a generic label for codes outside the known table.
func responseReason(code byte) string {
	if reason, ok := responseReasons[code]; ok {
		return reason
	}
	return "Unknown"
}

// requestTimeout is the fixed per-request deadline for a CoAP exchange.
const requestTimeout = 10 * time.Second

// pingTimeout is the window Ping waits for a pong event.
const pingTimeout = 1 * time.Second
