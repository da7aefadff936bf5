// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Thermoquad/velocictl/internal/cborcodec"
)

// Message is a decoded CoAP message: the fields the core needs to
// correlate a response to a pending request and hand the caller a value.
type Message struct {
	Code    byte
	Mid     uint16
	Payload []byte // raw payload bytes, whether or not CBOR decode succeeded
	Value   interface{} // decoded CBOR value, set only when HasValue is true
	HasValue bool
}

// Class returns the CoAP response class (2 = success, 4 = client error,
// 5 = server error).
func (m Message) Class() int {
	return int(m.Code >> 5)
}

// Codec builds and parses CoAP messages carried inside MUP1 'C' frames.
// ContentFormat is configurable since the application/cbor byte (60) is
// provisional pending IANA assignment.
type Codec struct {
	ContentFormat byte
}

// NewCodec returns a Codec using the default CORECONF content-format byte.
func NewCodec() *Codec {
	return &Codec{ContentFormat: DefaultContentFormat}
}

// Build encodes a CoAP request message for (method, uri, payload).
// payload may be nil for a bodyless request.
func (c *Codec) Build(method byte, mid uint16, uri string, payload interface{}, hasPayload bool) ([]byte, error) {
	out := make([]byte, 4)
	out[0] = 0x40 // ver=1, type=CON(0), TKL=0
	out[1] = method
	binary.BigEndian.PutUint16(out[2:4], mid)

	path, query, _ := strings.Cut(uri, "?")

	prevOption := 0
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		out = appendOption(out, OptionURIPath, &prevOption, []byte(segment))
	}

	if hasPayload {
		out = appendOption(out, OptionContentFormat, &prevOption, []byte{c.ContentFormat})
	}

	if query != "" {
		for _, segment := range strings.Split(query, "&") {
			if segment == "" {
				continue
			}
			out = appendOption(out, OptionURIQuery, &prevOption, []byte(segment))
		}
	}

	if hasPayload {
		body, err := cborcodec.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("mup1coap: encoding CoAP payload: %w", err)
		}
		out = append(out, 0xFF)
		out = append(out, body...)
	}

	return out, nil
}

// appendOption appends one CoAP TLV option using the canonical RFC 7252
// nibble form. prevOption tracks the running option number so deltas can
// be computed across repeated calls.
func appendOption(out []byte, number int, prevOption *int, value []byte) []byte {
	delta := number - *prevOption
	*prevOption = number

	deltaNibble, deltaExt := optionField(delta)
	lengthNibble, lengthExt := optionField(len(value))

	out = append(out, byte(deltaNibble<<4|lengthNibble))
	out = append(out, deltaExt...)
	out = append(out, lengthExt...)
	out = append(out, value...)
	return out
}

// optionField returns the 4-bit nibble and any extended bytes for a
// delta or length value, per RFC 7252 §3.1's escaping rule: values >= 13
// escape to a one-byte extended field (value-13), values >= 269 escape to
// a two-byte extended field (value-269, big-endian).
func optionField(value int) (nibble int, ext []byte) {
	switch {
	case value < 13:
		return value, nil
	case value < 269:
		return 13, []byte{byte(value - 13)}
	default:
		v := value - 269
		return 14, []byte{byte(v >> 8), byte(v)}
	}
}

// Parse decodes a CoAP message received inside a 'C' frame.
func (c *Codec) Parse(data []byte) (Message, error) {
	if len(data) < 4 {
		return Message{}, fmt.Errorf("%w: message shorter than header", ErrProtocolError)
	}
	if data[0]>>6 != 1 {
		return Message{}, fmt.Errorf("%w: unsupported CoAP version", ErrProtocolError)
	}
	tkl := int(data[0] & 0x0F)
	msg := Message{
		Code: data[1],
		Mid:  binary.BigEndian.Uint16(data[2:4]),
	}

	i := 4 + tkl
	if i > len(data) {
		return msg, fmt.Errorf("%w: token length exceeds message", ErrBadOptions)
	}

	// Walk options to the payload marker or end of buffer. The core does
	// not need option values, only to find where they end. msg carries
	// its Mid from above even on error returns below, so a caller can
	// still match the failure to the request that caused it.
	for i < len(data) {
		if data[i] == 0xFF {
			i++
			break
		}
		deltaNibble := int(data[i] >> 4)
		lengthNibble := int(data[i] & 0x0F)
		i++

		delta, newI, err := readOptionField(data, i, deltaNibble)
		if err != nil {
			return msg, err
		}
		i = newI
		_ = delta

		length, newI, err := readOptionField(data, i, lengthNibble)
		if err != nil {
			return msg, err
		}
		i = newI

		if i+length > len(data) {
			return msg, fmt.Errorf("%w: option value exceeds message", ErrBadOptions)
		}
		i += length
	}

	if i < len(data) {
		raw := data[i:]
		value, err := cborcodec.Decode(raw)
		if err != nil {
			// Caller can still inspect the raw bytes.
			msg.Payload = raw
			return msg, nil
		}
		msg.Value = value
		msg.HasValue = true
		msg.Payload = raw
	}

	return msg, nil
}

// readOptionField decodes one nibble-escaped delta or length field,
// returning the resolved value and the index just past it.
func readOptionField(data []byte, i int, nibble int) (value int, next int, err error) {
	switch {
	case nibble < 13:
		return nibble, i, nil
	case nibble == 13:
		if i >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated extended option field", ErrBadOptions)
		}
		return int(data[i]) + 13, i + 1, nil
	case nibble == 14:
		if i+1 >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated extended option field", ErrBadOptions)
		}
		return int(binary.BigEndian.Uint16(data[i:i+2])) + 269, i + 2, nil
	default:
		return 0, 0, fmt.Errorf("%w: reserved option field nibble 15", ErrBadOptions)
	}
}

// ClassifyResponse turns a decoded Message's code into either nil (2.xx
// success) or a typed error.
func ClassifyResponse(msg Message) error {
	switch msg.Class() {
	case 2:
		return nil
	case 4, 5:
		return &ResponseError{Code: msg.Code, Reason: responseReason(msg.Code), Payload: msg.Payload}
	default:
		return fmt.Errorf("%w: unexpected response class %d", ErrProtocolError, msg.Class())
	}
}
