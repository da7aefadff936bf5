// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import (
	"bytes"
	"testing"
)

func TestCodec_Build_UriPathAndContentFormat(t *testing.T) {
	c := NewCodec()
	data, err := c.Build(CodeFETCH, 0x0001, "c", map[string]interface{}{"d": "a"}, true)
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}

	if len(data) < 4 {
		t.Fatalf("built message too short: % X", data)
	}
	if data[0] != 0x40 {
		t.Errorf("header byte = %#02x, want 0x40", data[0])
	}
	if data[1] != CodeFETCH {
		t.Errorf("code = %#02x, want %#02x", data[1], CodeFETCH)
	}

	// Uri-Path option "c": delta=11 (option 11, prev 0), length=1.
	wantOptionHeader := byte(11<<4 | 1)
	if data[4] != wantOptionHeader {
		t.Errorf("Uri-Path option header = %#02x, want %#02x", data[4], wantOptionHeader)
	}
	if data[5] != 'c' {
		t.Errorf("Uri-Path value = %q, want 'c'", data[5])
	}

	// Content-Format option: delta=1 (option 12, prev 11), length=1, value 60.
	if data[6] != byte(1<<4|1) || data[7] != DefaultContentFormat {
		t.Errorf("Content-Format option = % X, want 11 3C", data[6:8])
	}
}

func TestCodec_BuildParse_RoundTrip(t *testing.T) {
	c := NewCodec()
	data, err := c.Build(CodePOST, 0x1234, "c/node/1", map[string]interface{}{"x": uint64(7)}, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	msg, err := c.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Mid != 0x1234 {
		t.Errorf("Mid = %#04x, want 0x1234", msg.Mid)
	}
	if msg.Code != CodePOST {
		t.Errorf("Code = %#02x, want %#02x", msg.Code, CodePOST)
	}
	if !msg.HasValue {
		t.Fatal("expected decoded CBOR value")
	}
}

func TestCodec_Parse_BodylessRequest(t *testing.T) {
	c := NewCodec()
	data, err := c.Build(CodeGET, 0x0002, "c", nil, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	msg, err := c.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.HasValue {
		t.Error("expected no decoded value for a bodyless request")
	}
}

func TestOptionField_Escaping(t *testing.T) {
	tests := []struct {
		value       int
		wantNibble  int
		wantExtLen  int
	}{
		{0, 0, 0},
		{12, 12, 0},
		{13, 13, 1},
		{268, 13, 1},
		{269, 14, 2},
		{1000, 14, 2},
	}
	for _, tt := range tests {
		nibble, ext := optionField(tt.value)
		if nibble != tt.wantNibble {
			t.Errorf("optionField(%d) nibble = %d, want %d", tt.value, nibble, tt.wantNibble)
		}
		if len(ext) != tt.wantExtLen {
			t.Errorf("optionField(%d) ext len = %d, want %d", tt.value, len(ext), tt.wantExtLen)
		}
	}
}

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		wantErr bool
	}{
		{"2.05 content", coapCode(2, 5), false},
		{"2.01 created", coapCode(2, 1), false},
		{"4.04 not found", coapCode(4, 4), true},
		{"5.00 internal error", coapCode(5, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyResponse(Message{Code: tt.code})
			if (err != nil) != tt.wantErr {
				t.Errorf("ClassifyResponse(code=%#02x) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

// TestCodec_Build_CORECONFHandshake checks the byte layout of a FETCH to
// "c?d=a" with payload [0x7278], the CORECONF reachability probe sent
// during device bring-up. The Uri-Query option is encoded per the
// canonical RFC 7252 nibble form: delta=3, length=3 packed into a single
// byte 0x33.
func TestCodec_Build_CORECONFHandshake(t *testing.T) {
	c := NewCodec()
	data, err := c.Build(CodeFETCH, 0x0000, "c?d=a", []uint16{0x7278}, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []byte{
		0x40, CodeFETCH, 0x00, 0x00, // header, mid=0
		0xB1, 0x63, // Uri-Path: delta=11, length=1, "c"
		0x11, 0x3C, // Content-Format: delta=1, length=1, value=60
		0x33, 'd', '=', 'a', // Uri-Query: delta=3, length=3, "d=a"
		0xFF,                   // payload marker
		0x81, 0x19, 0x72, 0x78, // CBOR [0x7278]
	}
	if !bytes.Equal(data, want) {
		t.Errorf("CORECONF handshake build = % X, want % X", data, want)
	}
}

func TestCodec_Build_MultiSegmentUriQuery(t *testing.T) {
	c := NewCodec()
	data, err := c.Build(CodeGET, 0x0003, "c?d=a&e=b", nil, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Two Uri-Query segments should each appear verbatim in the output.
	if !bytes.Contains(data, []byte("d=a")) || !bytes.Contains(data, []byte("e=b")) {
		t.Errorf("expected both query segments present in % X", data)
	}
}
