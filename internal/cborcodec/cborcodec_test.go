// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cborcodec

import "testing"

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []interface{}{
		map[string]interface{}{"d": "a"},
		[]interface{}{uint64(1), uint64(2), uint64(3)},
		"plain string",
		uint64(42),
	}

	for _, v := range tests {
		data, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%#v): %v", v, err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got == nil {
			t.Fatalf("Decode(%#v) returned nil", v)
		}
	}
}

func TestDecode_InvalidBytes(t *testing.T) {
	if _, err := Decode([]byte{0xFF, 0xFF, 0xFF}); err == nil {
		t.Fatal("expected error decoding invalid CBOR bytes")
	}
}
