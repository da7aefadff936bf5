// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cborcodec is the opaque CBOR encode/decode pair the core treats
// as an external collaborator: CORECONF carries YANG data as CBOR over
// CoAP, but the core never interprets the schema, only passes values
// through.
package cborcodec

import "github.com/fxamacker/cbor/v2"

// decMode decodes into the idiomatic Go types (map[interface{}]interface{}
// for CBOR maps, int64/uint64 for integers) that the rest of the core and
// the device-management facade already expect.
var decMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err) // options above are static and known-valid
	}
	return mode
}()

// Encode serializes a Go value to CBOR.
func Encode(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

// Decode deserializes CBOR bytes into a generic Go value.
func Decode(data []byte) (interface{}, error) {
	var v interface{}
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
