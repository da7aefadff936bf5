// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import "github.com/sirupsen/logrus"

// Reassembler extracts complete MUP1 frames from an append-only byte
// stream. It tolerates partial reads — call Push with whatever chunk
// size the transport delivers — and resynchronizes past garbage rather
// than stalling on a malformed frame.
type Reassembler struct {
	buf    []byte
	logger *logrus.Entry
}

// NewReassembler creates a Reassembler with an empty buffer.
func NewReassembler(logger *logrus.Entry) *Reassembler {
	if logger == nil {
		logger = defaultLogger
	}
	return &Reassembler{logger: logger}
}

// Reset clears the internal buffer, discarding any partial frame.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
}

// Push appends newly-read bytes and extracts every complete frame now
// available. Bytes belonging to a still-incomplete frame are retained for
// the next call.
func (r *Reassembler) Push(data []byte) []Frame {
	r.buf = append(r.buf, data...)

	var frames []Frame
	for {
		frame, consumed, ok := r.extractOne()
		if !ok {
			break
		}
		r.buf = r.buf[consumed:]
		if frame != nil {
			frames = append(frames, *frame)
		}
	}
	return frames
}

// extractOne attempts to pull one frame out of the front of the buffer.
// It returns ok=false when the buffer holds no complete frame yet (more
// bytes are needed). consumed is always returned even on a dropped
// (malformed) frame so the caller advances past the garbage.
func (r *Reassembler) extractOne() (frame *Frame, consumed int, ok bool) {
	sofIdx := -1
	for i, b := range r.buf {
		if b == SOF {
			sofIdx = i
			break
		}
	}
	if sofIdx == -1 {
		// No SOF at all: nothing in the buffer can become a frame. Keep
		// only a trailing byte that could still be an escape lead-in is
		// not relevant here (escapes only occur inside a frame); discard
		// everything up front of the next call.
		if len(r.buf) > 0 {
			r.buf = r.buf[:0]
		}
		return nil, 0, false
	}
	if sofIdx > 0 {
		// Garbage before the first SOF: drop it and retry against the
		// remaining buffer on the next loop iteration in Push.
		r.buf = r.buf[sofIdx:]
		return nil, 0, true
	}

	// Find the first (unescaped) EOF after the type byte.
	eofIdx := -1
	escapeNext := false
	for i := 2; i < len(r.buf); i++ {
		b := r.buf[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		if b == Esc {
			escapeNext = true
			continue
		}
		if b == EOF {
			eofIdx = i
			break
		}
	}
	if eofIdx == -1 {
		return nil, 0, false // need more bytes
	}

	afterEOF := eofIdx + 1
	if afterEOF < len(r.buf) && r.buf[afterEOF] == EOF {
		afterEOF++
	}
	need := afterEOF + 4
	if len(r.buf) < need {
		return nil, 0, false // need more bytes for the checksum hex
	}

	raw := r.buf[:need]
	decoded, err := DecodeFrame(raw)
	if err != nil {
		r.logger.WithError(err).Debug("mup1coap: dropping malformed frame, resyncing past SOF")
		// Drop this SOF and let the next Push/extractOne loop iteration
		// look past it, rather than stalling on a frame that will never
		// decode.
		return nil, 1, true
	}
	if !decoded.ChecksumOK {
		declared, _ := parseChecksumHex(raw[afterEOF:])
		mismatch := &ChecksumMismatchError{Expected: declared, Computed: oneComplementChecksum(raw[:afterEOF])}
		r.logger.WithError(mismatch).Warn("mup1coap: frame checksum mismatch, dispatching anyway")
	}
	return &decoded, need, true
}
