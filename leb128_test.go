// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

func TestULEB128(t *testing.T) {

	tests := []struct {
		in   []byte
		out  uint32
		size int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x01}, 1, 1},
		{[]byte{0x7F}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xE5, 0x8E, 0x26}, 624485, 3},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 0xFFFFFFFF, 5},
	}

	for _, tt := range tests {
		rc := LittleEndian(tt.in)
		got, err := rc.ULEB128()
		if err != nil {
			t.Fatalf("ULEB128(%x) failed, reason: %v", tt.in, err)
		}
		if got != tt.out {
			t.Errorf("ULEB128(%x) got %d, want %d", tt.in, got, tt.out)
		}
		if rc.Index() != tt.size {
			t.Errorf("ULEB128(%x) consumed %d bytes, want %d",
				tt.in, rc.Index(), tt.size)
		}
	}
}

func TestULEB128TooLong(t *testing.T) {
	// a sixth continuation byte is not a 32-bit value anymore
	rc := LittleEndian([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := rc.ULEB128()
	if !errors.Is(err, ErrInvalidLEB128) {
		t.Errorf("ULEB128 got %v, want ErrInvalidLEB128", err)
	}
}

func TestSLEB128(t *testing.T) {

	tests := []struct {
		in  []byte
		out int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7F}, -1},
		{[]byte{0x80, 0x7F}, -128},
		{[]byte{0x3F}, 63},
		{[]byte{0x40}, -64},
	}

	for _, tt := range tests {
		rc := LittleEndian(tt.in)
		got, err := rc.SLEB128()
		if err != nil {
			t.Fatalf("SLEB128(%x) failed, reason: %v", tt.in, err)
		}
		if got != tt.out {
			t.Errorf("SLEB128(%x) got %d, want %d", tt.in, got, tt.out)
		}
	}
}

func TestULEB128P1(t *testing.T) {

	tests := []struct {
		in    []byte
		value uint32
		ok    bool
	}{
		{[]byte{0x00}, 0, false},
		{[]byte{0x01}, 0, true},
		{[]byte{0x0A}, 9, true},
	}

	for _, tt := range tests {
		rc := LittleEndian(tt.in)
		value, ok, err := rc.ULEB128P1()
		if err != nil {
			t.Fatalf("ULEB128P1(%x) failed, reason: %v", tt.in, err)
		}
		if ok != tt.ok || value != tt.value {
			t.Errorf("ULEB128P1(%x) got (%d, %v), want (%d, %v)",
				tt.in, value, ok, tt.value, tt.ok)
		}
	}
}
