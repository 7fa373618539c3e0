// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

func TestReadContextEndianness(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78}

	be := BigEndian(data)
	if v, _ := be.U16(); v != 0x1234 {
		t.Errorf("big endian U16 got %#x, want 0x1234", v)
	}
	if v, _ := be.U16(); v != 0x5678 {
		t.Errorf("big endian U16 got %#x, want 0x5678", v)
	}

	le := LittleEndian(data)
	if v, _ := le.U32(); v != 0x78563412 {
		t.Errorf("little endian U32 got %#x, want 0x78563412", v)
	}
}

func TestReadContextU64(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if v, _ := BigEndian(data).U64(); v != 0x0102030405060708 {
		t.Errorf("big endian U64 got %#x", v)
	}
	if v, _ := LittleEndian(data).U64(); v != 0x0807060504030201 {
		t.Errorf("little endian U64 got %#x", v)
	}
}

func TestReadContextAlign(t *testing.T) {

	tests := []struct {
		start int
		align int
		want  int
	}{
		{0, 4, 0},
		{1, 4, 4},
		{3, 4, 4},
		{4, 4, 4},
		{5, 2, 6},
		{7, 0, 7},
	}

	for _, tt := range tests {
		rc := LittleEndian(make([]byte, 16))
		rc.Seek(tt.start)
		rc.Align(tt.align)
		if rc.Index() != tt.want {
			t.Errorf("Align(%d) from %d got %d, want %d",
				tt.align, tt.start, rc.Index(), tt.want)
		}
	}
}

func TestReadContextOutOfRange(t *testing.T) {
	rc := BigEndian([]byte{0x01})
	if _, err := rc.U16(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("U16 past the end got %v, want ErrOutOfRange", err)
	}
	if _, err := rc.ByteAt(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ByteAt(5) got %v, want ErrOutOfRange", err)
	}

	// fail-fast: the cursor did not move past the end
	if _, err := rc.U8(); err != nil {
		t.Errorf("U8 after failed U16 got %v", err)
	}
}

func TestReadContextByteAt(t *testing.T) {
	rc := LittleEndian([]byte{0xAA, 0xBB, 0xCC})
	v, err := rc.ByteAt(2)
	if err != nil || v != 0xCC {
		t.Errorf("ByteAt(2) got (%#x, %v), want 0xcc", v, err)
	}
	if rc.Index() != 0 {
		t.Errorf("ByteAt moved the cursor to %d", rc.Index())
	}
}
