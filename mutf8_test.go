// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"bytes"
	"errors"
	"testing"
)

func TestMUTF8ToUTF8(t *testing.T) {

	tests := []struct {
		in  []byte
		out []byte
	}{
		// embedded NUL uses the two-byte form
		{[]byte{0xC0, 0x80}, []byte{0x00}},
		// plain ASCII is unchanged
		{[]byte("hello"), []byte("hello")},
		// two and three byte sequences are unchanged
		{[]byte("héllo"), []byte("héllo")},
		{[]byte("日本語"), []byte("日本語")},
		// U+10000 is a six byte surrogate pair
		{[]byte{0xED, 0xA0, 0x80, 0xED, 0xB0, 0x80},
			[]byte{0xF0, 0x90, 0x80, 0x80}},
		// U+10437
		{[]byte{0xED, 0xA0, 0x81, 0xED, 0xB0, 0xB7},
			[]byte{0xF0, 0x90, 0x90, 0xB7}},
	}

	for _, tt := range tests {
		t.Run(string(tt.out), func(t *testing.T) {
			got, err := MUTF8ToUTF8(tt.in)
			if err != nil {
				t.Fatalf("MUTF8ToUTF8(%x) failed, reason: %v", tt.in, err)
			}
			if !bytes.Equal(got, tt.out) {
				t.Errorf("MUTF8ToUTF8(%x) got %x, want %x", tt.in, got, tt.out)
			}

			back, err := UTF8ToMUTF8(got)
			if err != nil {
				t.Fatalf("UTF8ToMUTF8(%x) failed, reason: %v", got, err)
			}
			if !bytes.Equal(back, tt.in) {
				t.Errorf("UTF8ToMUTF8(%x) got %x, want %x", got, back, tt.in)
			}
		})
	}
}

func TestUTF8RoundTrip(t *testing.T) {

	tests := []string{
		"",
		"x",
		"\x00",
		"a\x00b",
		"𐀀",
		"mixed 日本語 and 𐐷 text",
	}

	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			mutf8, err := EncodeMUTF8(tt)
			if err != nil {
				t.Fatalf("EncodeMUTF8(%q) failed, reason: %v", tt, err)
			}
			got, err := DecodeMUTF8(mutf8)
			if err != nil {
				t.Fatalf("DecodeMUTF8(%x) failed, reason: %v", mutf8, err)
			}
			if got != tt {
				t.Errorf("round trip of %q got %q", tt, got)
			}
		})
	}
}

func TestMUTF8NullEncoding(t *testing.T) {
	encoded, err := EncodeMUTF8("\x00")
	if err != nil {
		t.Fatalf("EncodeMUTF8 failed, reason: %v", err)
	}
	if !bytes.Equal(encoded, []byte{0xC0, 0x80}) {
		t.Errorf("EncodeMUTF8(\"\\x00\") got %x, want c080", encoded)
	}
}

func TestMUTF8Invalid(t *testing.T) {

	tests := [][]byte{
		{0xFF},
		{0xC0},
		{0xED, 0xA0},
	}

	for _, tt := range tests {
		_, err := MUTF8ToUTF8(tt)
		if !errors.Is(err, ErrReadMUTF8) {
			t.Errorf("MUTF8ToUTF8(%x) got %v, want ErrReadMUTF8", tt, err)
		}
	}
}
