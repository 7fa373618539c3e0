// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

func TestSniffKind(t *testing.T) {

	tests := []struct {
		name string
		in   []byte
		out  FileKind
	}{
		{"class", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00}, KindClass},
		{"dex", []byte("dex\n039\x00"), KindDex},
		{"empty", nil, KindUnknown},
		{"garbage", []byte{0x4D, 0x5A, 0x90, 0x00}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := NewBytes(tt.in, nil)
			if err != nil {
				t.Fatalf("NewBytes failed, reason: %v", err)
			}
			if got := file.SniffKind(); got != tt.out {
				t.Errorf("SniffKind got %v, want %v", got, tt.out)
			}
		})
	}
}

func TestParseUnknownKind(t *testing.T) {
	file, err := NewBytes([]byte{0x4D, 0x5A}, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.Parse(); !errors.Is(err, ErrUnknownFileKind) {
		t.Errorf("Parse got %v, want ErrUnknownFileKind", err)
	}
}

func TestNodeBeforeParse(t *testing.T) {
	file, err := NewBytes(nil, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if _, err := file.Node(); !errors.Is(err, ErrResolveNode) {
		t.Errorf("Node got %v, want ErrResolveNode", err)
	}
}

func TestParseAndResolveClass(t *testing.T) {
	// pool: 1 Utf8 "Foo", 2 Class -> 1, 3 Utf8 "java/lang/Object",
	// 4 Class -> 3
	pool := beBytes{}.u16(5).
		utf8Const("Foo").
		u8(ConstantClass).u16(1).
		utf8Const("java/lang/Object").
		u8(ConstantClass).u16(3)

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(AccPublic | AccSuper).u16(2).u16(4).
		u16(0).u16(0).u16(0).u16(0)

	file, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}
	if file.Kind != KindClass {
		t.Fatalf("kind got %v, want Class", file.Kind)
	}

	node, err := file.Node()
	if err != nil {
		t.Fatalf("Node failed, reason: %v", err)
	}
	if node.Name != "Foo" {
		t.Errorf("name got %q, want Foo", node.Name)
	}
	if node.SuperName != "java/lang/Object" {
		t.Errorf("super got %q, want java/lang/Object", node.SuperName)
	}
	if node.Access != AccPublic|AccSuper {
		t.Errorf("access got %#x", node.Access)
	}
}
