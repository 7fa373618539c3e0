// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"hash/adler32"
	"testing"
)

// buildClassDex assembles a DEX file with one class carrying one static
// field and one direct method with a return-void body.
func buildClassDex(t *testing.T) []byte {
	t.Helper()

	strings := []string{"I", "LFoo;", "Ljava/lang/Object;", "V", "bar"}

	dataOff := uint32(DexHeaderSize) +
		5*4 + // string ids
		4*4 + // type ids
		3*4 + // proto ids
		2*4 + // field ids
		2*4 + // method ids
		8*4 // class defs

	// data section; all recorded offsets are absolute
	data := leBytes{}
	stringOffsets := make([]uint32, len(strings))
	for i, s := range strings {
		stringOffsets[i] = dataOff + uint32(len(data))
		data = data.u8(uint8(len(s))).raw([]byte(s)...).u8(0)
	}

	for len(data)%4 != 0 {
		data = data.u8(0)
	}
	codeOff := dataOff + uint32(len(data))
	data = data.
		u16(1).u16(0).u16(0). // registers, ins, outs
		u16(0).               // tries
		u32(0).               // debug info
		u32(1).               // one unit
		u16(0x000E).          // return-void
		u8(0)                 // empty handler list

	classDataOff := dataOff + uint32(len(data))
	data = data.
		u8(1).u8(0).u8(1).u8(0). // counts
		u8(0).u8(AccStatic).     // static field 0
		u8(0).u8(AccPublic).raw(uleb128(codeOff)...) // direct method 0

	tables := leBytes{}
	for _, off := range stringOffsets {
		tables = tables.u32(off)
	}
	// type ids: I, LFoo;, Ljava/lang/Object;, V
	tables = tables.u32(0).u32(1).u32(2).u32(3)
	// proto id 0: shorty V, returns V, no parameters
	tables = tables.u32(3).u32(3).u32(0)
	// field id 0: LFoo;.bar:I
	tables = tables.u16(1).u16(0).u32(4)
	// method id 0: LFoo;.bar()V
	tables = tables.u16(1).u16(0).u32(4)
	// class def
	tables = tables.
		u32(1).            // class LFoo;
		u32(AccPublic).    // access
		u32(2).            // super Ljava/lang/Object;
		u32(0).            // interfaces
		u32(NoIndex).      // source file
		u32(0).            // annotations
		u32(classDataOff). // class data
		u32(0)             // static values

	fileSize := dataOff + uint32(len(data))
	out := leBytes{}.
		raw([]byte("dex\n039\x00")...).
		u32(0).
		raw(make([]byte, 20)...).
		u32(fileSize).
		u32(DexHeaderSize).
		u32(DexLittleEndianTag).
		u32(0).u32(0).
		u32(0).
		u32(5).u32(DexHeaderSize).
		u32(4).u32(DexHeaderSize + 5*4).
		u32(1).u32(DexHeaderSize + 5*4 + 4*4).
		u32(1).u32(DexHeaderSize + 5*4 + 4*4 + 3*4).
		u32(1).u32(DexHeaderSize + 5*4 + 4*4 + 3*4 + 2*4).
		u32(1).u32(DexHeaderSize + 5*4 + 4*4 + 3*4 + 2*4 + 2*4).
		u32(uint32(len(data))).u32(dataOff)
	out = append(out, tables...)
	out = append(out, data...)

	digest := sha1.Sum(out[32:])
	copy(out[12:32], digest[:])
	binary.LittleEndian.PutUint32(out[8:12], adler32.Checksum(out[12:]))
	return out
}

// uleb128 encodes a value for test fixtures.
func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := uint8(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func TestGetClassElement(t *testing.T) {
	file, err := NewBytes(buildClassDex(t), nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	dex := file.Dex
	if len(dex.ClassDefs) != 1 {
		t.Fatalf("class defs got %d, want 1", len(dex.ClassDefs))
	}

	element, err := dex.GetClassElementAt(0)
	if err != nil {
		t.Fatalf("GetClassElementAt failed, reason: %v", err)
	}
	again, err := dex.GetClassElementAt(0)
	if err != nil {
		t.Fatalf("GetClassElementAt failed, reason: %v", err)
	}
	if element != again {
		t.Error("repeated class element fetches should share one instance")
	}
	if _, err := dex.GetClassElementAt(1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("GetClassElementAt(1) got %v, want ErrOutOfRange", err)
	}
	if element.Descriptor != "LFoo;" {
		t.Errorf("descriptor got %q, want LFoo;", element.Descriptor)
	}
	if element.SuperDescriptor != "Ljava/lang/Object;" {
		t.Errorf("super got %q", element.SuperDescriptor)
	}
	if element.SourceFile != "" {
		t.Errorf("source file got %q, want empty", element.SourceFile)
	}

	if len(element.StaticFields) != 1 {
		t.Fatalf("static fields got %d, want 1", len(element.StaticFields))
	}
	field := element.StaticFields[0]
	if field.Name != "bar" || field.Descriptor != "I" {
		t.Errorf("field got %+v", field)
	}

	if len(element.DirectMethods) != 1 {
		t.Fatalf("direct methods got %d, want 1", len(element.DirectMethods))
	}
	method := element.DirectMethods[0]
	if method.Name != "bar" || method.ReturnType != "V" {
		t.Errorf("method got %+v", method)
	}
	if method.CodeOff == 0 {
		t.Fatal("method code offset is zero")
	}

	code, err := dex.GetCodeItem(method.CodeOff)
	if err != nil {
		t.Fatalf("GetCodeItem failed, reason: %v", err)
	}
	if len(code.Insns.Insns) != 1 {
		t.Fatalf("insns got %d, want 1", len(code.Insns.Insns))
	}
	returnVoid, ok := code.Insns.Insns[0].(F10x)
	if !ok || returnVoid.Opcode != 0x0E {
		t.Errorf("insn got %#v, want return-void", code.Insns.Insns[0])
	}
}
