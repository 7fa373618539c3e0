// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

// beBytes builds a big-endian byte sequence from mixed-width fields for
// synthetic class files.
type beBytes []byte

func (b beBytes) u8(v uint8) beBytes {
	return append(b, v)
}

func (b beBytes) u16(v uint16) beBytes {
	return append(b, byte(v>>8), byte(v))
}

func (b beBytes) u32(v uint32) beBytes {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (b beBytes) raw(data ...byte) beBytes {
	return append(b, data...)
}

func (b beBytes) utf8Const(s string) beBytes {
	b = b.u8(ConstantUtf8)
	b = b.u16(uint16(len(s)))
	return append(b, s...)
}

func TestParseClassMinimal(t *testing.T) {
	data := []byte{
		0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x34,
		0x00, 0x01, 0x00, 0x21, 0x00, 0x02, 0x00, 0x03,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	file, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.ParseClass(); err != nil {
		t.Fatalf("ParseClass failed, reason: %v", err)
	}

	cf := file.Class
	if cf.MajorVersion != 52 {
		t.Errorf("major version got %d, want 52", cf.MajorVersion)
	}
	if cf.AccessFlags != 0x0021 {
		t.Errorf("access flags got %#x, want 0x0021", cf.AccessFlags)
	}
	if cf.ThisClass != 2 || cf.SuperClass != 3 {
		t.Errorf("this/super got %d/%d, want 2/3", cf.ThisClass, cf.SuperClass)
	}
	if len(cf.ConstantPool) != 1 {
		t.Errorf("pool length got %d, want 1", len(cf.ConstantPool))
	}
}

func TestConstantPoolLongSkip(t *testing.T) {
	// count 4: a Long at index 1 burns two slots, a Utf8 lands at index 3
	pool := beBytes{}.u16(4).
		u8(ConstantLong).u32(0x12345678).u32(0x9ABCDEF0).
		utf8Const("hi")

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(0).u16(0). // access, this, super
		u16(0).u16(0).u16(0).u16(0)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}
	if len(cf.ConstantPool) < 4 {
		t.Fatalf("pool length got %d, want >= 4", len(cf.ConstantPool))
	}
	if _, ok := cf.ConstantPool[1].Info.(LongConst); !ok {
		t.Errorf("pool[1] got %T, want LongConst", cf.ConstantPool[1].Info)
	}
	if _, ok := cf.ConstantPool[2].Info.(InvalidConst); !ok {
		t.Errorf("pool[2] got %T, want InvalidConst", cf.ConstantPool[2].Info)
	}
	utf8, ok := cf.ConstantPool[3].Info.(UTF8Const)
	if !ok {
		t.Fatalf("pool[3] got %T, want UTF8Const", cf.ConstantPool[3].Info)
	}
	if string(utf8.Bytes) != "hi" {
		t.Errorf("pool[3] got %q, want hi", utf8.Bytes)
	}
}

func TestUnknownPoolTag(t *testing.T) {
	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		u16(2).u8(99) // tag 99 does not exist

	_, err := readClassFile(BigEndian(data))
	if !errors.Is(err, ErrIllegalFormat) {
		t.Errorf("readClassFile got %v, want ErrIllegalFormat", err)
	}
}

func TestInvalidClassMagic(t *testing.T) {
	data := beBytes{}.u32(0xDEADBEEF)
	_, err := readClassFile(BigEndian(data))
	if !errors.Is(err, ErrInvalidClassMagic) {
		t.Errorf("readClassFile got %v, want ErrInvalidClassMagic", err)
	}
}

func TestTransformSourceFileAttr(t *testing.T) {
	// pool: 1 Utf8 "SourceFile", 2 Utf8 "Foo.java", 3 Class -> 4,
	// 4 Utf8 "Foo"
	pool := beBytes{}.u16(5).
		utf8Const("SourceFile").
		utf8Const("Foo.java").
		u8(ConstantClass).u16(4).
		utf8Const("Foo")

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(AccPublic).u16(3).u16(0).
		u16(0). // interfaces
		u16(0). // fields
		u16(0). // methods
		u16(1). // attributes
		u16(1).u32(2).u16(2)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}
	if err := transformClassFile(cf); err != nil {
		t.Fatalf("transformClassFile failed, reason: %v", err)
	}

	attr, ok := cf.Attributes[0].Info.(*SourceFileAttr)
	if !ok {
		t.Fatalf("attribute got %T, want *SourceFileAttr", cf.Attributes[0].Info)
	}
	if attr.SourceFileIndex != 2 {
		t.Errorf("source file index got %d, want 2", attr.SourceFileIndex)
	}
}

func TestTransformKeepsUnknownAttr(t *testing.T) {
	pool := beBytes{}.u16(2).
		utf8Const("MysteryAttribute")

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(0).u16(0).
		u16(0).u16(0).u16(0).
		u16(1).
		u16(1).u32(3).raw(0xAA, 0xBB, 0xCC)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}
	if err := transformClassFile(cf); err != nil {
		t.Fatalf("transformClassFile failed, reason: %v", err)
	}

	custom, ok := cf.Attributes[0].Info.(*CustomAttr)
	if !ok {
		t.Fatalf("attribute got %T, want *CustomAttr", cf.Attributes[0].Info)
	}
	if len(custom.Data) != 3 {
		t.Errorf("custom data length got %d, want 3", len(custom.Data))
	}
}

func TestReadStackMapFrame(t *testing.T) {

	tests := []struct {
		name string
		in   beBytes
		kind StackMapFrameKind
	}{
		{"same", beBytes{}.u8(12), SameFrame},
		{"same_locals_1", beBytes{}.u8(64).u8(ItemInteger), SameLocals1StackItem},
		{"same_locals_1_ext", beBytes{}.u8(247).u16(10).u8(ItemFloat),
			SameLocals1StackItemExtended},
		{"chop", beBytes{}.u8(249).u16(7), ChopFrame},
		{"same_ext", beBytes{}.u8(251).u16(3), SameFrameExtended},
		{"append", beBytes{}.u8(253).u16(5).u8(ItemLong).u8(ItemTop), AppendFrame},
		{"full", beBytes{}.u8(255).u16(9).
			u16(1).u8(ItemObject).u16(2).
			u16(1).u8(ItemUninitialized).u16(4), FullFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := readStackMapFrame(BigEndian(tt.in))
			if err != nil {
				t.Fatalf("readStackMapFrame failed, reason: %v", err)
			}
			if frame.Kind != tt.kind {
				t.Errorf("kind got %d, want %d", frame.Kind, tt.kind)
			}
		})
	}
}

func TestReadStackMapFrameUnknown(t *testing.T) {
	_, err := readStackMapFrame(BigEndian(beBytes{}.u8(200)))
	if !errors.Is(err, ErrIllegalFormat) {
		t.Errorf("frame type 200 got %v, want ErrIllegalFormat", err)
	}
}

func TestAppendFrameLocalsCount(t *testing.T) {
	frame, err := readStackMapFrame(BigEndian(
		beBytes{}.u8(254).u16(0).u8(ItemInteger).u8(ItemFloat).u8(ItemNull)))
	if err != nil {
		t.Fatalf("readStackMapFrame failed, reason: %v", err)
	}
	if len(frame.Locals) != 3 {
		t.Errorf("append frame locals got %d, want 3", len(frame.Locals))
	}
}
