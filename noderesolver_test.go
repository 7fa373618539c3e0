// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

// fieldClassBytes builds a one-field class whose ConstantValue points at
// pool index 6, the entry under test.
//
// pool layout:
//
//	1 Utf8 "Foo"      4 Utf8 "I"
//	2 Class -> 1      5 Utf8 "ConstantValue"
//	3 Utf8 "value"    6 <value entry under test>
func fieldClassBytes(valueEntry beBytes, poolCount uint16) []byte {
	pool := beBytes{}.u16(poolCount).
		utf8Const("Foo").
		u8(ConstantClass).u16(1).
		utf8Const("value").
		utf8Const("I").
		utf8Const("ConstantValue").
		raw(valueEntry...)

	return beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(AccPublic).u16(2).u16(0).
		u16(0). // interfaces
		u16(1). // fields
		u16(AccStatic).u16(3).u16(4).
		u16(1).               // one field attribute
		u16(5).u32(2).u16(6). // ConstantValue -> pool[6]
		u16(0).               // methods
		u16(0)                // class attributes
}

func TestFieldConstantValue(t *testing.T) {

	tests := []struct {
		name  string
		entry beBytes
		count uint16
		want  ConstValue
		fails bool
	}{
		{
			name:  "integer",
			entry: beBytes{}.u8(ConstantInteger).u32(42),
			count: 7,
			want:  IntegerValue{Value: 42},
		},
		{
			name:  "long",
			entry: beBytes{}.u8(ConstantLong).u32(0x1).u32(0x2),
			count: 8,
			want:  LongValue{Value: 0x100000002},
		},
		{
			name:  "class is not a value",
			entry: beBytes{}.u8(ConstantClass).u16(1),
			count: 7,
			fails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := fieldClassBytes(tt.entry, tt.count)
			cf, err := readClassFile(BigEndian(data))
			if err != nil {
				t.Fatalf("readClassFile failed, reason: %v", err)
			}
			if err := transformClassFile(cf); err != nil {
				t.Fatalf("transformClassFile failed, reason: %v", err)
			}

			node, err := NodeFromClass(cf)
			if tt.fails {
				if !errors.Is(err, ErrResolveNode) {
					t.Fatalf("NodeFromClass got %v, want ErrResolveNode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NodeFromClass failed, reason: %v", err)
			}
			if node.Fields[0].Value != tt.want {
				t.Errorf("field value got %#v, want %#v",
					node.Fields[0].Value, tt.want)
			}
		})
	}
}

func TestPoolResolutionMemoized(t *testing.T) {
	pool := beBytes{}.u16(3).
		utf8Const("Foo").
		u8(ConstantClass).u16(1)

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(2).u16(0).
		u16(0).u16(0).u16(0).u16(0)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}

	cp := NewConstPool(cf)
	first, err := cp.ReadConst(2)
	if err != nil {
		t.Fatalf("ReadConst failed, reason: %v", err)
	}
	second, err := cp.ReadConst(2)
	if err != nil {
		t.Fatalf("ReadConst failed, reason: %v", err)
	}
	if first != second {
		t.Errorf("memoized reads differ: %#v vs %#v", first, second)
	}
	// dependent Utf8 got cached too
	if cp.cache.Len() != 2 {
		t.Errorf("cache size got %d, want 2", cp.cache.Len())
	}
}

func TestPoolResolutionCachesErrors(t *testing.T) {
	// Class entry pointing at a missing index
	pool := beBytes{}.u16(2).
		u8(ConstantClass).u16(9)

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(1).u16(0).
		u16(0).u16(0).u16(0).u16(0)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}

	cp := NewConstPool(cf)
	_, err1 := cp.ReadConst(1)
	_, err2 := cp.ReadConst(1)
	if err1 == nil || err2 == nil {
		t.Fatal("resolving a dangling class entry should fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("cached error differs: %v vs %v", err1, err2)
	}
}

func TestDuplicateBootstrapMethods(t *testing.T) {
	pool := beBytes{}.u16(4).
		utf8Const("Foo").
		u8(ConstantClass).u16(1).
		utf8Const("BootstrapMethods")

	bsmBody := beBytes{}.u16(0) // zero bootstrap methods

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(2).u16(0).
		u16(0).u16(0).u16(0).
		u16(2).
		u16(3).u32(uint32(len(bsmBody))).raw(bsmBody...).
		u16(3).u32(uint32(len(bsmBody))).raw(bsmBody...)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}
	if err := transformClassFile(cf); err != nil {
		t.Fatalf("transformClassFile failed, reason: %v", err)
	}

	_, err = NodeFromClass(cf)
	if !errors.Is(err, ErrResolveNode) {
		t.Errorf("NodeFromClass got %v, want ErrResolveNode", err)
	}
}

func TestReadCodeFieldAndReturn(t *testing.T) {
	// pool: 1 Utf8 "Foo", 2 Class->1, 3 Utf8 "out", 4 Utf8 "I",
	// 5 NameAndType 3:4, 6 Fieldref 2.5
	pool := beBytes{}.u16(7).
		utf8Const("Foo").
		u8(ConstantClass).u16(1).
		utf8Const("out").
		utf8Const("I").
		u8(ConstantNameAndType).u16(3).u16(4).
		u8(ConstantFieldref).u16(2).u16(5)

	data := beBytes{}.u32(ClassMagic).u16(0).u16(52).
		raw(pool...).
		u16(0).u16(2).u16(0).
		u16(0).u16(0).u16(0).u16(0)

	cf, err := readClassFile(BigEndian(data))
	if err != nil {
		t.Fatalf("readClassFile failed, reason: %v", err)
	}

	cp := NewConstPool(cf)
	code := beBytes{}.
		u8(OpGetstatic).u16(6).
		u8(OpIconst0).
		u8(OpReturn)

	instructions, err := cp.readCode(code)
	if err != nil {
		t.Fatalf("readCode failed, reason: %v", err)
	}
	if len(instructions) != 3 {
		t.Fatalf("instruction count got %d, want 3", len(instructions))
	}

	field, ok := instructions[0].(FieldInsn)
	if !ok {
		t.Fatalf("instructions[0] got %T, want FieldInsn", instructions[0])
	}
	if field.Owner != "Foo" || field.Name != "out" || field.Desc != "I" {
		t.Errorf("field insn got %s.%s:%s", field.Owner, field.Name, field.Desc)
	}
	if insn, ok := instructions[2].(Insn); !ok || insn.Opcode != OpReturn {
		t.Errorf("instructions[2] got %#v, want return", instructions[2])
	}
}

func TestReadCodeSwitchAndWide(t *testing.T) {
	cp := NewConstPool(&ClassFile{ConstantPool: []CPInfo{
		{Tag: ConstantInvalid, Info: InvalidConst{}},
	}})

	// tableswitch at pc 0: 3 pad bytes, default, low 1, high 2, 2 targets
	code := beBytes{}.
		u8(OpTableswitch).raw(0, 0, 0).
		u32(28). // default delta
		u32(1).u32(2).
		u32(24).u32(26).
		u8(OpNop)

	instructions, err := cp.readCode(code)
	if err != nil {
		t.Fatalf("readCode failed, reason: %v", err)
	}
	table, ok := instructions[0].(TableSwitchInsn)
	if !ok {
		t.Fatalf("instructions[0] got %T, want TableSwitchInsn", instructions[0])
	}
	if table.Default != 28 || table.Min != 1 || table.Max != 2 {
		t.Errorf("tableswitch got %+v", table)
	}
	if len(table.Targets) != 2 || table.Targets[0] != 24 {
		t.Errorf("tableswitch targets got %v", table.Targets)
	}

	// wide iinc
	wide := beBytes{}.u8(OpWide).u8(OpIinc).u16(300).u16(0xFFFF)
	instructions, err = cp.readCode(wide)
	if err != nil {
		t.Fatalf("readCode failed, reason: %v", err)
	}
	iinc, ok := instructions[0].(IincInsn)
	if !ok {
		t.Fatalf("instructions[0] got %T, want IincInsn", instructions[0])
	}
	if iinc.Var != 300 || iinc.Incr != -1 {
		t.Errorf("wide iinc got %+v", iinc)
	}
}
