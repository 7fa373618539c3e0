// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"reflect"
	"testing"
)

func TestReadDexInsnMove(t *testing.T) {
	// move v2, v3
	rc := LittleEndian([]byte{0x01, 0x32})
	insn, err := readDexInsn(rc)
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	want := MoveInsn{Opcode: 0x01, VA: 2, VB: 3}
	if insn != DexInsn(want) {
		t.Errorf("move got %#v, want %#v", insn, want)
	}
	if rc.Index() != 2 {
		t.Errorf("cursor advanced %d bytes, want 2", rc.Index())
	}
}

func TestReadDexInsnConst4(t *testing.T) {
	// const/4 v1, -1: the high nibble sign-extends
	rc := LittleEndian([]byte{0x12, 0xF1})
	insn, err := readDexInsn(rc)
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	want := Const4Insn{Opcode: 0x12, VA: 1, LiteralB: -1}
	if insn != DexInsn(want) {
		t.Errorf("const/4 got %#v, want %#v", insn, want)
	}
}

func TestReadDexInsnPackedSwitchPayload(t *testing.T) {
	data := []byte{
		0x00, 0x01, // payload opcode, packed-switch ident
		0x02, 0x00, // size 2
		0x05, 0x00, 0x00, 0x00, // first key 5
		0x0A, 0x00, 0x00, 0x00, // target 10
		0x14, 0x00, 0x00, 0x00, // target 20
	}
	rc := LittleEndian(data)
	insn, err := readDexInsn(rc)
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	payload, ok := insn.(*PackedSwitchPayload)
	if !ok {
		t.Fatalf("payload got %T, want *PackedSwitchPayload", insn)
	}
	if payload.Size != 2 || payload.FirstKey != 5 {
		t.Errorf("payload header got %+v", payload)
	}
	if !reflect.DeepEqual(payload.Targets, []uint32{10, 20}) {
		t.Errorf("targets got %v, want [10 20]", payload.Targets)
	}
	if rc.Index() != len(data) {
		t.Errorf("cursor advanced %d bytes, want %d", rc.Index(), len(data))
	}
}

func TestReadDexInsnSparseSwitchPayload(t *testing.T) {
	data := []byte{
		0x00, 0x02,
		0x01, 0x00, // size 1
		0x07, 0x00, 0x00, 0x00, // key 7
		0x0C, 0x00, 0x00, 0x00, // target 12
	}
	insn, err := readDexInsn(LittleEndian(data))
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	payload, ok := insn.(*SparseSwitchPayload)
	if !ok {
		t.Fatalf("payload got %T, want *SparseSwitchPayload", insn)
	}
	if payload.Keys[0] != 7 || payload.Targets[0] != 12 {
		t.Errorf("payload got %+v", payload)
	}
}

func TestReadDexInsnFillArrayDataPayload(t *testing.T) {
	data := []byte{
		0x00, 0x03,
		0x01, 0x00, // element width 1
		0x04, 0x00, 0x00, 0x00, // size 4
		0xDE, 0xAD, 0xBE, 0xEF,
	}
	insn, err := readDexInsn(LittleEndian(data))
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	payload, ok := insn.(*FillArrayDataPayload)
	if !ok {
		t.Fatalf("payload got %T, want *FillArrayDataPayload", insn)
	}
	if payload.ElementWidth != 1 || payload.Size != 4 {
		t.Errorf("payload header got %+v", payload)
	}
	if !reflect.DeepEqual(payload.Data, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("payload data got %x", payload.Data)
	}
}

func TestReadDexInsnUnknownPayload(t *testing.T) {
	_, err := readDexInsn(LittleEndian([]byte{0x00, 0x04}))
	if !errors.Is(err, ErrUnknownDexPayload) {
		t.Errorf("payload 0x04 got %v, want ErrUnknownDexPayload", err)
	}
}

func TestReadDexInsnInvoke(t *testing.T) {
	// invoke-virtual {v0, v1, v2}, method@8
	data := []byte{
		0x6E, 0x30, // A=3, G=0
		0x08, 0x00, // method index 8
		0x10, 0x02, // F|E|D|C nibbles: C=0, D=1, E=2, F=0
	}
	insn, err := readDexInsn(LittleEndian(data))
	if err != nil {
		t.Fatalf("readDexInsn failed, reason: %v", err)
	}
	invoke, ok := insn.(F35c)
	if !ok {
		t.Fatalf("invoke got %T, want F35c", insn)
	}
	if invoke.VA != 3 || invoke.ConstB != 8 {
		t.Errorf("invoke got %+v", invoke)
	}
	if invoke.VC != 0 || invoke.VD != 1 || invoke.VE != 2 {
		t.Errorf("invoke registers got %+v", invoke)
	}
}

// dexInsnUnits is the unit width of every defined opcode.
func dexInsnUnits(op uint8) int {
	switch {
	case op == 0x18:
		return 5
	case op == 0xfa, op == 0xfb:
		return 4
	case op == 0x03, op == 0x06, op == 0x09,
		op == 0x14, op == 0x17, op == 0x1b,
		op == 0x24, op == 0x25, op == 0x26,
		op == 0x2a, op == 0x2b, op == 0x2c,
		op >= 0x6e && op <= 0x72, op >= 0x74 && op <= 0x78,
		op == 0xfc, op == 0xfd:
		return 3
	case op == 0x02, op == 0x05, op == 0x08,
		op == 0x13, op == 0x15, op == 0x16, op == 0x19,
		op == 0x1a, op == 0x1c, op == 0x1f,
		op == 0x20, op == 0x22, op == 0x23, op == 0x29,
		op >= 0x2d && op <= 0x3d,
		op >= 0x44 && op <= 0x6d,
		op >= 0x90 && op <= 0xaf,
		op >= 0xd0 && op <= 0xe2,
		op == 0xfe, op == 0xff:
		return 2
	default:
		return 1
	}
}

func isReservedDexOpcode(op uint8) bool {
	return (op >= 0x3e && op <= 0x43) || op == 0x73 ||
		op == 0x79 || op == 0x7a || (op >= 0xe3 && op <= 0xf9)
}

func TestDexOpcodeCoverage(t *testing.T) {
	for op := 1; op <= 0xFF; op++ {
		buf := make([]byte, 12)
		buf[0] = uint8(op)
		rc := LittleEndian(buf)

		insn, err := readDexInsn(rc)
		if err != nil {
			t.Errorf("opcode %#02x failed, reason: %v", op, err)
			continue
		}

		if isReservedDexOpcode(uint8(op)) {
			notUsed, ok := insn.(NotUsedInsn)
			if !ok || notUsed.Opcode != uint8(op) {
				t.Errorf("reserved opcode %#02x got %#v", op, insn)
			}
			if rc.Index() != 2 {
				t.Errorf("reserved opcode %#02x advanced %d bytes, want 2",
					op, rc.Index())
			}
			continue
		}

		want := dexInsnUnits(uint8(op)) * 2
		if rc.Index() != want {
			t.Errorf("opcode %#02x advanced %d bytes, want %d",
				op, rc.Index(), want)
		}
	}
}
