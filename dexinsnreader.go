// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// readDexInsn decodes one Dalvik instruction. The first 16-bit unit carries
// the opcode in its low byte; the opcode selects the format decoder, which
// consumes a fixed number of further units. Opcode 0x00 opens the payload
// pseudo-instructions, distinguished by the unit's high byte. Reserved
// opcodes decode as a NotUsedInsn so the cursor still advances one unit.
func readDexInsn(rc *ReadContext) (DexInsn, error) {
	unit, err := rc.U16()
	if err != nil {
		return nil, err
	}
	op := uint8(unit)
	hi := uint8(unit >> 8)
	if op == 0x00 {
		return readDexPayload(rc, hi)
	}

	switch {
	case op == 0x01, op == 0x04, op == 0x07, // move family, two nibbles
		op == 0x21,            // array-length
		op >= 0x7b && op <= 0x8f, // unop
		op >= 0xb0 && op <= 0xcf: // binop/2addr
		return F12x{Opcode: op, VA: hi & 0x0F, VB: hi >> 4}, nil

	case op == 0x02, op == 0x05, op == 0x08: // move/from16 family
		vb, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F22x{Opcode: op, VA: hi, VB: vb}, nil

	case op == 0x03, op == 0x06, op == 0x09: // move/16 family
		va, err := rc.U16()
		if err != nil {
			return nil, err
		}
		vb, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F32x{Opcode: op, Stub: hi, VA: va, VB: vb}, nil

	case op >= 0x0a && op <= 0x0d, // move-result family
		op >= 0x0f && op <= 0x11, // return family
		op == 0x1d, op == 0x1e,   // monitor
		op == 0x27:               // throw
		return F11x{Opcode: op, VA: hi}, nil

	case op == 0x0e: // return-void
		return F10x{Opcode: op, Stub: hi}, nil

	case op == 0x12: // const/4
		return F11n{Opcode: op, VA: hi & 0x0F, LiteralB: signExtend4(hi >> 4)}, nil

	case op == 0x13, op == 0x16: // const/16, const-wide/16
		literal, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F21s{Opcode: op, VA: hi, LiteralB: literal}, nil

	case op == 0x14, op == 0x17: // const, const-wide/32
		literal, err := rc.I32()
		if err != nil {
			return nil, err
		}
		return F31i{Opcode: op, VA: hi, LiteralB: literal}, nil

	case op == 0x15, op == 0x19: // const/high16, const-wide/high16
		literal, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F21h{Opcode: op, VA: hi, LiteralB: literal}, nil

	case op == 0x18: // const-wide
		literal, err := rc.I64()
		if err != nil {
			return nil, err
		}
		return F51l{Opcode: op, VA: hi, LiteralB: literal}, nil

	case op == 0x1a, op == 0x1c, // const-string, const-class
		op == 0x1f, op == 0x22, // check-cast, new-instance
		op >= 0x60 && op <= 0x6d, // static ops
		op == 0xfe, op == 0xff: // const-method-handle/-type
		constB, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F21c{Opcode: op, VA: hi, ConstB: constB}, nil

	case op == 0x1b: // const-string/jumbo
		constB, err := rc.U32()
		if err != nil {
			return nil, err
		}
		return F31c{Opcode: op, VA: hi, ConstB: constB}, nil

	case op == 0x20, op == 0x23, // instance-of, new-array
		op >= 0x52 && op <= 0x5f: // instance ops
		constC, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F22c{Opcode: op, VA: hi & 0x0F, VB: hi >> 4, ConstC: constC}, nil

	case op == 0x24, op == 0xfc: // filled-new-array, invoke-custom
		return readF35c(rc, op, hi)

	case op == 0x25, op == 0xfd: // filled-new-array/range, invoke-custom/range
		return readF3rc(rc, op, hi)

	case op == 0x26, op == 0x2b, op == 0x2c: // fill-array-data, switch
		offset, err := rc.I32()
		if err != nil {
			return nil, err
		}
		return F31t{Opcode: op, VA: hi, OffsetB: offset}, nil

	case op == 0x28: // goto
		return F10t{Opcode: op, OffsetA: int8(hi)}, nil

	case op == 0x29: // goto/16
		offset, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F20t{Opcode: op, Stub: hi, OffsetA: offset}, nil

	case op == 0x2a: // goto/32
		offset, err := rc.I32()
		if err != nil {
			return nil, err
		}
		return F30t{Opcode: op, Stub: hi, OffsetA: offset}, nil

	case op >= 0x2d && op <= 0x31, // cmp kind
		op >= 0x44 && op <= 0x51, // array ops
		op >= 0x90 && op <= 0xaf: // binop
		unit2, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F23x{Opcode: op, VA: hi, VB: uint8(unit2), VC: uint8(unit2 >> 8)}, nil

	case op >= 0x32 && op <= 0x37: // if-test
		offset, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F22t{Opcode: op, VA: hi & 0x0F, VB: hi >> 4, OffsetC: offset}, nil

	case op >= 0x38 && op <= 0x3d: // if-testz
		offset, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F21t{Opcode: op, VA: hi, OffsetB: offset}, nil

	case op >= 0x3e && op <= 0x43, op == 0x73, op == 0x79, op == 0x7a,
		op >= 0xe3 && op <= 0xf9: // reserved
		return NotUsedInsn{Opcode: op}, nil

	case op >= 0x6e && op <= 0x72: // invoke kind
		return readF35c(rc, op, hi)

	case op >= 0x74 && op <= 0x78: // invoke kind range
		return readF3rc(rc, op, hi)

	case op >= 0xd0 && op <= 0xd7: // binop/lit16
		literal, err := rc.I16()
		if err != nil {
			return nil, err
		}
		return F22s{Opcode: op, VA: hi & 0x0F, VB: hi >> 4, LiteralC: literal}, nil

	case op >= 0xd8 && op <= 0xe2: // binop/lit8
		unit2, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F22b{
			Opcode:   op,
			VA:       hi,
			VB:       uint8(unit2),
			LiteralC: int8(unit2 >> 8),
		}, nil

	case op == 0xfa: // invoke-polymorphic
		return readF45cc(rc, op, hi)

	case op == 0xfb: // invoke-polymorphic/range
		constB, err := rc.U16()
		if err != nil {
			return nil, err
		}
		vc, err := rc.U16()
		if err != nil {
			return nil, err
		}
		constH, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return F4rcc{Opcode: op, LiteralA: hi, ConstB: constB, VC: vc, ConstH: constH}, nil
	}

	return nil, errUnknownInsn(op)
}

// signExtend4 reinterprets a nibble as a signed 4-bit value.
func signExtend4(nibble uint8) int8 {
	if nibble&0x08 != 0 {
		return int8(nibble | 0xF0)
	}
	return int8(nibble)
}

func readF35c(rc *ReadContext, op, hi uint8) (DexInsn, error) {
	constB, err := rc.U16()
	if err != nil {
		return nil, err
	}
	regs, err := rc.U16()
	if err != nil {
		return nil, err
	}
	return F35c{
		Opcode: op,
		VA:     hi >> 4,
		VG:     hi & 0x0F,
		VC:     uint8(regs) & 0x0F,
		VD:     uint8(regs) >> 4,
		VE:     uint8(regs>>8) & 0x0F,
		VF:     uint8(regs>>8) >> 4,
		ConstB: constB,
	}, nil
}

func readF3rc(rc *ReadContext, op, hi uint8) (DexInsn, error) {
	constB, err := rc.U16()
	if err != nil {
		return nil, err
	}
	vc, err := rc.U16()
	if err != nil {
		return nil, err
	}
	return F3rc{Opcode: op, VA: hi, ConstB: constB, VC: vc}, nil
}

func readF45cc(rc *ReadContext, op, hi uint8) (DexInsn, error) {
	constB, err := rc.U16()
	if err != nil {
		return nil, err
	}
	regs, err := rc.U16()
	if err != nil {
		return nil, err
	}
	constH, err := rc.U16()
	if err != nil {
		return nil, err
	}
	return F45cc{
		Opcode: op,
		VA:     hi >> 4,
		VG:     hi & 0x0F,
		VC:     uint8(regs) & 0x0F,
		VD:     uint8(regs) >> 4,
		VE:     uint8(regs>>8) & 0x0F,
		VF:     uint8(regs>>8) >> 4,
		ConstB: constB,
		ConstH: constH,
	}, nil
}

// readDexPayload decodes the three pseudo-instruction shapes. The leading
// unit has already been consumed; sub is its high byte.
func readDexPayload(rc *ReadContext, sub uint8) (DexInsn, error) {
	ident := uint16(sub) << 8
	switch sub {
	case 0x01:
		size, err := rc.U16()
		if err != nil {
			return nil, err
		}
		firstKey, err := rc.U32()
		if err != nil {
			return nil, err
		}
		targets, err := readU32Vec(rc, int(size))
		if err != nil {
			return nil, err
		}
		return &PackedSwitchPayload{
			Ident:    ident,
			Size:     size,
			FirstKey: firstKey,
			Targets:  targets,
		}, nil
	case 0x02:
		size, err := rc.U16()
		if err != nil {
			return nil, err
		}
		keys, err := readU32Vec(rc, int(size))
		if err != nil {
			return nil, err
		}
		targets, err := readU32Vec(rc, int(size))
		if err != nil {
			return nil, err
		}
		return &SparseSwitchPayload{
			Ident:   ident,
			Size:    size,
			Keys:    keys,
			Targets: targets,
		}, nil
	case 0x03:
		elementWidth, err := rc.U16()
		if err != nil {
			return nil, err
		}
		size, err := rc.U32()
		if err != nil {
			return nil, err
		}
		data, err := rc.Bytes(int(size))
		if err != nil {
			return nil, err
		}
		return &FillArrayDataPayload{
			Ident:        ident,
			ElementWidth: elementWidth,
			Size:         size,
			Data:         data,
		}, nil
	}
	return nil, errUnknownDexPayload(sub)
}
