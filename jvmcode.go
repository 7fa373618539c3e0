// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// resolveCodeBody assembles a CodeBodyNode from a transformed Code
// attribute: the bytecode is walked into typed instruction nodes, the
// exception table is resolved, and the local-variable tables are merged by
// (start, length, index).
func (cp *ConstPool) resolveCodeBody(attr *CodeAttr) (*CodeBodyNode, error) {
	instructions, err := cp.readCode(attr.Code)
	if err != nil {
		return nil, err
	}
	body := &CodeBodyNode{
		Instructions: instructions,
		MaxStack:     attr.MaxStack,
		MaxLocals:    attr.MaxLocals,
	}

	for _, entry := range attr.ExceptionTable {
		tryCatch := TryCatchNode{
			Start:   entry.StartPC,
			End:     entry.EndPC,
			Handler: entry.HandlerPC,
		}
		// catch_type 0 is a finally block
		if entry.CatchType != 0 {
			if tryCatch.CatchType, err = cp.ReadClassInfo(entry.CatchType); err != nil {
				return nil, err
			}
		}
		body.ExceptionTable = append(body.ExceptionTable, tryCatch)
	}

	var variableEntries []LocalVariableEntry
	var typeEntries []LocalVariableTypeEntry

	for _, nested := range attr.Attributes {
		switch nestedAttr := nested.Info.(type) {
		case *LocalVariableTableAttr:
			variableEntries = append(variableEntries, nestedAttr.Table...)
		case *LocalVariableTypeTableAttr:
			typeEntries = append(typeEntries, nestedAttr.Table...)
		case *LineNumberTableAttr:
			body.LineNumbers = append(body.LineNumbers, nestedAttr.Table...)
		case *StackMapTableAttr:
			body.StackMapTable = nestedAttr.Entries
		case *TypeAnnotationsAttr:
			annotations, err := cp.resolveTypeAnnotations(nestedAttr)
			if err != nil {
				return nil, err
			}
			body.TypeAnnotations = append(body.TypeAnnotations, annotations...)
		default:
			unknown, err := cp.unknownAttr(nested)
			if err != nil {
				return nil, err
			}
			body.Attrs = append(body.Attrs, unknown)
		}
	}

	body.LocalVariables, err = cp.mergeLocalVariables(variableEntries, typeEntries)
	if err != nil {
		return nil, err
	}
	return body, nil
}

type localVariableKey struct {
	start  uint16
	length uint16
	index  uint16
}

// mergeLocalVariables enriches LocalVariableTable rows with the generic
// signatures of matching LocalVariableTypeTable rows.
func (cp *ConstPool) mergeLocalVariables(
	entries []LocalVariableEntry,
	typeEntries []LocalVariableTypeEntry) ([]LocalVariableNode, error) {

	signatures := make(map[localVariableKey]uint16, len(typeEntries))
	for _, entry := range typeEntries {
		key := localVariableKey{entry.StartPC, entry.Length, entry.Index}
		signatures[key] = entry.SignatureIndex
	}

	var variables []LocalVariableNode
	for _, entry := range entries {
		name, err := cp.ReadUTF8(entry.NameIndex)
		if err != nil {
			return nil, err
		}
		desc, err := cp.ReadUTF8(entry.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		variable := LocalVariableNode{
			Name:  name,
			Desc:  desc,
			Start: entry.StartPC,
			End:   entry.StartPC + entry.Length,
			Index: entry.Index,
		}
		key := localVariableKey{entry.StartPC, entry.Length, entry.Index}
		if signatureIndex, ok := signatures[key]; ok {
			if variable.Signature, err = cp.ReadUTF8(signatureIndex); err != nil {
				return nil, err
			}
		}
		variables = append(variables, variable)
	}
	return variables, nil
}

// readCode walks a JVM bytecode array into instruction nodes. Each opcode's
// width is fixed by JVMS §6 except tableswitch, lookupswitch and wide.
func (cp *ConstPool) readCode(code []byte) ([]InsnNode, error) {
	u8 := func(at int) (uint8, error) {
		if at >= len(code) {
			return 0, errOutOfRange(at)
		}
		return code[at], nil
	}
	u16 := func(at int) (uint16, error) {
		if at+2 > len(code) {
			return 0, errOutOfRange(at)
		}
		return uint16(code[at])<<8 | uint16(code[at+1]), nil
	}
	i32 := func(at int) (int32, error) {
		if at+4 > len(code) {
			return 0, errOutOfRange(at)
		}
		return int32(uint32(code[at])<<24 | uint32(code[at+1])<<16 |
			uint32(code[at+2])<<8 | uint32(code[at+3])), nil
	}

	var instructions []InsnNode
	pc := 0
	for pc < len(code) {
		op := code[pc]
		switch {
		// no-operand opcodes
		case op <= OpDconst1,
			op >= OpIaload && op <= OpSaload,
			op >= OpIastore && op <= OpSastore,
			op >= OpPop && op <= OpLxor,
			op >= OpI2l && op <= OpDcmpg,
			op >= OpIreturn && op <= OpReturn,
			op == OpArraylength, op == OpAthrow,
			op == OpMonitorenter, op == OpMonitorexit:
			instructions = append(instructions, Insn{Opcode: op})
			pc++

		case op == OpBipush:
			operand, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, IntInsn{
				Opcode: op, Operand: int32(int8(operand))})
			pc += 2

		case op == OpSipush:
			operand, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, IntInsn{
				Opcode: op, Operand: int32(int16(operand))})
			pc += 3

		case op == OpNewarray:
			operand, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, IntInsn{
				Opcode: op, Operand: int32(operand)})
			pc += 2

		case op == OpLdc:
			index, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			value, err := cp.ReadConst(uint16(index))
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, LdcInsn{Const: value})
			pc += 2

		case op == OpLdcW, op == OpLdc2W:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			value, err := cp.ReadConst(index)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, LdcInsn{Const: value})
			pc += 3

		case op >= OpIload && op <= OpAload, op >= OpIstore && op <= OpAstore,
			op == OpRet:
			index, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, VarInsn{
				Opcode: op, Var: uint16(index)})
			pc += 2

		case op >= OpIload0 && op <= OpAload3:
			instructions = append(instructions, VarInsn{
				Opcode: op, Var: uint16((op - OpIload0) % 4)})
			pc++

		case op >= OpIstore0 && op <= OpAstore3:
			instructions = append(instructions, VarInsn{
				Opcode: op, Var: uint16((op - OpIstore0) % 4)})
			pc++

		case op == OpIinc:
			index, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			incr, err := u8(pc + 2)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, IincInsn{
				Var: uint16(index), Incr: int16(int8(incr))})
			pc += 3

		case op >= OpIfeq && op <= OpJsr, op == OpIfnull, op == OpIfnonnull:
			delta, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, JumpInsn{
				Opcode: op, Target: uint16(pc + int(int16(delta)))})
			pc += 3

		case op == OpGotoW, op == OpJsrW:
			delta, err := i32(pc + 1)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, JumpInsn{
				Opcode: op, Target: uint16(pc + int(delta))})
			pc += 5

		case op == OpTableswitch:
			// the operands start at the next 4-byte boundary
			at := (pc + 4) &^ 3
			defaultDelta, err := i32(at)
			if err != nil {
				return nil, err
			}
			low, err := i32(at + 4)
			if err != nil {
				return nil, err
			}
			high, err := i32(at + 8)
			if err != nil {
				return nil, err
			}
			if high < low {
				return nil, errIllegalFormat(
					"tableswitch high %d below low %d", high, low)
			}
			at += 12
			insn := TableSwitchInsn{
				Default: uint16(pc + int(defaultDelta)),
				Min:     low,
				Max:     high,
			}
			for i := int64(0); i <= int64(high)-int64(low); i++ {
				delta, err := i32(at)
				if err != nil {
					return nil, err
				}
				insn.Targets = append(insn.Targets, uint16(pc+int(delta)))
				at += 4
			}
			instructions = append(instructions, insn)
			pc = at

		case op == OpLookupswitch:
			at := (pc + 4) &^ 3
			defaultDelta, err := i32(at)
			if err != nil {
				return nil, err
			}
			npairs, err := i32(at + 4)
			if err != nil {
				return nil, err
			}
			if npairs < 0 {
				return nil, errIllegalFormat("lookupswitch npairs %d", npairs)
			}
			at += 8
			insn := LookupSwitchInsn{Default: uint16(pc + int(defaultDelta))}
			for i := int32(0); i < npairs; i++ {
				key, err := i32(at)
				if err != nil {
					return nil, err
				}
				delta, err := i32(at + 4)
				if err != nil {
					return nil, err
				}
				insn.Keys = append(insn.Keys, key)
				insn.Targets = append(insn.Targets, uint16(pc+int(delta)))
				at += 8
			}
			instructions = append(instructions, insn)
			pc = at

		case op >= OpGetstatic && op <= OpPutfield:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			member, err := cp.ReadMember(index)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, FieldInsn{
				Opcode: op,
				Owner:  member.Class,
				Name:   member.Name,
				Desc:   member.Desc,
			})
			pc += 3

		case op >= OpInvokevirtual && op <= OpInvokestatic:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			member, err := cp.ReadMember(index)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, MethodInsn{
				Opcode:      op,
				Owner:       member.Class,
				Name:        member.Name,
				Desc:        member.Desc,
				IsInterface: cp.tagAt(index) == ConstantInterfaceMethodref,
			})
			pc += 3

		case op == OpInvokeinterface:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			member, err := cp.ReadMember(index)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, MethodInsn{
				Opcode:      op,
				Owner:       member.Class,
				Name:        member.Name,
				Desc:        member.Desc,
				IsInterface: true,
			})
			pc += 5

		case op == OpInvokedynamic:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			value, err := cp.ReadConst(index)
			if err != nil {
				return nil, err
			}
			dynamic, ok := value.(DynamicValue)
			if !ok {
				return nil, errResolveNode(
					"invokedynamic operand %d is %T", index, value)
			}
			instructions = append(instructions, InvokeDynamicInsn{
				Name:     dynamic.Name,
				Desc:     dynamic.Desc,
				BsmIndex: dynamic.BootstrapMethodAttrIndex,
			})
			pc += 5

		case op == OpNew, op == OpAnewarray, op == OpCheckcast, op == OpInstanceof:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			name, err := cp.ReadClassInfo(index)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, TypeInsn{Opcode: op, Desc: name})
			pc += 3

		case op == OpMultianewarray:
			index, err := u16(pc + 1)
			if err != nil {
				return nil, err
			}
			name, err := cp.ReadClassInfo(index)
			if err != nil {
				return nil, err
			}
			dims, err := u8(pc + 3)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, MultiANewArrayInsn{
				Desc: name, Dims: dims})
			pc += 4

		case op == OpWide:
			wideOp, err := u8(pc + 1)
			if err != nil {
				return nil, err
			}
			index, err := u16(pc + 2)
			if err != nil {
				return nil, err
			}
			if wideOp == OpIinc {
				incr, err := u16(pc + 4)
				if err != nil {
					return nil, err
				}
				instructions = append(instructions, IincInsn{
					Var: index, Incr: int16(incr)})
				pc += 6
			} else {
				instructions = append(instructions, VarInsn{
					Opcode: wideOp, Var: index})
				pc += 4
			}

		default:
			return nil, errIllegalFormat("unknown jvm opcode: %#02x at %d", op, pc)
		}
	}
	return instructions, nil
}
