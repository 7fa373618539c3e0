// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// ParseClass decodes the class file held by this File. The decode is
// two-pass: pass one reads the container byte-accurately with every
// attribute body kept verbatim, pass two resolves attribute names through
// the constant pool and re-decodes recognized bodies into typed variants.
func (f *File) ParseClass() error {
	rc := BigEndian(f.data)
	cf, err := readClassFile(rc)
	if err != nil {
		return err
	}
	if !f.opts.Fast {
		if err := transformClassFile(cf); err != nil {
			return err
		}
	}
	f.Class = cf
	return nil
}

func readClassFile(rc *ReadContext) (*ClassFile, error) {
	magic, err := rc.U32()
	if err != nil {
		return nil, err
	}
	if magic != ClassMagic {
		return nil, ErrInvalidClassMagic
	}
	cf := &ClassFile{Magic: magic}
	if cf.MinorVersion, err = rc.U16(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = rc.U16(); err != nil {
		return nil, err
	}
	if cf.ConstantPoolCount, err = rc.U16(); err != nil {
		return nil, err
	}
	if cf.ConstantPool, err = readConstantPool(rc, int(cf.ConstantPoolCount)); err != nil {
		return nil, err
	}
	if cf.AccessFlags, err = rc.U16(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = rc.U16(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = rc.U16(); err != nil {
		return nil, err
	}
	interfacesCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if cf.Interfaces, err = readU16Vec(rc, int(interfacesCount)); err != nil {
		return nil, err
	}
	fieldsCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if cf.Fields, err = readVec(rc, int(fieldsCount), readMemberInfo); err != nil {
		return nil, err
	}
	methodsCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if cf.Methods, err = readVec(rc, int(methodsCount), readMemberInfo); err != nil {
		return nil, err
	}
	attributesCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if cf.Attributes, err = readVec(rc, int(attributesCount), readAttributeInfo); err != nil {
		return nil, err
	}
	return cf, nil
}

// readConstantPool reads count-1 logical entries. Index 0 holds the Invalid
// sentinel; a Long or Double consumes two slots of the declared budget, the
// unusable second slot is filled with another sentinel.
func readConstantPool(rc *ReadContext, count int) ([]CPInfo, error) {
	pool := make([]CPInfo, 0, count)
	pool = append(pool, CPInfo{Tag: ConstantInvalid, Info: InvalidConst{}})
	remaining := count - 1
	for remaining > 0 {
		tag, err := rc.U8()
		if err != nil {
			return nil, err
		}
		info, err := readConst(rc, tag)
		if err != nil {
			return nil, err
		}
		pool = append(pool, CPInfo{Tag: tag, Info: info})
		switch tag {
		case ConstantLong, ConstantDouble:
			pool = append(pool, CPInfo{Tag: ConstantInvalid, Info: InvalidConst{}})
			remaining -= 2
		default:
			remaining--
		}
	}
	return pool, nil
}

func readConst(rc *ReadContext, tag uint8) (Const, error) {
	switch tag {
	case ConstantUtf8:
		length, err := rc.U16()
		if err != nil {
			return nil, err
		}
		bytes, err := rc.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		return UTF8Const{Bytes: bytes}, nil
	case ConstantInteger:
		bytes, err := rc.U32()
		if err != nil {
			return nil, err
		}
		return IntegerConst{Bytes: bytes}, nil
	case ConstantFloat:
		bytes, err := rc.U32()
		if err != nil {
			return nil, err
		}
		return FloatConst{Bytes: bytes}, nil
	case ConstantLong:
		high, err := rc.U32()
		if err != nil {
			return nil, err
		}
		low, err := rc.U32()
		if err != nil {
			return nil, err
		}
		return LongConst{HighBytes: high, LowBytes: low}, nil
	case ConstantDouble:
		high, err := rc.U32()
		if err != nil {
			return nil, err
		}
		low, err := rc.U32()
		if err != nil {
			return nil, err
		}
		return DoubleConst{HighBytes: high, LowBytes: low}, nil
	case ConstantClass:
		nameIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return ClassConst{NameIndex: nameIndex}, nil
	case ConstantString:
		stringIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return StringConst{StringIndex: stringIndex}, nil
	case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref:
		classIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		natIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return RefConst{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
	case ConstantNameAndType:
		nameIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		descIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return NameAndTypeConst{NameIndex: nameIndex, DescriptorIndex: descIndex}, nil
	case ConstantMethodHandle:
		kind, err := rc.U8()
		if err != nil {
			return nil, err
		}
		refIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return MethodHandleConst{ReferenceKind: kind, ReferenceIndex: refIndex}, nil
	case ConstantMethodType:
		descIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return MethodTypeConst{DescriptorIndex: descIndex}, nil
	case ConstantDynamic, ConstantInvokeDynamic:
		bsmIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		natIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return DynamicConst{
			BootstrapMethodAttrIndex: bsmIndex,
			NameAndTypeIndex:         natIndex,
		}, nil
	case ConstantModule:
		nameIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return ModuleConst{NameIndex: nameIndex}, nil
	case ConstantPackage:
		nameIndex, err := rc.U16()
		if err != nil {
			return nil, err
		}
		return PackageConst{NameIndex: nameIndex}, nil
	}
	return nil, errIllegalFormat("unknown const tag in const pool: %d", tag)
}

func readMemberInfo(rc *ReadContext) (MemberInfo, error) {
	accessFlags, err := rc.U16()
	if err != nil {
		return MemberInfo{}, err
	}
	nameIndex, err := rc.U16()
	if err != nil {
		return MemberInfo{}, err
	}
	descIndex, err := rc.U16()
	if err != nil {
		return MemberInfo{}, err
	}
	attributesCount, err := rc.U16()
	if err != nil {
		return MemberInfo{}, err
	}
	attributes, err := readVec(rc, int(attributesCount), readAttributeInfo)
	if err != nil {
		return MemberInfo{}, err
	}
	return MemberInfo{
		AccessFlags:     accessFlags,
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
		Attributes:      attributes,
	}, nil
}

// readAttributeInfo reads one attribute table entry. All attributes come out
// of pass one as *CustomAttr, pass two re-decodes them.
func readAttributeInfo(rc *ReadContext) (AttributeInfo, error) {
	nameIndex, err := rc.U16()
	if err != nil {
		return AttributeInfo{}, err
	}
	length, err := rc.U32()
	if err != nil {
		return AttributeInfo{}, err
	}
	data, err := rc.Bytes(int(length))
	if err != nil {
		return AttributeInfo{}, err
	}
	return AttributeInfo{
		NameIndex: nameIndex,
		Length:    length,
		Info:      &CustomAttr{Data: data},
	}, nil
}
