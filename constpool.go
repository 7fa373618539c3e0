// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"math"
)

// ConstPool resolves raw constant-pool entries into ConstValue, memoized
// per pool index. Errors are cached like values, so a bad entry fails
// identically on every lookup without recomputation.
type ConstPool struct {
	cf    *ClassFile
	cache *Memo[uint16, ConstValue]
}

// NewConstPool wraps the pool of a decoded class file.
func NewConstPool(cf *ClassFile) *ConstPool {
	return &ConstPool{cf: cf, cache: NewMemo[uint16, ConstValue]()}
}

// ClassName resolves the internal name of the class itself.
func (cp *ConstPool) ClassName() (string, error) {
	return cp.ReadClassInfo(cp.cf.ThisClass)
}

// ReadConst resolves one pool entry, dereferencing dependent indices
// recursively.
func (cp *ConstPool) ReadConst(index uint16) (ConstValue, error) {
	return cp.cache.Get(index, cp.resolveConst)
}

func (cp *ConstPool) resolveConst(index uint16) (ConstValue, error) {
	if int(index) >= len(cp.cf.ConstantPool) {
		return nil, errOutOfRange(int(index))
	}
	switch raw := cp.cf.ConstantPool[index].Info.(type) {
	case InvalidConst:
		return InvalidValue{}, nil
	case UTF8Const:
		value, err := DecodeMUTF8(raw.Bytes)
		if err != nil {
			return nil, err
		}
		return StringValue{Value: value}, nil
	case IntegerConst:
		return IntegerValue{Value: int32(raw.Bytes)}, nil
	case FloatConst:
		return FloatValue{Value: math.Float32frombits(raw.Bytes)}, nil
	case LongConst:
		bits := uint64(raw.HighBytes)<<32 | uint64(raw.LowBytes)
		return LongValue{Value: int64(bits)}, nil
	case DoubleConst:
		bits := uint64(raw.HighBytes)<<32 | uint64(raw.LowBytes)
		return DoubleValue{Value: math.Float64frombits(bits)}, nil
	case ClassConst:
		name, err := cp.ReadUTF8(raw.NameIndex)
		if err != nil {
			return nil, err
		}
		return ClassValue{Name: name}, nil
	case StringConst:
		value, err := cp.ReadUTF8(raw.StringIndex)
		if err != nil {
			return nil, err
		}
		return StringValue{Value: value}, nil
	case RefConst:
		class, err := cp.ReadClassInfo(raw.ClassIndex)
		if err != nil {
			return nil, err
		}
		name, desc, err := cp.ReadNameAndType(raw.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return MemberValue{Class: class, Name: name, Desc: desc}, nil
	case NameAndTypeConst:
		name, err := cp.ReadUTF8(raw.NameIndex)
		if err != nil {
			return nil, err
		}
		desc, err := cp.ReadUTF8(raw.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		return NameAndTypeValue{Name: name, Desc: desc}, nil
	case MethodHandleConst:
		return MethodHandleValue{
			ReferenceKind:  raw.ReferenceKind,
			ReferenceIndex: raw.ReferenceIndex,
		}, nil
	case MethodTypeConst:
		desc, err := cp.ReadUTF8(raw.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		return MethodTypeValue{Desc: desc}, nil
	case DynamicConst:
		name, desc, err := cp.ReadNameAndType(raw.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return DynamicValue{
			BootstrapMethodAttrIndex: raw.BootstrapMethodAttrIndex,
			Name:                     name,
			Desc:                     desc,
		}, nil
	case ModuleConst:
		name, err := cp.ReadUTF8(raw.NameIndex)
		if err != nil {
			return nil, err
		}
		return ModuleValue{Name: name}, nil
	case PackageConst:
		name, err := cp.ReadUTF8(raw.NameIndex)
		if err != nil {
			return nil, err
		}
		return PackageValue{Name: name}, nil
	}
	return nil, errResolveNode("unresolvable pool entry at index %d", index)
}

// ReadUTF8 resolves a pool index expected to be a Utf8 entry.
func (cp *ConstPool) ReadUTF8(index uint16) (string, error) {
	value, err := cp.ReadConst(index)
	if err != nil {
		return "", err
	}
	s, ok := value.(StringValue)
	if !ok {
		return "", errResolveNode(
			"pool entry %d is %T, expected a string", index, value)
	}
	return s.Value, nil
}

// ReadClassInfo resolves a pool index expected to be a Class entry.
func (cp *ConstPool) ReadClassInfo(index uint16) (string, error) {
	value, err := cp.ReadConst(index)
	if err != nil {
		return "", err
	}
	c, ok := value.(ClassValue)
	if !ok {
		return "", errResolveNode(
			"pool entry %d is %T, expected a class info", index, value)
	}
	return c.Name, nil
}

// readClassInfoOrDefault falls back to java/lang/Object when the index
// does not resolve, matching the implied super class.
func (cp *ConstPool) readClassInfoOrDefault(index uint16) string {
	name, err := cp.ReadClassInfo(index)
	if err != nil {
		return ObjectInternalName
	}
	return name
}

// ReadNameAndType resolves a pool index expected to be a NameAndType
// entry.
func (cp *ConstPool) ReadNameAndType(index uint16) (name, desc string, err error) {
	value, err := cp.ReadConst(index)
	if err != nil {
		return "", "", err
	}
	nat, ok := value.(NameAndTypeValue)
	if !ok {
		return "", "", errResolveNode(
			"pool entry %d is %T, expected a name and type", index, value)
	}
	return nat.Name, nat.Desc, nil
}

// ReadMember resolves a pool index expected to be a field or method
// reference.
func (cp *ConstPool) ReadMember(index uint16) (MemberValue, error) {
	value, err := cp.ReadConst(index)
	if err != nil {
		return MemberValue{}, err
	}
	member, ok := value.(MemberValue)
	if !ok {
		return MemberValue{}, errResolveNode(
			"pool entry %d is %T, expected a member reference", index, value)
	}
	return member, nil
}

// tagAt returns the raw tag of a pool slot, ConstantInvalid when out of
// range.
func (cp *ConstPool) tagAt(index uint16) uint8 {
	if int(index) >= len(cp.cf.ConstantPool) {
		return ConstantInvalid
	}
	return cp.cf.ConstantPool[index].Tag
}
