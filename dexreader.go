// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"bytes"
	"crypto/sha1"
	"hash/adler32"
)

var dexMagicPrefix = []byte("dex\n")

// ParseDex decodes the DEX container held by this File: header first, then
// the flat id tables. The first byte of the endian tag is inspected before
// anything is decoded; the header itself and everything that follows are
// read in the byte order it selects.
func (f *File) ParseDex() error {
	if len(f.data) < DexHeaderSize {
		return ErrInvalidDexSize
	}
	if !bytes.HasPrefix(f.data, dexMagicPrefix) {
		return ErrInvalidDexMagic
	}

	rc := LittleEndian(f.data)
	endianTag, err := rc.ByteAt(DexEndianTagOffset)
	if err != nil {
		return err
	}
	// The constant 0x12345678 stored little-endian leads with 0x78; a
	// byte-swapped file leads with 0x12 and reads as 0x78563412.
	bigEndian := endianTag == 0x12
	if bigEndian {
		rc = BigEndian(f.data)
	}

	header, err := readDexHeader(rc)
	if err != nil {
		return err
	}

	dex := &DexFile{
		Header:        header,
		data:          f.data,
		bigEndian:     bigEndian,
		stringData:    NewMemo[uint32, StringData](),
		typeLists:     NewMemo[uint32, TypeList](),
		classData:     NewMemo[uint32, ClassDataItem](),
		codeItems:     NewMemo[uint32, *CodeItem](),
		encodedArrays: NewMemo[uint32, EncodedArray](),
	}

	if !f.opts.DisableChecksumValidation {
		if err := dex.verifyChecksums(); err != nil {
			f.logger.Warnf("dex checksum validation failed: %v", err)
			f.Anomalies = append(f.Anomalies, AnoDexChecksumMismatch)
		}
	}

	rc.Seek(int(header.StringIDsOff))
	if dex.StringIDs, err = readVec(rc, int(header.StringIDsSize),
		readStringID); err != nil {
		return err
	}
	rc.Seek(int(header.TypeIDsOff))
	if dex.TypeIDs, err = readVec(rc, int(header.TypeIDsSize),
		readTypeID); err != nil {
		return err
	}
	rc.Seek(int(header.ProtoIDsOff))
	if dex.ProtoIDs, err = readVec(rc, int(header.ProtoIDsSize),
		readProtoID); err != nil {
		return err
	}
	rc.Seek(int(header.FieldIDsOff))
	if dex.FieldIDs, err = readVec(rc, int(header.FieldIDsSize),
		readFieldID); err != nil {
		return err
	}
	rc.Seek(int(header.MethodIDsOff))
	if dex.MethodIDs, err = readVec(rc, int(header.MethodIDsSize),
		readMethodID); err != nil {
		return err
	}
	rc.Seek(int(header.ClassDefsOff))
	if dex.ClassDefs, err = readVec(rc, int(header.ClassDefsSize),
		readClassDef); err != nil {
		return err
	}
	dex.classElements = NewOnceVec[*ClassElement](len(dex.ClassDefs))

	f.Dex = dex
	return nil
}

// verifyChecksums recomputes the adler32 and SHA-1 digests declared by the
// header: adler32 covers everything after magic and checksum, SHA-1
// everything after the signature field.
func (dex *DexFile) verifyChecksums() error {
	if adler32.Checksum(dex.data[12:]) != dex.Header.Checksum {
		return errIllegalFormat("header adler32 mismatch")
	}
	digest := sha1.Sum(dex.data[32:])
	if !bytes.Equal(digest[:], dex.Header.Signature[:]) {
		return errIllegalFormat("header SHA-1 mismatch")
	}
	return nil
}

// context returns a fresh read context over the file bytes with the byte
// order dictated by the header endian tag, positioned at offset.
func (dex *DexFile) context(offset uint32) *ReadContext {
	var rc *ReadContext
	if dex.bigEndian {
		rc = BigEndian(dex.data)
	} else {
		rc = LittleEndian(dex.data)
	}
	rc.Seek(int(offset))
	return rc
}

func readDexHeader(rc *ReadContext) (DexHeader, error) {
	var h DexHeader
	magic, err := rc.Bytes(8)
	if err != nil {
		return DexHeader{}, err
	}
	copy(h.Magic[:], magic)
	if h.Checksum, err = rc.U32(); err != nil {
		return DexHeader{}, err
	}
	signature, err := rc.Bytes(20)
	if err != nil {
		return DexHeader{}, err
	}
	copy(h.Signature[:], signature)
	fields := []*uint32{
		&h.FileSize, &h.HeaderSize, &h.EndianTag, &h.LinkSize, &h.LinkOff,
		&h.MapOff,
		&h.StringIDsSize, &h.StringIDsOff,
		&h.TypeIDsSize, &h.TypeIDsOff,
		&h.ProtoIDsSize, &h.ProtoIDsOff,
		&h.FieldIDsSize, &h.FieldIDsOff,
		&h.MethodIDsSize, &h.MethodIDsOff,
		&h.ClassDefsSize, &h.ClassDefsOff,
		&h.DataSize, &h.DataOff,
	}
	for _, field := range fields {
		if *field, err = rc.U32(); err != nil {
			return DexHeader{}, err
		}
	}
	return h, nil
}

func readStringID(rc *ReadContext) (StringID, error) {
	off, err := rc.U32()
	return StringID{StringDataOff: off}, err
}

func readTypeID(rc *ReadContext) (TypeID, error) {
	idx, err := rc.U32()
	return TypeID{DescriptorIdx: idx}, err
}

func readProtoID(rc *ReadContext) (ProtoID, error) {
	var p ProtoID
	var err error
	if p.ShortyIdx, err = rc.U32(); err != nil {
		return ProtoID{}, err
	}
	if p.ReturnTypeIdx, err = rc.U32(); err != nil {
		return ProtoID{}, err
	}
	if p.ParametersOff, err = rc.U32(); err != nil {
		return ProtoID{}, err
	}
	return p, nil
}

func readFieldID(rc *ReadContext) (FieldID, error) {
	var f FieldID
	var err error
	if f.ClassIdx, err = rc.U16(); err != nil {
		return FieldID{}, err
	}
	if f.TypeIdx, err = rc.U16(); err != nil {
		return FieldID{}, err
	}
	if f.NameIdx, err = rc.U32(); err != nil {
		return FieldID{}, err
	}
	return f, nil
}

func readMethodID(rc *ReadContext) (MethodID, error) {
	var m MethodID
	var err error
	if m.ClassIdx, err = rc.U16(); err != nil {
		return MethodID{}, err
	}
	if m.ProtoIdx, err = rc.U16(); err != nil {
		return MethodID{}, err
	}
	if m.NameIdx, err = rc.U32(); err != nil {
		return MethodID{}, err
	}
	return m, nil
}

func readClassDef(rc *ReadContext) (ClassDef, error) {
	var c ClassDef
	fields := []*uint32{
		&c.ClassIdx, &c.AccessFlags, &c.SuperclassIdx, &c.InterfacesOff,
		&c.SourceFileIdx, &c.AnnotationsOff, &c.ClassDataOff,
		&c.StaticValuesOff,
	}
	var err error
	for _, field := range fields {
		if *field, err = rc.U32(); err != nil {
			return ClassDef{}, err
		}
	}
	return c, nil
}

// GetStringData fetches and decodes the string_data_item at an absolute
// file offset: a ULEB128 UTF-16 code-unit count, MUTF-8 bytes, trailing
// NUL.
func (dex *DexFile) GetStringData(off uint32) (StringData, error) {
	return dex.stringData.Get(off, func(off uint32) (StringData, error) {
		rc := dex.context(off)
		utf16Size, err := rc.ULEB128()
		if err != nil {
			return StringData{}, err
		}
		var raw []byte
		for {
			b, err := rc.U8()
			if err != nil {
				return StringData{}, err
			}
			if b == 0 {
				break
			}
			raw = append(raw, b)
		}
		value, err := DecodeMUTF8(raw)
		if err != nil {
			return StringData{}, err
		}
		return StringData{UTF16Size: utf16Size, Value: value}, nil
	})
}

// GetString resolves a string_ids index to its decoded value.
func (dex *DexFile) GetString(idx uint32) (string, error) {
	if int(idx) >= len(dex.StringIDs) {
		return "", errOutOfRange(int(idx))
	}
	data, err := dex.GetStringData(dex.StringIDs[idx].StringDataOff)
	if err != nil {
		return "", err
	}
	return data.Value, nil
}

// GetTypeDescriptor resolves a type_ids index to its descriptor string.
// NoIndex reports absence through ok.
func (dex *DexFile) GetTypeDescriptor(idx uint32) (desc string, ok bool, err error) {
	if idx == NoIndex {
		return "", false, nil
	}
	if int(idx) >= len(dex.TypeIDs) {
		return "", false, errOutOfRange(int(idx))
	}
	desc, err = dex.GetString(dex.TypeIDs[idx].DescriptorIdx)
	return desc, err == nil, err
}

// GetTypeList fetches the type_list at an absolute file offset.
func (dex *DexFile) GetTypeList(off uint32) (TypeList, error) {
	return dex.typeLists.Get(off, func(off uint32) (TypeList, error) {
		rc := dex.context(off)
		rc.Align(4)
		size, err := rc.U32()
		if err != nil {
			return TypeList{}, err
		}
		indices, err := readU16Vec(rc, int(size))
		if err != nil {
			return TypeList{}, err
		}
		return TypeList{TypeIdxList: indices}, nil
	})
}

// GetMapList fetches the file map located by the header.
func (dex *DexFile) GetMapList() (MapList, error) {
	rc := dex.context(dex.Header.MapOff)
	rc.Align(4)
	size, err := rc.U32()
	if err != nil {
		return MapList{}, err
	}
	items, err := readVec(rc, int(size), readMapItem)
	if err != nil {
		return MapList{}, err
	}
	return MapList{Items: items}, nil
}

func readMapItem(rc *ReadContext) (MapItem, error) {
	var item MapItem
	var err error
	if item.Type, err = rc.U16(); err != nil {
		return MapItem{}, err
	}
	if item.Unused, err = rc.U16(); err != nil {
		return MapItem{}, err
	}
	if item.Size, err = rc.U32(); err != nil {
		return MapItem{}, err
	}
	if item.Offset, err = rc.U32(); err != nil {
		return MapItem{}, err
	}
	return item, nil
}

// GetClassData fetches the class_data_item at an absolute file offset: four
// ULEB128 counts then the four member vectors in order.
func (dex *DexFile) GetClassData(off uint32) (ClassDataItem, error) {
	return dex.classData.Get(off, func(off uint32) (ClassDataItem, error) {
		rc := dex.context(off)
		staticFieldsSize, err := rc.ULEB128()
		if err != nil {
			return ClassDataItem{}, err
		}
		instanceFieldsSize, err := rc.ULEB128()
		if err != nil {
			return ClassDataItem{}, err
		}
		directMethodsSize, err := rc.ULEB128()
		if err != nil {
			return ClassDataItem{}, err
		}
		virtualMethodsSize, err := rc.ULEB128()
		if err != nil {
			return ClassDataItem{}, err
		}
		item := ClassDataItem{}
		if item.StaticFields, err = readVec(rc, int(staticFieldsSize),
			readEncodedField); err != nil {
			return ClassDataItem{}, err
		}
		if item.InstanceFields, err = readVec(rc, int(instanceFieldsSize),
			readEncodedField); err != nil {
			return ClassDataItem{}, err
		}
		if item.DirectMethods, err = readVec(rc, int(directMethodsSize),
			readEncodedMethod); err != nil {
			return ClassDataItem{}, err
		}
		if item.VirtualMethods, err = readVec(rc, int(virtualMethodsSize),
			readEncodedMethod); err != nil {
			return ClassDataItem{}, err
		}
		return item, nil
	})
}

func readEncodedField(rc *ReadContext) (EncodedField, error) {
	idxDiff, err := rc.ULEB128()
	if err != nil {
		return EncodedField{}, err
	}
	accessFlags, err := rc.ULEB128()
	if err != nil {
		return EncodedField{}, err
	}
	return EncodedField{FieldIdxDiff: idxDiff, AccessFlags: accessFlags}, nil
}

func readEncodedMethod(rc *ReadContext) (EncodedMethod, error) {
	idxDiff, err := rc.ULEB128()
	if err != nil {
		return EncodedMethod{}, err
	}
	accessFlags, err := rc.ULEB128()
	if err != nil {
		return EncodedMethod{}, err
	}
	codeOff, err := rc.ULEB128()
	if err != nil {
		return EncodedMethod{}, err
	}
	return EncodedMethod{
		MethodIdxDiff: idxDiff,
		AccessFlags:   accessFlags,
		CodeOff:       codeOff,
	}, nil
}

// GetCodeItem fetches and decodes the code_item at an absolute file offset,
// instructions included.
func (dex *DexFile) GetCodeItem(off uint32) (*CodeItem, error) {
	return dex.codeItems.Get(off, func(off uint32) (*CodeItem, error) {
		rc := dex.context(off)
		return readCodeItem(rc)
	})
}

func readCodeItem(rc *ReadContext) (*CodeItem, error) {
	item := &CodeItem{}
	var err error
	if item.RegistersSize, err = rc.U16(); err != nil {
		return nil, err
	}
	if item.InsSize, err = rc.U16(); err != nil {
		return nil, err
	}
	if item.OutsSize, err = rc.U16(); err != nil {
		return nil, err
	}
	if item.TriesSize, err = rc.U16(); err != nil {
		return nil, err
	}
	if item.DebugInfoOff, err = rc.U32(); err != nil {
		return nil, err
	}
	if item.Insns, err = readInsnContainer(rc); err != nil {
		return nil, err
	}
	if item.TriesSize > 0 {
		// padding keeps tries 4-byte aligned
		rc.Align(4)
		if item.Tries, err = readVec(rc, int(item.TriesSize),
			readTryItem); err != nil {
			return nil, err
		}
	}
	if item.Handlers, err = readEncodedCatchHandlerList(rc); err != nil {
		return nil, err
	}
	return item, nil
}

// readInsnContainer decodes instructions until the cumulative byte advance
// equals twice the declared unit count. The loop tracks the cursor's net
// advance, not the instruction count, because payloads have variable
// width.
func readInsnContainer(rc *ReadContext) (InsnContainer, error) {
	insnsSize, err := rc.U32()
	if err != nil {
		return InsnContainer{}, err
	}
	container := InsnContainer{InsnsSize: insnsSize}
	byteLen := int(insnsSize) * 2
	cur := 0
	for cur < byteLen {
		start := rc.Index()
		insn, err := readDexInsn(rc)
		if err != nil {
			return InsnContainer{}, err
		}
		container.Insns = append(container.Insns, insn)
		cur += rc.Index() - start
	}
	return container, nil
}

func readTryItem(rc *ReadContext) (TryItem, error) {
	var t TryItem
	var err error
	if t.StartAddr, err = rc.U32(); err != nil {
		return TryItem{}, err
	}
	if t.InsnCount, err = rc.U16(); err != nil {
		return TryItem{}, err
	}
	if t.HandlerOff, err = rc.U16(); err != nil {
		return TryItem{}, err
	}
	return t, nil
}

func readEncodedCatchHandlerList(rc *ReadContext) (EncodedCatchHandlerList, error) {
	size, err := rc.ULEB128()
	if err != nil {
		return EncodedCatchHandlerList{}, err
	}
	list, err := readVec(rc, int(size), readEncodedCatchHandler)
	if err != nil {
		return EncodedCatchHandlerList{}, err
	}
	return EncodedCatchHandlerList{List: list}, nil
}

// readEncodedCatchHandler reads |size| typed pairs; a negative size means a
// trailing catch-all address follows.
func readEncodedCatchHandler(rc *ReadContext) (EncodedCatchHandler, error) {
	size, err := rc.SLEB128()
	if err != nil {
		return EncodedCatchHandler{}, err
	}
	handlerSize := int(size)
	if handlerSize < 0 {
		handlerSize = -handlerSize
	}
	handlers, err := readVec(rc, handlerSize, readEncodedTypeAddrPair)
	if err != nil {
		return EncodedCatchHandler{}, err
	}
	handler := EncodedCatchHandler{Size: size, Handlers: handlers}
	if size < 0 {
		if handler.CatchAllAddr, err = rc.ULEB128(); err != nil {
			return EncodedCatchHandler{}, err
		}
		handler.HasCatchAll = true
	}
	return handler, nil
}

func readEncodedTypeAddrPair(rc *ReadContext) (EncodedTypeAddrPair, error) {
	typeIdx, err := rc.ULEB128()
	if err != nil {
		return EncodedTypeAddrPair{}, err
	}
	addr, err := rc.ULEB128()
	if err != nil {
		return EncodedTypeAddrPair{}, err
	}
	return EncodedTypeAddrPair{TypeIdx: typeIdx, Addr: addr}, nil
}

// GetEncodedArray fetches the encoded_array_item at an absolute file
// offset, e.g. a class's static initial values.
func (dex *DexFile) GetEncodedArray(off uint32) (EncodedArray, error) {
	return dex.encodedArrays.Get(off, func(off uint32) (EncodedArray, error) {
		rc := dex.context(off)
		return readEncodedArray(rc)
	})
}

func readEncodedArray(rc *ReadContext) (EncodedArray, error) {
	size, err := rc.ULEB128()
	if err != nil {
		return EncodedArray{}, err
	}
	values, err := readVec(rc, int(size), readEncodedValue)
	if err != nil {
		return EncodedArray{}, err
	}
	return EncodedArray{Values: values}, nil
}

// readEncodedValue decodes one encoded_value: the leading byte packs the
// value type in its low five bits and size-1 (or a boolean payload) in the
// high three.
func readEncodedValue(rc *ReadContext) (EncodedValue, error) {
	lead, err := rc.U8()
	if err != nil {
		return EncodedValue{}, err
	}
	valueType := lead & 0x1F
	valueArg := int(lead >> 5)
	switch valueType {
	case ValueByte:
		v, err := readEncodedBits(rc, valueArg+1, true)
		return EncodedValue{Kind: EncodedByte, Int: int64(v)}, err
	case ValueShort:
		v, err := readEncodedBits(rc, valueArg+1, true)
		return EncodedValue{Kind: EncodedShort, Int: int64(v)}, err
	case ValueChar:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedChar, Int: int64(v)}, err
	case ValueInt:
		v, err := readEncodedBits(rc, valueArg+1, true)
		return EncodedValue{Kind: EncodedInt, Int: int64(v)}, err
	case ValueLong:
		v, err := readEncodedBits(rc, valueArg+1, true)
		return EncodedValue{Kind: EncodedLong, Int: int64(v)}, err
	case ValueFloat:
		// zero-extended to the right toward the high bits
		v, err := readEncodedBits(rc, valueArg+1, false)
		bits := uint64(v) << (8 * (4 - (valueArg + 1)))
		return EncodedValue{Kind: EncodedFloat, Bits: bits}, err
	case ValueDouble:
		v, err := readEncodedBits(rc, valueArg+1, false)
		bits := uint64(v) << (8 * (8 - (valueArg + 1)))
		return EncodedValue{Kind: EncodedDouble, Bits: bits}, err
	case ValueMethodType:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedMethodType, Uint: uint32(v)}, err
	case ValueMethodHandle:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedMethodHandle, Uint: uint32(v)}, err
	case ValueString:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedString, Uint: uint32(v)}, err
	case ValueType:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedType, Uint: uint32(v)}, err
	case ValueField:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedFieldRef, Uint: uint32(v)}, err
	case ValueMethod:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedMethodRef, Uint: uint32(v)}, err
	case ValueEnum:
		v, err := readEncodedBits(rc, valueArg+1, false)
		return EncodedValue{Kind: EncodedEnum, Uint: uint32(v)}, err
	case ValueArray:
		array, err := readEncodedArray(rc)
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: EncodedArrayValue, Array: array.Values}, nil
	case ValueAnnotation:
		annotation, err := readEncodedAnnotation(rc)
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: EncodedAnnotationValue, Annotation: &annotation}, nil
	case ValueNull:
		return EncodedValue{Kind: EncodedNull}, nil
	case ValueBoolean:
		return EncodedValue{Kind: EncodedBoolean, Bool: valueArg != 0}, nil
	}
	return EncodedValue{}, errIllegalFormat(
		"unknown encoded value type: %#02x", valueType)
}

// readEncodedBits reads size little-endian bytes and optionally
// sign-extends from the top bit of the last one.
func readEncodedBits(rc *ReadContext, size int, signed bool) (int64, error) {
	var v uint64
	for i := 0; i < size; i++ {
		b, err := rc.U8()
		if err != nil {
			return 0, err
		}
		v |= uint64(b) << (8 * i)
	}
	if signed && size < 8 && v&(1<<(uint(size)*8-1)) != 0 {
		v |= ^uint64(0) << (uint(size) * 8)
	}
	return int64(v), nil
}

func readEncodedAnnotation(rc *ReadContext) (EncodedAnnotation, error) {
	typeIdx, err := rc.ULEB128()
	if err != nil {
		return EncodedAnnotation{}, err
	}
	size, err := rc.ULEB128()
	if err != nil {
		return EncodedAnnotation{}, err
	}
	elements, err := readVec(rc, int(size), func(rc *ReadContext) (EncodedAnnotationAttribute, error) {
		nameIdx, err := rc.ULEB128()
		if err != nil {
			return EncodedAnnotationAttribute{}, err
		}
		value, err := readEncodedValue(rc)
		if err != nil {
			return EncodedAnnotationAttribute{}, err
		}
		return EncodedAnnotationAttribute{NameIdx: nameIdx, Value: value}, nil
	})
	if err != nil {
		return EncodedAnnotation{}, err
	}
	return EncodedAnnotation{TypeIdx: typeIdx, Elements: elements}, nil
}
