// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// transformClassFile is the second decode pass: every attribute captured as
// a raw *CustomAttr is re-decoded into its typed variant by matching its
// name against the attribute registry. Fields first, then methods, then the
// class-level attributes; source order is preserved within each.
func transformClassFile(cf *ClassFile) error {
	for i := range cf.Fields {
		if err := transformAttrs(cf.Fields[i].Attributes, cf.ConstantPool); err != nil {
			return err
		}
	}
	for i := range cf.Methods {
		if err := transformAttrs(cf.Methods[i].Attributes, cf.ConstantPool); err != nil {
			return err
		}
	}
	return transformAttrs(cf.Attributes, cf.ConstantPool)
}

func transformAttrs(attrs []AttributeInfo, cp []CPInfo) error {
	for i := range attrs {
		if err := transformAttr(&attrs[i], cp); err != nil {
			return err
		}
	}
	return nil
}

// rawPoolUTF8 resolves a pool index to a decoded string during the
// transform pass, before the node-level pool cache exists.
func rawPoolUTF8(index uint16, cp []CPInfo) (string, error) {
	if int(index) >= len(cp) {
		return "", errOutOfRange(int(index))
	}
	utf8, ok := cp[index].Info.(UTF8Const)
	if !ok {
		return "", errIllegalFormat(
			"constant pool entry %d is not Utf8 (tag %d)", index, cp[index].Tag)
	}
	return DecodeMUTF8(utf8.Bytes)
}

func transformAttr(attrInfo *AttributeInfo, cp []CPInfo) error {
	custom, ok := attrInfo.Info.(*CustomAttr)
	if !ok {
		return nil
	}
	name, err := rawPoolUTF8(attrInfo.NameIndex, cp)
	if err != nil {
		return err
	}
	rc := BigEndian(custom.Data)
	var attr Attribute
	switch name {
	case AttrConstantValue:
		index, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &ConstantValueAttr{ConstantValueIndex: index}
	case AttrCode:
		code := &CodeAttr{}
		if code.MaxStack, err = rc.U16(); err != nil {
			return err
		}
		if code.MaxLocals, err = rc.U16(); err != nil {
			return err
		}
		codeLength, err := rc.U32()
		if err != nil {
			return err
		}
		if code.Code, err = rc.Bytes(int(codeLength)); err != nil {
			return err
		}
		exceptionCount, err := rc.U16()
		if err != nil {
			return err
		}
		if code.ExceptionTable, err = readVec(rc, int(exceptionCount),
			readExceptionTableEntry); err != nil {
			return err
		}
		attributesCount, err := rc.U16()
		if err != nil {
			return err
		}
		if code.Attributes, err = readVec(rc, int(attributesCount),
			readAttributeInfo); err != nil {
			return err
		}
		if err := transformAttrs(code.Attributes, cp); err != nil {
			return err
		}
		attr = code
	case AttrStackMapTable:
		numEntries, err := rc.U16()
		if err != nil {
			return err
		}
		entries, err := readVec(rc, int(numEntries), readStackMapFrame)
		if err != nil {
			return err
		}
		attr = &StackMapTableAttr{Entries: entries}
	case AttrExceptions:
		numExceptions, err := rc.U16()
		if err != nil {
			return err
		}
		table, err := readU16Vec(rc, int(numExceptions))
		if err != nil {
			return err
		}
		attr = &ExceptionsAttr{ExceptionIndexTable: table}
	case AttrInnerClasses:
		numClasses, err := rc.U16()
		if err != nil {
			return err
		}
		classes, err := readVec(rc, int(numClasses), readInnerClassInfo)
		if err != nil {
			return err
		}
		attr = &InnerClassesAttr{Classes: classes}
	case AttrEnclosingMethod:
		classIndex, err := rc.U16()
		if err != nil {
			return err
		}
		methodIndex, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &EnclosingMethodAttr{ClassIndex: classIndex, MethodIndex: methodIndex}
	case AttrSynthetic:
		attr = &SyntheticAttr{}
	case AttrSignature:
		index, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &SignatureAttr{SignatureIndex: index}
	case AttrSourceFile:
		index, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &SourceFileAttr{SourceFileIndex: index}
	case AttrSourceDebugExtension:
		attr = &SourceDebugExtensionAttr{DebugExtension: custom.Data}
	case AttrLineNumberTable:
		tableLength, err := rc.U16()
		if err != nil {
			return err
		}
		table, err := readVec(rc, int(tableLength), readLineNumberEntry)
		if err != nil {
			return err
		}
		attr = &LineNumberTableAttr{Table: table}
	case AttrLocalVariableTable:
		tableLength, err := rc.U16()
		if err != nil {
			return err
		}
		table, err := readVec(rc, int(tableLength), readLocalVariableEntry)
		if err != nil {
			return err
		}
		attr = &LocalVariableTableAttr{Table: table}
	case AttrLocalVariableTypeTable:
		tableLength, err := rc.U16()
		if err != nil {
			return err
		}
		table, err := readVec(rc, int(tableLength), readLocalVariableTypeEntry)
		if err != nil {
			return err
		}
		attr = &LocalVariableTypeTableAttr{Table: table}
	case AttrDeprecated:
		attr = &DeprecatedAttr{}
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		numAnnotations, err := rc.U16()
		if err != nil {
			return err
		}
		annotations, err := readVec(rc, int(numAnnotations), readAnnotationInfo)
		if err != nil {
			return err
		}
		attr = &AnnotationsAttr{
			Visible:     name == AttrRuntimeVisibleAnnotations,
			Annotations: annotations,
		}
	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		numParameters, err := rc.U8()
		if err != nil {
			return err
		}
		parameters, err := readVec(rc, int(numParameters), readParameterAnnotationInfo)
		if err != nil {
			return err
		}
		attr = &ParameterAnnotationsAttr{
			Visible:    name == AttrRuntimeVisibleParameterAnnotations,
			Parameters: parameters,
		}
	case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
		numAnnotations, err := rc.U16()
		if err != nil {
			return err
		}
		annotations, err := readVec(rc, int(numAnnotations), readTypeAnnotation)
		if err != nil {
			return err
		}
		attr = &TypeAnnotationsAttr{
			Visible:     name == AttrRuntimeVisibleTypeAnnotations,
			Annotations: annotations,
		}
	case AttrAnnotationDefault:
		value, err := readElementValue(rc)
		if err != nil {
			return err
		}
		attr = &AnnotationDefaultAttr{DefaultValue: value}
	case AttrBootstrapMethods:
		numMethods, err := rc.U16()
		if err != nil {
			return err
		}
		methods, err := readVec(rc, int(numMethods), readBootstrapMethod)
		if err != nil {
			return err
		}
		attr = &BootstrapMethodsAttr{BootstrapMethods: methods}
	case AttrMethodParameters:
		parametersCount, err := rc.U8()
		if err != nil {
			return err
		}
		parameters, err := readVec(rc, int(parametersCount), readMethodParameter)
		if err != nil {
			return err
		}
		attr = &MethodParametersAttr{Parameters: parameters}
	case AttrModule:
		module, err := readModuleAttr(rc)
		if err != nil {
			return err
		}
		attr = module
	case AttrModulePackages:
		packageCount, err := rc.U16()
		if err != nil {
			return err
		}
		packages, err := readU16Vec(rc, int(packageCount))
		if err != nil {
			return err
		}
		attr = &ModulePackagesAttr{PackageIndex: packages}
	case AttrModuleMainClass:
		index, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &ModuleMainClassAttr{MainClassIndex: index}
	case AttrNestHost:
		index, err := rc.U16()
		if err != nil {
			return err
		}
		attr = &NestHostAttr{HostClassIndex: index}
	case AttrNestMembers:
		numClasses, err := rc.U16()
		if err != nil {
			return err
		}
		classes, err := readU16Vec(rc, int(numClasses))
		if err != nil {
			return err
		}
		attr = &NestMembersAttr{Classes: classes}
	case AttrRecord:
		componentsCount, err := rc.U16()
		if err != nil {
			return err
		}
		components, err := readVec(rc, int(componentsCount), readRecordComponentInfo)
		if err != nil {
			return err
		}
		for i := range components {
			if err := transformAttrs(components[i].Attributes, cp); err != nil {
				return err
			}
		}
		attr = &RecordAttr{Components: components}
	case AttrPermittedSubclasses:
		numClasses, err := rc.U16()
		if err != nil {
			return err
		}
		classes, err := readU16Vec(rc, int(numClasses))
		if err != nil {
			return err
		}
		attr = &PermittedSubclassesAttr{Classes: classes}
	default:
		// not part of the closed registry, keep the raw bytes
		return nil
	}
	attrInfo.Info = attr
	return nil
}

func readExceptionTableEntry(rc *ReadContext) (ExceptionTableEntry, error) {
	startPC, err := rc.U16()
	if err != nil {
		return ExceptionTableEntry{}, err
	}
	endPC, err := rc.U16()
	if err != nil {
		return ExceptionTableEntry{}, err
	}
	handlerPC, err := rc.U16()
	if err != nil {
		return ExceptionTableEntry{}, err
	}
	catchType, err := rc.U16()
	if err != nil {
		return ExceptionTableEntry{}, err
	}
	return ExceptionTableEntry{
		StartPC:   startPC,
		EndPC:     endPC,
		HandlerPC: handlerPC,
		CatchType: catchType,
	}, nil
}

func readInnerClassInfo(rc *ReadContext) (InnerClassInfo, error) {
	innerIndex, err := rc.U16()
	if err != nil {
		return InnerClassInfo{}, err
	}
	outerIndex, err := rc.U16()
	if err != nil {
		return InnerClassInfo{}, err
	}
	nameIndex, err := rc.U16()
	if err != nil {
		return InnerClassInfo{}, err
	}
	flags, err := rc.U16()
	if err != nil {
		return InnerClassInfo{}, err
	}
	return InnerClassInfo{
		InnerClassInfoIndex:   innerIndex,
		OuterClassInfoIndex:   outerIndex,
		InnerNameIndex:        nameIndex,
		InnerClassAccessFlags: flags,
	}, nil
}

func readLineNumberEntry(rc *ReadContext) (LineNumberEntry, error) {
	startPC, err := rc.U16()
	if err != nil {
		return LineNumberEntry{}, err
	}
	lineNumber, err := rc.U16()
	if err != nil {
		return LineNumberEntry{}, err
	}
	return LineNumberEntry{StartPC: startPC, LineNumber: lineNumber}, nil
}

func readLocalVariableEntry(rc *ReadContext) (LocalVariableEntry, error) {
	var entry LocalVariableEntry
	var err error
	if entry.StartPC, err = rc.U16(); err != nil {
		return LocalVariableEntry{}, err
	}
	if entry.Length, err = rc.U16(); err != nil {
		return LocalVariableEntry{}, err
	}
	if entry.NameIndex, err = rc.U16(); err != nil {
		return LocalVariableEntry{}, err
	}
	if entry.DescriptorIndex, err = rc.U16(); err != nil {
		return LocalVariableEntry{}, err
	}
	if entry.Index, err = rc.U16(); err != nil {
		return LocalVariableEntry{}, err
	}
	return entry, nil
}

func readLocalVariableTypeEntry(rc *ReadContext) (LocalVariableTypeEntry, error) {
	var entry LocalVariableTypeEntry
	var err error
	if entry.StartPC, err = rc.U16(); err != nil {
		return LocalVariableTypeEntry{}, err
	}
	if entry.Length, err = rc.U16(); err != nil {
		return LocalVariableTypeEntry{}, err
	}
	if entry.NameIndex, err = rc.U16(); err != nil {
		return LocalVariableTypeEntry{}, err
	}
	if entry.SignatureIndex, err = rc.U16(); err != nil {
		return LocalVariableTypeEntry{}, err
	}
	if entry.Index, err = rc.U16(); err != nil {
		return LocalVariableTypeEntry{}, err
	}
	return entry, nil
}

func readParameterAnnotationInfo(rc *ReadContext) (ParameterAnnotationInfo, error) {
	numAnnotations, err := rc.U16()
	if err != nil {
		return ParameterAnnotationInfo{}, err
	}
	annotations, err := readVec(rc, int(numAnnotations), readAnnotationInfo)
	if err != nil {
		return ParameterAnnotationInfo{}, err
	}
	return ParameterAnnotationInfo{Annotations: annotations}, nil
}

func readBootstrapMethod(rc *ReadContext) (BootstrapMethod, error) {
	methodRef, err := rc.U16()
	if err != nil {
		return BootstrapMethod{}, err
	}
	numArguments, err := rc.U16()
	if err != nil {
		return BootstrapMethod{}, err
	}
	arguments, err := readU16Vec(rc, int(numArguments))
	if err != nil {
		return BootstrapMethod{}, err
	}
	return BootstrapMethod{MethodRef: methodRef, Arguments: arguments}, nil
}

func readMethodParameter(rc *ReadContext) (MethodParameter, error) {
	nameIndex, err := rc.U16()
	if err != nil {
		return MethodParameter{}, err
	}
	accessFlags, err := rc.U16()
	if err != nil {
		return MethodParameter{}, err
	}
	return MethodParameter{NameIndex: nameIndex, AccessFlags: accessFlags}, nil
}

func readModuleAttr(rc *ReadContext) (*ModuleAttr, error) {
	module := &ModuleAttr{}
	var err error
	if module.ModuleNameIndex, err = rc.U16(); err != nil {
		return nil, err
	}
	if module.ModuleFlags, err = rc.U16(); err != nil {
		return nil, err
	}
	if module.ModuleVersionIndex, err = rc.U16(); err != nil {
		return nil, err
	}
	requiresCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if module.Requires, err = readVec(rc, int(requiresCount),
		readModuleRequires); err != nil {
		return nil, err
	}
	exportsCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if module.Exports, err = readVec(rc, int(exportsCount),
		readModuleExports); err != nil {
		return nil, err
	}
	opensCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if module.Opens, err = readVec(rc, int(opensCount), readModuleOpens); err != nil {
		return nil, err
	}
	usesCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if module.UsesIndex, err = readU16Vec(rc, int(usesCount)); err != nil {
		return nil, err
	}
	providesCount, err := rc.U16()
	if err != nil {
		return nil, err
	}
	if module.Provides, err = readVec(rc, int(providesCount),
		readModuleProvides); err != nil {
		return nil, err
	}
	return module, nil
}

func readModuleRequires(rc *ReadContext) (ModuleRequires, error) {
	var req ModuleRequires
	var err error
	if req.RequiresIndex, err = rc.U16(); err != nil {
		return ModuleRequires{}, err
	}
	if req.RequiresFlags, err = rc.U16(); err != nil {
		return ModuleRequires{}, err
	}
	if req.RequiresVersionIndex, err = rc.U16(); err != nil {
		return ModuleRequires{}, err
	}
	return req, nil
}

func readModuleExports(rc *ReadContext) (ModuleExports, error) {
	var exp ModuleExports
	var err error
	if exp.ExportsIndex, err = rc.U16(); err != nil {
		return ModuleExports{}, err
	}
	if exp.ExportsFlags, err = rc.U16(); err != nil {
		return ModuleExports{}, err
	}
	toCount, err := rc.U16()
	if err != nil {
		return ModuleExports{}, err
	}
	if exp.ExportsToIndex, err = readU16Vec(rc, int(toCount)); err != nil {
		return ModuleExports{}, err
	}
	return exp, nil
}

func readModuleOpens(rc *ReadContext) (ModuleOpens, error) {
	var opens ModuleOpens
	var err error
	if opens.OpensIndex, err = rc.U16(); err != nil {
		return ModuleOpens{}, err
	}
	if opens.OpensFlags, err = rc.U16(); err != nil {
		return ModuleOpens{}, err
	}
	toCount, err := rc.U16()
	if err != nil {
		return ModuleOpens{}, err
	}
	if opens.OpensToIndex, err = readU16Vec(rc, int(toCount)); err != nil {
		return ModuleOpens{}, err
	}
	return opens, nil
}

func readModuleProvides(rc *ReadContext) (ModuleProvides, error) {
	var prov ModuleProvides
	var err error
	if prov.ProvidesIndex, err = rc.U16(); err != nil {
		return ModuleProvides{}, err
	}
	withCount, err := rc.U16()
	if err != nil {
		return ModuleProvides{}, err
	}
	if prov.ProvidesWithIndex, err = readU16Vec(rc, int(withCount)); err != nil {
		return ModuleProvides{}, err
	}
	return prov, nil
}

func readRecordComponentInfo(rc *ReadContext) (RecordComponentInfo, error) {
	nameIndex, err := rc.U16()
	if err != nil {
		return RecordComponentInfo{}, err
	}
	descIndex, err := rc.U16()
	if err != nil {
		return RecordComponentInfo{}, err
	}
	attributesCount, err := rc.U16()
	if err != nil {
		return RecordComponentInfo{}, err
	}
	attributes, err := readVec(rc, int(attributesCount), readAttributeInfo)
	if err != nil {
		return RecordComponentInfo{}, err
	}
	return RecordComponentInfo{
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
		Attributes:      attributes,
	}, nil
}
