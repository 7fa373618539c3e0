// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// NodeFromClass resolves a raw, transformed class file into a ClassNode:
// pool indices are dereferenced through a memoized ConstPool, recognized
// attributes are folded into node fields and everything else is kept as
// UnknownAttribute. Annotation attributes concatenate across occurrences;
// BootstrapMethods is a singleton, a second occurrence is fatal.
func NodeFromClass(cf *ClassFile) (*ClassNode, error) {
	cp := NewConstPool(cf)
	name, err := cp.ClassName()
	if err != nil {
		return nil, err
	}

	node := &ClassNode{
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		Access:       cf.AccessFlags,
		Name:         name,
	}
	if cf.SuperClass != 0 {
		node.SuperName = cp.readClassInfoOrDefault(cf.SuperClass)
	}
	for _, ifaceIndex := range cf.Interfaces {
		node.Interfaces = append(node.Interfaces, cp.readClassInfoOrDefault(ifaceIndex))
	}

	var moduleAttr *ModuleAttr
	var modulePackages []string
	var moduleMain string
	sawBootstrapMethods := false

	for _, attrInfo := range cf.Attributes {
		switch attr := attrInfo.Info.(type) {
		case *SignatureAttr:
			if node.Signature, err = cp.ReadUTF8(attr.SignatureIndex); err != nil {
				return nil, err
			}
		case *SourceFileAttr:
			if node.SourceFile, err = cp.ReadUTF8(attr.SourceFileIndex); err != nil {
				return nil, err
			}
		case *SourceDebugExtensionAttr:
			node.SourceDebug = attr.DebugExtension
		case *ModuleAttr:
			moduleAttr = attr
		case *ModulePackagesAttr:
			for _, index := range attr.PackageIndex {
				pkg, err := cp.ReadConst(index)
				if err != nil {
					return nil, err
				}
				p, ok := pkg.(PackageValue)
				if !ok {
					return nil, errResolveNode(
						"module package index %d is %T", index, pkg)
				}
				modulePackages = append(modulePackages, p.Name)
			}
		case *ModuleMainClassAttr:
			if moduleMain, err = cp.ReadClassInfo(attr.MainClassIndex); err != nil {
				return nil, err
			}
		case *EnclosingMethodAttr:
			if node.OuterClass, err = cp.ReadClassInfo(attr.ClassIndex); err != nil {
				return nil, err
			}
			if attr.MethodIndex != 0 {
				node.OuterMethodName, node.OuterMethodDesc, err =
					cp.ReadNameAndType(attr.MethodIndex)
				if err != nil {
					return nil, err
				}
			}
		case *AnnotationsAttr:
			annotations, err := cp.resolveAnnotations(attr)
			if err != nil {
				return nil, err
			}
			node.Annotations = append(node.Annotations, annotations...)
		case *TypeAnnotationsAttr:
			annotations, err := cp.resolveTypeAnnotations(attr)
			if err != nil {
				return nil, err
			}
			node.TypeAnnotations = append(node.TypeAnnotations, annotations...)
		case *InnerClassesAttr:
			for _, inner := range attr.Classes {
				innerNode, err := cp.resolveInnerClass(inner)
				if err != nil {
					return nil, err
				}
				node.InnerClasses = append(node.InnerClasses, innerNode)
			}
		case *NestHostAttr:
			if node.NestHostClass, err = cp.ReadClassInfo(attr.HostClassIndex); err != nil {
				return nil, err
			}
		case *NestMembersAttr:
			for _, index := range attr.Classes {
				member, err := cp.ReadClassInfo(index)
				if err != nil {
					return nil, err
				}
				node.NestMembers = append(node.NestMembers, member)
			}
		case *PermittedSubclassesAttr:
			for _, index := range attr.Classes {
				sub, err := cp.ReadClassInfo(index)
				if err != nil {
					return nil, err
				}
				node.PermittedSubclasses = append(node.PermittedSubclasses, sub)
			}
		case *RecordAttr:
			for _, component := range attr.Components {
				componentNode, err := cp.resolveRecordComponent(component)
				if err != nil {
					return nil, err
				}
				node.RecordComponents = append(node.RecordComponents, componentNode)
			}
		case *BootstrapMethodsAttr:
			if sawBootstrapMethods {
				return nil, errResolveNode(
					"class %s: at most one BootstrapMethods attribute is allowed",
					name)
			}
			sawBootstrapMethods = true
			for _, method := range attr.BootstrapMethods {
				handle, err := cp.ReadConst(method.MethodRef)
				if err != nil {
					return nil, err
				}
				bsm := BootstrapMethodNode{MethodHandle: handle}
				for _, arg := range method.Arguments {
					value, err := cp.ReadConst(arg)
					if err != nil {
						return nil, err
					}
					bsm.Arguments = append(bsm.Arguments, value)
				}
				node.BootstrapMethods = append(node.BootstrapMethods, bsm)
			}
		default:
			unknown, err := cp.unknownAttr(attrInfo)
			if err != nil {
				return nil, err
			}
			node.Attrs = append(node.Attrs, unknown)
		}
	}

	if moduleAttr != nil {
		module, err := cp.resolveModule(moduleAttr)
		if err != nil {
			return nil, err
		}
		module.Packages = modulePackages
		module.MainClass = moduleMain
		node.Module = module
	}

	for i := range cf.Fields {
		field, err := cp.resolveField(&cf.Fields[i])
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, field)
	}
	for i := range cf.Methods {
		method, err := cp.resolveMethod(&cf.Methods[i])
		if err != nil {
			return nil, err
		}
		node.Methods = append(node.Methods, method)
	}
	return node, nil
}

func (cp *ConstPool) resolveField(info *MemberInfo) (FieldNode, error) {
	name, err := cp.ReadUTF8(info.NameIndex)
	if err != nil {
		return FieldNode{}, err
	}
	desc, err := cp.ReadUTF8(info.DescriptorIndex)
	if err != nil {
		return FieldNode{}, err
	}
	field := FieldNode{Access: info.AccessFlags, Name: name, Desc: desc}

	for _, attrInfo := range info.Attributes {
		switch attr := attrInfo.Info.(type) {
		case *SignatureAttr:
			if field.Signature, err = cp.ReadUTF8(attr.SignatureIndex); err != nil {
				return FieldNode{}, err
			}
		case *ConstantValueAttr:
			value, err := cp.ReadConst(attr.ConstantValueIndex)
			if err != nil {
				return FieldNode{}, err
			}
			switch value.(type) {
			case IntegerValue, FloatValue, LongValue, DoubleValue, StringValue:
				field.Value = value
			default:
				return FieldNode{}, errResolveNode(
					"invalid constant value %T for field %s", value, name)
			}
		case *AnnotationsAttr:
			annotations, err := cp.resolveAnnotations(attr)
			if err != nil {
				return FieldNode{}, err
			}
			field.Annotations = append(field.Annotations, annotations...)
		case *TypeAnnotationsAttr:
			annotations, err := cp.resolveTypeAnnotations(attr)
			if err != nil {
				return FieldNode{}, err
			}
			field.TypeAnnotations = append(field.TypeAnnotations, annotations...)
		default:
			unknown, err := cp.unknownAttr(attrInfo)
			if err != nil {
				return FieldNode{}, err
			}
			field.Attrs = append(field.Attrs, unknown)
		}
	}
	return field, nil
}

func (cp *ConstPool) resolveMethod(info *MemberInfo) (MethodNode, error) {
	name, err := cp.ReadUTF8(info.NameIndex)
	if err != nil {
		return MethodNode{}, err
	}
	desc, err := cp.ReadUTF8(info.DescriptorIndex)
	if err != nil {
		return MethodNode{}, err
	}
	method := MethodNode{Access: info.AccessFlags, Name: name, Desc: desc}

	for _, attrInfo := range info.Attributes {
		switch attr := attrInfo.Info.(type) {
		case *SignatureAttr:
			if method.Signature, err = cp.ReadUTF8(attr.SignatureIndex); err != nil {
				return MethodNode{}, err
			}
		case *ExceptionsAttr:
			for _, index := range attr.ExceptionIndexTable {
				exception, err := cp.ReadClassInfo(index)
				if err != nil {
					return MethodNode{}, err
				}
				method.Exceptions = append(method.Exceptions, exception)
			}
		case *MethodParametersAttr:
			for _, parameter := range attr.Parameters {
				node := ParameterNode{Access: parameter.AccessFlags}
				if parameter.NameIndex != 0 {
					if node.Name, err = cp.ReadUTF8(parameter.NameIndex); err != nil {
						return MethodNode{}, err
					}
				}
				method.Parameters = append(method.Parameters, node)
			}
		case *AnnotationsAttr:
			annotations, err := cp.resolveAnnotations(attr)
			if err != nil {
				return MethodNode{}, err
			}
			method.Annotations = append(method.Annotations, annotations...)
		case *TypeAnnotationsAttr:
			annotations, err := cp.resolveTypeAnnotations(attr)
			if err != nil {
				return MethodNode{}, err
			}
			method.TypeAnnotations = append(method.TypeAnnotations, annotations...)
		case *ParameterAnnotationsAttr:
			for _, parameter := range attr.Parameters {
				var annotations []AnnotationNode
				for i := range parameter.Annotations {
					annotation, err := cp.resolveAnnotation(
						attr.Visible, &parameter.Annotations[i])
					if err != nil {
						return MethodNode{}, err
					}
					annotations = append(annotations, annotation)
				}
				method.ParameterAnnotations = append(
					method.ParameterAnnotations, annotations)
			}
		case *AnnotationDefaultAttr:
			value, err := cp.resolveElementValue(true, &attr.DefaultValue)
			if err != nil {
				return MethodNode{}, err
			}
			method.AnnotationDefault = value
		case *CodeAttr:
			body, err := cp.resolveCodeBody(attr)
			if err != nil {
				return MethodNode{}, err
			}
			method.Code = body
		default:
			unknown, err := cp.unknownAttr(attrInfo)
			if err != nil {
				return MethodNode{}, err
			}
			method.Attrs = append(method.Attrs, unknown)
		}
	}
	return method, nil
}

func (cp *ConstPool) resolveInnerClass(info InnerClassInfo) (InnerClassNode, error) {
	name, err := cp.ReadClassInfo(info.InnerClassInfoIndex)
	if err != nil {
		return InnerClassNode{}, err
	}
	node := InnerClassNode{Name: name, Access: info.InnerClassAccessFlags}
	// absent for local and anonymous classes
	if info.OuterClassInfoIndex != 0 {
		if node.OuterName, err = cp.ReadClassInfo(info.OuterClassInfoIndex); err != nil {
			return InnerClassNode{}, err
		}
	}
	if info.InnerNameIndex != 0 {
		if node.InnerName, err = cp.ReadUTF8(info.InnerNameIndex); err != nil {
			return InnerClassNode{}, err
		}
	}
	return node, nil
}

func (cp *ConstPool) resolveRecordComponent(info RecordComponentInfo) (RecordComponentNode, error) {
	name, err := cp.ReadUTF8(info.NameIndex)
	if err != nil {
		return RecordComponentNode{}, err
	}
	desc, err := cp.ReadUTF8(info.DescriptorIndex)
	if err != nil {
		return RecordComponentNode{}, err
	}
	node := RecordComponentNode{Name: name, Desc: desc}
	for _, attrInfo := range info.Attributes {
		switch attr := attrInfo.Info.(type) {
		case *SignatureAttr:
			if node.Signature, err = cp.ReadUTF8(attr.SignatureIndex); err != nil {
				return RecordComponentNode{}, err
			}
		case *AnnotationsAttr:
			annotations, err := cp.resolveAnnotations(attr)
			if err != nil {
				return RecordComponentNode{}, err
			}
			node.Annotations = append(node.Annotations, annotations...)
		case *TypeAnnotationsAttr:
			annotations, err := cp.resolveTypeAnnotations(attr)
			if err != nil {
				return RecordComponentNode{}, err
			}
			node.TypeAnnotations = append(node.TypeAnnotations, annotations...)
		default:
			unknown, err := cp.unknownAttr(attrInfo)
			if err != nil {
				return RecordComponentNode{}, err
			}
			node.Attrs = append(node.Attrs, unknown)
		}
	}
	return node, nil
}

func (cp *ConstPool) resolveModule(attr *ModuleAttr) (*ModuleNode, error) {
	name, err := cp.ReadConst(attr.ModuleNameIndex)
	if err != nil {
		return nil, err
	}
	moduleName, ok := name.(ModuleValue)
	if !ok {
		return nil, errResolveNode("module name entry is %T", name)
	}
	module := &ModuleNode{Name: moduleName.Name, Access: attr.ModuleFlags}
	if attr.ModuleVersionIndex != 0 {
		if module.Version, err = cp.ReadUTF8(attr.ModuleVersionIndex); err != nil {
			return nil, err
		}
	}
	for _, req := range attr.Requires {
		value, err := cp.ReadConst(req.RequiresIndex)
		if err != nil {
			return nil, err
		}
		required, ok := value.(ModuleValue)
		if !ok {
			return nil, errResolveNode("requires entry is %T", value)
		}
		node := ModuleRequireNode{Module: required.Name, Access: req.RequiresFlags}
		if req.RequiresVersionIndex != 0 {
			if node.Version, err = cp.ReadUTF8(req.RequiresVersionIndex); err != nil {
				return nil, err
			}
		}
		module.Requires = append(module.Requires, node)
	}
	for _, exp := range attr.Exports {
		node, err := cp.resolveModulePackageRow(exp.ExportsIndex, exp.ExportsToIndex)
		if err != nil {
			return nil, err
		}
		module.Exports = append(module.Exports, ModuleExportNode{
			Package: node.pkg, Access: exp.ExportsFlags, Modules: node.modules,
		})
	}
	for _, opens := range attr.Opens {
		node, err := cp.resolveModulePackageRow(opens.OpensIndex, opens.OpensToIndex)
		if err != nil {
			return nil, err
		}
		module.Opens = append(module.Opens, ModuleOpenNode{
			Package: node.pkg, Access: opens.OpensFlags, Modules: node.modules,
		})
	}
	for _, index := range attr.UsesIndex {
		use, err := cp.ReadClassInfo(index)
		if err != nil {
			return nil, err
		}
		module.Uses = append(module.Uses, use)
	}
	for _, prov := range attr.Provides {
		service, err := cp.ReadClassInfo(prov.ProvidesIndex)
		if err != nil {
			return nil, err
		}
		node := ModuleProvideNode{Service: service}
		for _, index := range prov.ProvidesWithIndex {
			provider, err := cp.ReadClassInfo(index)
			if err != nil {
				return nil, err
			}
			node.Providers = append(node.Providers, provider)
		}
		module.Provides = append(module.Provides, node)
	}
	return module, nil
}

type modulePackageRow struct {
	pkg     string
	modules []string
}

func (cp *ConstPool) resolveModulePackageRow(pkgIndex uint16, toIndices []uint16) (modulePackageRow, error) {
	value, err := cp.ReadConst(pkgIndex)
	if err != nil {
		return modulePackageRow{}, err
	}
	pkg, ok := value.(PackageValue)
	if !ok {
		return modulePackageRow{}, errResolveNode("package entry is %T", value)
	}
	row := modulePackageRow{pkg: pkg.Name}
	for _, index := range toIndices {
		value, err := cp.ReadConst(index)
		if err != nil {
			return modulePackageRow{}, err
		}
		module, ok := value.(ModuleValue)
		if !ok {
			return modulePackageRow{}, errResolveNode("module entry is %T", value)
		}
		row.modules = append(row.modules, module.Name)
	}
	return row, nil
}

func (cp *ConstPool) resolveAnnotations(attr *AnnotationsAttr) ([]AnnotationNode, error) {
	var nodes []AnnotationNode
	for i := range attr.Annotations {
		node, err := cp.resolveAnnotation(attr.Visible, &attr.Annotations[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (cp *ConstPool) resolveAnnotation(visible bool, info *AnnotationInfo) (AnnotationNode, error) {
	typeName, err := cp.ReadUTF8(info.TypeIndex)
	if err != nil {
		return AnnotationNode{}, err
	}
	node := AnnotationNode{Visible: visible, TypeName: typeName}
	for i := range info.ElementValuePairs {
		pair := &info.ElementValuePairs[i]
		name, err := cp.ReadUTF8(pair.NameIndex)
		if err != nil {
			return AnnotationNode{}, err
		}
		value, err := cp.resolveElementValue(visible, &pair.Value)
		if err != nil {
			return AnnotationNode{}, err
		}
		node.Values = append(node.Values, AnnotationNodeValue{Name: name, Value: value})
	}
	return node, nil
}

func (cp *ConstPool) resolveElementValue(visible bool, value *ElementValue) (AnnotationValue, error) {
	switch value.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		constValue, err := cp.ReadConst(value.ConstValueIndex)
		if err != nil {
			return nil, err
		}
		return ConstAnnotationValue{Value: constValue}, nil
	case 'e':
		typeName, err := cp.ReadUTF8(value.TypeNameIndex)
		if err != nil {
			return nil, err
		}
		constName, err := cp.ReadUTF8(value.ConstNameIndex)
		if err != nil {
			return nil, err
		}
		return EnumAnnotationValue{TypeName: typeName, ConstName: constName}, nil
	case 'c':
		name, err := cp.ReadUTF8(value.ClassInfoIndex)
		if err != nil {
			return nil, err
		}
		return ClassAnnotationValue{Name: name}, nil
	case '@':
		nested, err := cp.resolveAnnotation(visible, value.Annotation)
		if err != nil {
			return nil, err
		}
		return NestedAnnotationValue{Annotation: nested}, nil
	case '[':
		var values []AnnotationValue
		for i := range value.Values {
			element, err := cp.resolveElementValue(visible, &value.Values[i])
			if err != nil {
				return nil, err
			}
			values = append(values, element)
		}
		return ArrayAnnotationValue{Values: values}, nil
	}
	return nil, errResolveNode("unknown annotation element tag: %q", value.Tag)
}

func (cp *ConstPool) resolveTypeAnnotations(attr *TypeAnnotationsAttr) ([]TypeAnnotationNode, error) {
	var nodes []TypeAnnotationNode
	for i := range attr.Annotations {
		typeAnnotation := &attr.Annotations[i]
		annotation, err := cp.resolveAnnotation(attr.Visible, &typeAnnotation.Annotation)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, TypeAnnotationNode{
			TargetInfo: typeAnnotation.TargetInfo,
			TargetPath: typeAnnotation.TargetPath,
			Annotation: annotation,
		})
	}
	return nodes, nil
}

func (cp *ConstPool) unknownAttr(attrInfo AttributeInfo) (UnknownAttribute, error) {
	name, err := cp.ReadUTF8(attrInfo.NameIndex)
	if err != nil {
		return UnknownAttribute{}, err
	}
	unknown := UnknownAttribute{Name: name}
	if custom, ok := attrInfo.Info.(*CustomAttr); ok {
		unknown.Data = custom.Data
	}
	return unknown, nil
}
