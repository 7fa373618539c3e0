// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// The element layer resolves the id-table indirections of a class_def into
// strings: member names, descriptors and prototypes, with the delta-encoded
// member indices reconstructed by prefix sum.

// ClassElement is the resolved view of one class_def.
type ClassElement struct {
	Descriptor      string `json:"descriptor"`
	AccessFlags     uint32 `json:"access_flags"`
	SuperDescriptor string `json:"super_descriptor"`
	SourceFile      string `json:"source_file"`

	Interfaces []string `json:"interfaces"`

	StaticFields   []FieldElement  `json:"static_fields"`
	InstanceFields []FieldElement  `json:"instance_fields"`
	DirectMethods  []MethodElement `json:"direct_methods"`
	VirtualMethods []MethodElement `json:"virtual_methods"`

	// StaticValues are the initial values of the leading static fields, in
	// field order.
	StaticValues []EncodedValue `json:"static_values"`
}

// FieldElement is one resolved field member.
type FieldElement struct {
	AccessFlags uint32 `json:"access_flags"`
	Name        string `json:"name"`
	Descriptor  string `json:"descriptor"`
}

// MethodElement is one resolved method member.
type MethodElement struct {
	AccessFlags uint32 `json:"access_flags"`
	Name        string `json:"name"`

	ShortyDescriptor string   `json:"shorty_descriptor"`
	ReturnType       string   `json:"return_type"`
	Parameters       []string `json:"parameters"`

	// CodeOff locates the method's code_item, zero for abstract and native
	// methods.
	CodeOff uint32 `json:"code_off"`
}

// GetClassElementAt resolves the i'th class_def into its element view,
// memoized per index.
func (dex *DexFile) GetClassElementAt(i int) (*ClassElement, error) {
	return dex.classElements.GetOrCompute(i, func(i int) (*ClassElement, error) {
		return dex.GetClassElement(dex.ClassDefs[i])
	})
}

// GetClassElement resolves one class_def into its element view.
func (dex *DexFile) GetClassElement(def ClassDef) (*ClassElement, error) {
	descriptor, _, err := dex.GetTypeDescriptor(def.ClassIdx)
	if err != nil {
		return nil, err
	}
	element := &ClassElement{
		Descriptor:  descriptor,
		AccessFlags: def.AccessFlags,
	}
	if superDesc, ok, err := dex.GetTypeDescriptor(def.SuperclassIdx); err != nil {
		return nil, err
	} else if ok {
		element.SuperDescriptor = superDesc
	}
	if def.SourceFileIdx != NoIndex {
		if element.SourceFile, err = dex.GetString(def.SourceFileIdx); err != nil {
			return nil, err
		}
	}
	if def.InterfacesOff != 0 {
		typeList, err := dex.GetTypeList(def.InterfacesOff)
		if err != nil {
			return nil, err
		}
		for _, typeIdx := range typeList.TypeIdxList {
			iface, _, err := dex.GetTypeDescriptor(uint32(typeIdx))
			if err != nil {
				return nil, err
			}
			element.Interfaces = append(element.Interfaces, iface)
		}
	}
	if def.ClassDataOff != 0 {
		classData, err := dex.GetClassData(def.ClassDataOff)
		if err != nil {
			return nil, err
		}
		if element.StaticFields, err = dex.resolveFields(classData.StaticFields); err != nil {
			return nil, err
		}
		if element.InstanceFields, err = dex.resolveFields(classData.InstanceFields); err != nil {
			return nil, err
		}
		if element.DirectMethods, err = dex.resolveMethods(classData.DirectMethods); err != nil {
			return nil, err
		}
		if element.VirtualMethods, err = dex.resolveMethods(classData.VirtualMethods); err != nil {
			return nil, err
		}
	}
	if def.StaticValuesOff != 0 {
		array, err := dex.GetEncodedArray(def.StaticValuesOff)
		if err != nil {
			return nil, err
		}
		element.StaticValues = array.Values
	}
	return element, nil
}

// resolveFields reconstructs absolute field_ids indices by prefix sum and
// resolves each to name and descriptor.
func (dex *DexFile) resolveFields(encoded []EncodedField) ([]FieldElement, error) {
	var elements []FieldElement
	var fieldIdx uint32
	for i, field := range encoded {
		if i == 0 {
			fieldIdx = field.FieldIdxDiff
		} else {
			fieldIdx += field.FieldIdxDiff
		}
		if int(fieldIdx) >= len(dex.FieldIDs) {
			return nil, errOutOfRange(int(fieldIdx))
		}
		id := dex.FieldIDs[fieldIdx]
		name, err := dex.GetString(id.NameIdx)
		if err != nil {
			return nil, err
		}
		descriptor, _, err := dex.GetTypeDescriptor(uint32(id.TypeIdx))
		if err != nil {
			return nil, err
		}
		elements = append(elements, FieldElement{
			AccessFlags: field.AccessFlags,
			Name:        name,
			Descriptor:  descriptor,
		})
	}
	return elements, nil
}

// resolveMethods mirrors resolveFields for method members, including the
// prototype expansion.
func (dex *DexFile) resolveMethods(encoded []EncodedMethod) ([]MethodElement, error) {
	var elements []MethodElement
	var methodIdx uint32
	for i, method := range encoded {
		if i == 0 {
			methodIdx = method.MethodIdxDiff
		} else {
			methodIdx += method.MethodIdxDiff
		}
		if int(methodIdx) >= len(dex.MethodIDs) {
			return nil, errOutOfRange(int(methodIdx))
		}
		id := dex.MethodIDs[methodIdx]
		name, err := dex.GetString(id.NameIdx)
		if err != nil {
			return nil, err
		}
		if int(id.ProtoIdx) >= len(dex.ProtoIDs) {
			return nil, errOutOfRange(int(id.ProtoIdx))
		}
		proto := dex.ProtoIDs[id.ProtoIdx]
		shorty, err := dex.GetString(proto.ShortyIdx)
		if err != nil {
			return nil, err
		}
		returnType, _, err := dex.GetTypeDescriptor(proto.ReturnTypeIdx)
		if err != nil {
			return nil, err
		}
		element := MethodElement{
			AccessFlags:      method.AccessFlags,
			Name:             name,
			ShortyDescriptor: shorty,
			ReturnType:       returnType,
			CodeOff:          method.CodeOff,
		}
		if proto.ParametersOff != 0 {
			typeList, err := dex.GetTypeList(proto.ParametersOff)
			if err != nil {
				return nil, err
			}
			for _, typeIdx := range typeList.TypeIdxList {
				parameter, _, err := dex.GetTypeDescriptor(uint32(typeIdx))
				if err != nil {
					return nil, err
				}
				element.Parameters = append(element.Parameters, parameter)
			}
		}
		elements = append(elements, element)
	}
	return elements, nil
}
