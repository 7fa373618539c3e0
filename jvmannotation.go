// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// AnnotationInfo is one annotation structure, JVMS §4.7.16.
type AnnotationInfo struct {
	TypeIndex         uint16              `json:"type_index"`
	ElementValuePairs []AnnotationElement `json:"element_value_pairs"`
}

// AnnotationElement is one element-value pair of an annotation.
type AnnotationElement struct {
	NameIndex uint16       `json:"element_name_index"`
	Value     ElementValue `json:"value"`
}

// ElementValue is one element_value union member. Exactly one of the operand
// groups is populated, selected by Tag.
type ElementValue struct {
	// Tag is one of 'B' 'C' 'D' 'F' 'I' 'J' 'S' 'Z' 's' 'e' 'c' '@' '['.
	Tag uint8 `json:"tag"`

	// ConstValueIndex is set for primitive and string tags.
	ConstValueIndex uint16 `json:"const_value_index"`

	// TypeNameIndex and ConstNameIndex are set for the enum tag.
	TypeNameIndex  uint16 `json:"type_name_index"`
	ConstNameIndex uint16 `json:"const_name_index"`

	// ClassInfoIndex is set for the class tag.
	ClassInfoIndex uint16 `json:"class_info_index"`

	// Annotation is set for the nested-annotation tag.
	Annotation *AnnotationInfo `json:"annotation_value"`

	// Values is set for the array tag.
	Values []ElementValue `json:"values"`
}

func readAnnotationInfo(rc *ReadContext) (AnnotationInfo, error) {
	typeIndex, err := rc.U16()
	if err != nil {
		return AnnotationInfo{}, err
	}
	numPairs, err := rc.U16()
	if err != nil {
		return AnnotationInfo{}, err
	}
	pairs, err := readVec(rc, int(numPairs), readAnnotationElement)
	if err != nil {
		return AnnotationInfo{}, err
	}
	return AnnotationInfo{TypeIndex: typeIndex, ElementValuePairs: pairs}, nil
}

func readAnnotationElement(rc *ReadContext) (AnnotationElement, error) {
	nameIndex, err := rc.U16()
	if err != nil {
		return AnnotationElement{}, err
	}
	value, err := readElementValue(rc)
	if err != nil {
		return AnnotationElement{}, err
	}
	return AnnotationElement{NameIndex: nameIndex, Value: value}, nil
}

func readElementValue(rc *ReadContext) (ElementValue, error) {
	tag, err := rc.U8()
	if err != nil {
		return ElementValue{}, err
	}
	value := ElementValue{Tag: tag}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		if value.ConstValueIndex, err = rc.U16(); err != nil {
			return ElementValue{}, err
		}
	case 'e':
		if value.TypeNameIndex, err = rc.U16(); err != nil {
			return ElementValue{}, err
		}
		if value.ConstNameIndex, err = rc.U16(); err != nil {
			return ElementValue{}, err
		}
	case 'c':
		if value.ClassInfoIndex, err = rc.U16(); err != nil {
			return ElementValue{}, err
		}
	case '@':
		nested, err := readAnnotationInfo(rc)
		if err != nil {
			return ElementValue{}, err
		}
		value.Annotation = &nested
	case '[':
		numValues, err := rc.U16()
		if err != nil {
			return ElementValue{}, err
		}
		if value.Values, err = readVec(rc, int(numValues),
			readElementValue); err != nil {
			return ElementValue{}, err
		}
	default:
		return ElementValue{}, errIllegalFormat(
			"unknown annotation element tag: %q", tag)
	}
	return value, nil
}

// Type-annotation target types, JVMS §4.7.20.
type TypeAnnotationTargetKind uint8

const (
	TargetTypeParameter TypeAnnotationTargetKind = iota
	TargetSuperType
	TargetTypeParameterBound
	TargetEmpty
	TargetFormalParameter
	TargetThrows
	TargetLocalVar
	TargetCatch
	TargetOffset
	TargetTypeArgument
)

// TypeAnnotation is one type_annotation structure, JVMS §4.7.20.
type TypeAnnotation struct {
	TargetType uint8                    `json:"target_type"`
	TargetInfo TypeAnnotationTargetInfo `json:"target_info"`
	TargetPath []TypePathStep           `json:"target_path"`
	Annotation AnnotationInfo           `json:"annotation"`
}

// TypeAnnotationTargetInfo is the decoded target_info union. Only the
// operands selected by Kind are populated.
type TypeAnnotationTargetInfo struct {
	Kind                 TypeAnnotationTargetKind `json:"kind"`
	TypeParameterIndex   uint8                    `json:"type_parameter_index"`
	BoundIndex           uint8                    `json:"bound_index"`
	SupertypeIndex       uint16                   `json:"supertype_index"`
	FormalParameterIndex uint8                    `json:"formal_parameter_index"`
	ThrowsTypeIndex      uint16                   `json:"throws_type_index"`
	Table                []LocalVarTargetEntry    `json:"table"`
	ExceptionTableIndex  uint16                   `json:"exception_table_index"`
	Offset               uint16                   `json:"offset"`
	TypeArgumentIndex    uint8                    `json:"type_argument_index"`
}

// LocalVarTargetEntry is one localvar_target row.
type LocalVarTargetEntry struct {
	StartPC uint16 `json:"start_pc"`
	Length  uint16 `json:"length"`
	Index   uint16 `json:"index"`
}

// TypePathStep is one type_path step.
type TypePathStep struct {
	TypePathKind      uint8 `json:"type_path_kind"`
	TypeArgumentIndex uint8 `json:"type_argument_index"`
}

func readTypeAnnotation(rc *ReadContext) (TypeAnnotation, error) {
	targetType, err := rc.U8()
	if err != nil {
		return TypeAnnotation{}, err
	}
	info := TypeAnnotationTargetInfo{}
	switch targetType {
	case 0x00, 0x01:
		info.Kind = TargetTypeParameter
		if info.TypeParameterIndex, err = rc.U8(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x10:
		info.Kind = TargetSuperType
		if info.SupertypeIndex, err = rc.U16(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x11, 0x12:
		info.Kind = TargetTypeParameterBound
		if info.TypeParameterIndex, err = rc.U8(); err != nil {
			return TypeAnnotation{}, err
		}
		if info.BoundIndex, err = rc.U8(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x13, 0x14, 0x15:
		info.Kind = TargetEmpty
	case 0x16:
		info.Kind = TargetFormalParameter
		if info.FormalParameterIndex, err = rc.U8(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x17:
		info.Kind = TargetThrows
		if info.ThrowsTypeIndex, err = rc.U16(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x40, 0x41:
		info.Kind = TargetLocalVar
		tableLength, err := rc.U16()
		if err != nil {
			return TypeAnnotation{}, err
		}
		if info.Table, err = readVec(rc, int(tableLength),
			readLocalVarTargetEntry); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x42:
		info.Kind = TargetCatch
		if info.ExceptionTableIndex, err = rc.U16(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x43, 0x44, 0x45, 0x46:
		info.Kind = TargetOffset
		if info.Offset, err = rc.U16(); err != nil {
			return TypeAnnotation{}, err
		}
	case 0x47, 0x48, 0x49, 0x4A, 0x4B:
		info.Kind = TargetTypeArgument
		if info.Offset, err = rc.U16(); err != nil {
			return TypeAnnotation{}, err
		}
		if info.TypeArgumentIndex, err = rc.U8(); err != nil {
			return TypeAnnotation{}, err
		}
	default:
		return TypeAnnotation{}, errIllegalFormat(
			"unknown type annotation target type: %#02x", targetType)
	}

	pathLength, err := rc.U8()
	if err != nil {
		return TypeAnnotation{}, err
	}
	path, err := readVec(rc, int(pathLength), readTypePathStep)
	if err != nil {
		return TypeAnnotation{}, err
	}
	annotation, err := readAnnotationInfo(rc)
	if err != nil {
		return TypeAnnotation{}, err
	}
	return TypeAnnotation{
		TargetType: targetType,
		TargetInfo: info,
		TargetPath: path,
		Annotation: annotation,
	}, nil
}

func readLocalVarTargetEntry(rc *ReadContext) (LocalVarTargetEntry, error) {
	startPC, err := rc.U16()
	if err != nil {
		return LocalVarTargetEntry{}, err
	}
	length, err := rc.U16()
	if err != nil {
		return LocalVarTargetEntry{}, err
	}
	index, err := rc.U16()
	if err != nil {
		return LocalVarTargetEntry{}, err
	}
	return LocalVarTargetEntry{StartPC: startPC, Length: length, Index: index}, nil
}

func readTypePathStep(rc *ReadContext) (TypePathStep, error) {
	kind, err := rc.U8()
	if err != nil {
		return TypePathStep{}, err
	}
	argIndex, err := rc.U8()
	if err != nil {
		return TypePathStep{}, err
	}
	return TypePathStep{TypePathKind: kind, TypeArgumentIndex: argIndex}, nil
}
