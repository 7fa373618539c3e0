// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// ClassFile is the raw structural model of a JVM class file, laid out as in
// JVMS §4.1. Indices are 1-based references into the constant pool.
type ClassFile struct {
	Magic        uint32 `json:"magic"`
	MinorVersion uint16 `json:"minor_version"`
	MajorVersion uint16 `json:"major_version"`

	// ConstantPool is 1-indexed: the entry at index 0 is the Invalid
	// sentinel. A Long or Double entry occupies two slots, the slot after it
	// holds another Invalid sentinel.
	ConstantPoolCount uint16   `json:"constant_pool_count"`
	ConstantPool      []CPInfo `json:"constant_pool"`

	AccessFlags uint16   `json:"access_flags"`
	ThisClass   uint16   `json:"this_class"`
	SuperClass  uint16   `json:"super_class"`
	Interfaces  []uint16 `json:"interfaces"`

	Fields     []MemberInfo    `json:"fields"`
	Methods    []MemberInfo    `json:"methods"`
	Attributes []AttributeInfo `json:"attributes"`
}

// IsPreview reports whether the class version carries the preview flag.
func (cf *ClassFile) IsPreview() bool {
	version := uint32(cf.MinorVersion)<<16 | uint32(cf.MajorVersion)
	return version&VPreview == VPreview
}

// CPInfo is one constant-pool slot: the raw tag plus the decoded entry.
type CPInfo struct {
	Tag  uint8 `json:"tag"`
	Info Const `json:"info"`
}

// Const is a raw constant-pool entry. The concrete type is one of the
// *Const structs below, matching the tag of the enclosing CPInfo.
type Const interface {
	isConst()
}

// InvalidConst fills index 0 and the dead slot after a Long or Double.
type InvalidConst struct{}

// UTF8Const holds the raw bytes of a CONSTANT_Utf8_info entry. The bytes
// are modified UTF-8 and stay undecoded until node resolution.
type UTF8Const struct {
	Bytes []byte `json:"bytes"`
}

// IntegerConst is a CONSTANT_Integer_info entry.
type IntegerConst struct {
	Bytes uint32 `json:"bytes"`
}

// FloatConst is a CONSTANT_Float_info entry, IEEE 754 single format.
type FloatConst struct {
	Bytes uint32 `json:"bytes"`
}

// LongConst is a CONSTANT_Long_info entry, split in two big-endian halves.
type LongConst struct {
	HighBytes uint32 `json:"high_bytes"`
	LowBytes  uint32 `json:"low_bytes"`
}

// DoubleConst is a CONSTANT_Double_info entry, IEEE 754 double format.
type DoubleConst struct {
	HighBytes uint32 `json:"high_bytes"`
	LowBytes  uint32 `json:"low_bytes"`
}

// ClassConst is a CONSTANT_Class_info entry.
type ClassConst struct {
	NameIndex uint16 `json:"name_index"`
}

// StringConst is a CONSTANT_String_info entry.
type StringConst struct {
	StringIndex uint16 `json:"string_index"`
}

// RefConst is a CONSTANT_Fieldref, Methodref or InterfaceMethodref entry;
// the enclosing tag tells which.
type RefConst struct {
	ClassIndex       uint16 `json:"class_index"`
	NameAndTypeIndex uint16 `json:"name_and_type_index"`
}

// NameAndTypeConst is a CONSTANT_NameAndType_info entry.
type NameAndTypeConst struct {
	NameIndex       uint16 `json:"name_index"`
	DescriptorIndex uint16 `json:"descriptor_index"`
}

// MethodHandleConst is a CONSTANT_MethodHandle_info entry.
type MethodHandleConst struct {
	ReferenceKind  uint8  `json:"reference_kind"`
	ReferenceIndex uint16 `json:"reference_index"`
}

// MethodTypeConst is a CONSTANT_MethodType_info entry.
type MethodTypeConst struct {
	DescriptorIndex uint16 `json:"descriptor_index"`
}

// DynamicConst is a CONSTANT_Dynamic or CONSTANT_InvokeDynamic entry; the
// enclosing tag tells which.
type DynamicConst struct {
	BootstrapMethodAttrIndex uint16 `json:"bootstrap_method_attr_index"`
	NameAndTypeIndex         uint16 `json:"name_and_type_index"`
}

// ModuleConst is a CONSTANT_Module_info entry.
type ModuleConst struct {
	NameIndex uint16 `json:"name_index"`
}

// PackageConst is a CONSTANT_Package_info entry.
type PackageConst struct {
	NameIndex uint16 `json:"name_index"`
}

func (InvalidConst) isConst()      {}
func (UTF8Const) isConst()         {}
func (IntegerConst) isConst()      {}
func (FloatConst) isConst()        {}
func (LongConst) isConst()         {}
func (DoubleConst) isConst()       {}
func (ClassConst) isConst()        {}
func (StringConst) isConst()       {}
func (RefConst) isConst()          {}
func (NameAndTypeConst) isConst()  {}
func (MethodHandleConst) isConst() {}
func (MethodTypeConst) isConst()   {}
func (DynamicConst) isConst()      {}
func (ModuleConst) isConst()       {}
func (PackageConst) isConst()      {}

// MemberInfo is a field_info or method_info record; both share the same
// byte layout.
type MemberInfo struct {
	AccessFlags     uint16          `json:"access_flags"`
	NameIndex       uint16          `json:"name_index"`
	DescriptorIndex uint16          `json:"descriptor_index"`
	Attributes      []AttributeInfo `json:"attributes"`
}

// AttributeInfo is one attribute table entry. In pass one Info is always a
// *CustomAttr holding the raw body; pass two re-decodes recognized names
// into their typed variants.
type AttributeInfo struct {
	NameIndex uint16    `json:"attribute_name_index"`
	Length    uint32    `json:"attribute_length"`
	Info      Attribute `json:"info"`
}

// Attribute is a decoded attribute body. Unknown attribute names stay
// *CustomAttr after the transform pass.
type Attribute interface {
	isAttr()
}

// CustomAttr carries an attribute body verbatim.
type CustomAttr struct {
	Data []byte `json:"data"`
}

// ConstantValueAttr points at the pool entry holding a field's initial
// value.
type ConstantValueAttr struct {
	ConstantValueIndex uint16 `json:"constantvalue_index"`
}

// CodeAttr is a method body: bytecode, exception table and nested
// attributes.
type CodeAttr struct {
	MaxStack       uint16                `json:"max_stack"`
	MaxLocals      uint16                `json:"max_locals"`
	Code           []byte                `json:"code"`
	ExceptionTable []ExceptionTableEntry `json:"exception_table"`
	Attributes     []AttributeInfo       `json:"attributes"`
}

// ExceptionTableEntry is one handler range of a Code attribute.
type ExceptionTableEntry struct {
	StartPC   uint16 `json:"start_pc"`
	EndPC     uint16 `json:"end_pc"`
	HandlerPC uint16 `json:"handler_pc"`
	CatchType uint16 `json:"catch_type"`
}

// StackMapTableAttr holds the verification frames of a Code attribute.
type StackMapTableAttr struct {
	Entries []StackMapFrame `json:"entries"`
}

// ExceptionsAttr lists the checked exceptions a method declares.
type ExceptionsAttr struct {
	ExceptionIndexTable []uint16 `json:"exception_index_table"`
}

// InnerClassesAttr lists every nested class referenced by this class.
type InnerClassesAttr struct {
	Classes []InnerClassInfo `json:"classes"`
}

// InnerClassInfo is one InnerClasses table row.
type InnerClassInfo struct {
	InnerClassInfoIndex   uint16 `json:"inner_class_info_index"`
	OuterClassInfoIndex   uint16 `json:"outer_class_info_index"`
	InnerNameIndex        uint16 `json:"inner_name_index"`
	InnerClassAccessFlags uint16 `json:"inner_class_access_flags"`
}

// EnclosingMethodAttr locates the method a local or anonymous class is
// defined in. MethodIndex may be zero.
type EnclosingMethodAttr struct {
	ClassIndex  uint16 `json:"class_index"`
	MethodIndex uint16 `json:"method_index"`
}

// SyntheticAttr marks a compiler-generated member.
type SyntheticAttr struct{}

// SignatureAttr points at a generic signature string.
type SignatureAttr struct {
	SignatureIndex uint16 `json:"signature_index"`
}

// SourceFileAttr points at the compilation unit name.
type SourceFileAttr struct {
	SourceFileIndex uint16 `json:"sourcefile_index"`
}

// SourceDebugExtensionAttr carries extended debug info verbatim.
type SourceDebugExtensionAttr struct {
	DebugExtension []byte `json:"debug_extension"`
}

// LineNumberTableAttr maps bytecode offsets to source lines.
type LineNumberTableAttr struct {
	Table []LineNumberEntry `json:"line_number_table"`
}

// LineNumberEntry is one LineNumberTable row.
type LineNumberEntry struct {
	StartPC    uint16 `json:"start_pc"`
	LineNumber uint16 `json:"line_number"`
}

// LocalVariableTableAttr describes local variable ranges for debuggers.
type LocalVariableTableAttr struct {
	Table []LocalVariableEntry `json:"local_variable_table"`
}

// LocalVariableEntry is one LocalVariableTable row. A long or double local
// occupies Index and Index+1.
type LocalVariableEntry struct {
	StartPC         uint16 `json:"start_pc"`
	Length          uint16 `json:"length"`
	NameIndex       uint16 `json:"name_index"`
	DescriptorIndex uint16 `json:"descriptor_index"`
	Index           uint16 `json:"index"`
}

// LocalVariableTypeTableAttr mirrors LocalVariableTable for generic
// signatures.
type LocalVariableTypeTableAttr struct {
	Table []LocalVariableTypeEntry `json:"local_variable_type_table"`
}

// LocalVariableTypeEntry is one LocalVariableTypeTable row.
type LocalVariableTypeEntry struct {
	StartPC        uint16 `json:"start_pc"`
	Length         uint16 `json:"length"`
	NameIndex      uint16 `json:"name_index"`
	SignatureIndex uint16 `json:"signature_index"`
	Index          uint16 `json:"index"`
}

// DeprecatedAttr marks a deprecated member.
type DeprecatedAttr struct{}

// AnnotationsAttr holds RuntimeVisibleAnnotations or
// RuntimeInvisibleAnnotations; Visible tells which.
type AnnotationsAttr struct {
	Visible     bool             `json:"visible"`
	Annotations []AnnotationInfo `json:"annotations"`
}

// ParameterAnnotationsAttr holds per-parameter annotation tables.
type ParameterAnnotationsAttr struct {
	Visible    bool                      `json:"visible"`
	Parameters []ParameterAnnotationInfo `json:"parameter_annotations"`
}

// ParameterAnnotationInfo is the annotation table of one parameter.
type ParameterAnnotationInfo struct {
	Annotations []AnnotationInfo `json:"annotations"`
}

// TypeAnnotationsAttr holds RuntimeVisibleTypeAnnotations or
// RuntimeInvisibleTypeAnnotations.
type TypeAnnotationsAttr struct {
	Visible     bool             `json:"visible"`
	Annotations []TypeAnnotation `json:"annotations"`
}

// AnnotationDefaultAttr holds the default value of an annotation interface
// method.
type AnnotationDefaultAttr struct {
	DefaultValue ElementValue `json:"default_value"`
}

// BootstrapMethodsAttr lists the bootstrap methods referenced by dynamic
// pool entries. At most one per class.
type BootstrapMethodsAttr struct {
	BootstrapMethods []BootstrapMethod `json:"bootstrap_methods"`
}

// BootstrapMethod is one BootstrapMethods row.
type BootstrapMethod struct {
	MethodRef uint16   `json:"bootstrap_method_ref"`
	Arguments []uint16 `json:"bootstrap_arguments"`
}

// MethodParametersAttr names formal parameters.
type MethodParametersAttr struct {
	Parameters []MethodParameter `json:"parameters"`
}

// MethodParameter is one MethodParameters row. NameIndex may be zero.
type MethodParameter struct {
	NameIndex   uint16 `json:"name_index"`
	AccessFlags uint16 `json:"access_flags"`
}

// ModuleAttr is the Module attribute of a module-info class.
type ModuleAttr struct {
	ModuleNameIndex    uint16           `json:"module_name_index"`
	ModuleFlags        uint16           `json:"module_flags"`
	ModuleVersionIndex uint16           `json:"module_version_index"`
	Requires           []ModuleRequires `json:"requires"`
	Exports            []ModuleExports  `json:"exports"`
	Opens              []ModuleOpens    `json:"opens"`
	UsesIndex          []uint16         `json:"uses_index"`
	Provides           []ModuleProvides `json:"provides"`
}

// ModuleRequires is one requires row of the Module attribute.
type ModuleRequires struct {
	RequiresIndex        uint16 `json:"requires_index"`
	RequiresFlags        uint16 `json:"requires_flags"`
	RequiresVersionIndex uint16 `json:"requires_version_index"`
}

// ModuleExports is one exports row of the Module attribute.
type ModuleExports struct {
	ExportsIndex   uint16   `json:"exports_index"`
	ExportsFlags   uint16   `json:"exports_flags"`
	ExportsToIndex []uint16 `json:"exports_to_index"`
}

// ModuleOpens is one opens row of the Module attribute.
type ModuleOpens struct {
	OpensIndex   uint16   `json:"opens_index"`
	OpensFlags   uint16   `json:"opens_flags"`
	OpensToIndex []uint16 `json:"opens_to_index"`
}

// ModuleProvides is one provides row of the Module attribute.
type ModuleProvides struct {
	ProvidesIndex     uint16   `json:"provides_index"`
	ProvidesWithIndex []uint16 `json:"provides_with_index"`
}

// ModulePackagesAttr lists all packages of a module.
type ModulePackagesAttr struct {
	PackageIndex []uint16 `json:"package_index"`
}

// ModuleMainClassAttr points at the module's main class.
type ModuleMainClassAttr struct {
	MainClassIndex uint16 `json:"main_class_index"`
}

// NestHostAttr points at the host class of this class's nest.
type NestHostAttr struct {
	HostClassIndex uint16 `json:"host_class_index"`
}

// NestMembersAttr lists the members of the nest hosted by this class.
type NestMembersAttr struct {
	Classes []uint16 `json:"classes"`
}

// RecordAttr lists the components of a record class.
type RecordAttr struct {
	Components []RecordComponentInfo `json:"components"`
}

// RecordComponentInfo is one Record table row.
type RecordComponentInfo struct {
	NameIndex       uint16          `json:"name_index"`
	DescriptorIndex uint16          `json:"descriptor_index"`
	Attributes      []AttributeInfo `json:"attributes"`
}

// PermittedSubclassesAttr lists the allowed direct subclasses of a sealed
// class.
type PermittedSubclassesAttr struct {
	Classes []uint16 `json:"classes"`
}

func (*CustomAttr) isAttr()                 {}
func (*ConstantValueAttr) isAttr()          {}
func (*CodeAttr) isAttr()                   {}
func (*StackMapTableAttr) isAttr()          {}
func (*ExceptionsAttr) isAttr()             {}
func (*InnerClassesAttr) isAttr()           {}
func (*EnclosingMethodAttr) isAttr()        {}
func (*SyntheticAttr) isAttr()              {}
func (*SignatureAttr) isAttr()              {}
func (*SourceFileAttr) isAttr()             {}
func (*SourceDebugExtensionAttr) isAttr()   {}
func (*LineNumberTableAttr) isAttr()        {}
func (*LocalVariableTableAttr) isAttr()     {}
func (*LocalVariableTypeTableAttr) isAttr() {}
func (*DeprecatedAttr) isAttr()             {}
func (*AnnotationsAttr) isAttr()            {}
func (*ParameterAnnotationsAttr) isAttr()   {}
func (*TypeAnnotationsAttr) isAttr()        {}
func (*AnnotationDefaultAttr) isAttr()      {}
func (*BootstrapMethodsAttr) isAttr()       {}
func (*MethodParametersAttr) isAttr()       {}
func (*ModuleAttr) isAttr()                 {}
func (*ModulePackagesAttr) isAttr()         {}
func (*ModuleMainClassAttr) isAttr()        {}
func (*NestHostAttr) isAttr()               {}
func (*NestMembersAttr) isAttr()            {}
func (*RecordAttr) isAttr()                 {}
func (*PermittedSubclassesAttr) isAttr()    {}
