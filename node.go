// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// The node model is the resolved, high-level view of a class: pool indices
// dereferenced to strings, attributes interpreted and folded into their
// owning elements. Strings resolved from the pool are plain Go strings;
// string values share their backing storage, so a pool entry used in many
// places never copies bytes.

// ConstValue is a resolved constant-pool value.
type ConstValue interface {
	isConstValue()
}

// InvalidValue resolves the sentinel slots.
type InvalidValue struct{}

// ClassValue is a resolved class reference (internal name).
type ClassValue struct {
	Name string `json:"name"`
}

// MemberValue is a resolved field or method reference.
type MemberValue struct {
	Class string `json:"class"`
	Name  string `json:"name"`
	Desc  string `json:"desc"`
}

// StringValue is a materialized string constant.
type StringValue struct {
	Value string `json:"value"`
}

// IntegerValue is an int constant.
type IntegerValue struct {
	Value int32 `json:"value"`
}

// FloatValue is a float constant.
type FloatValue struct {
	Value float32 `json:"value"`
}

// LongValue is a long constant combined from its two 32-bit halves.
type LongValue struct {
	Value int64 `json:"value"`
}

// DoubleValue is a double constant combined from its two 32-bit halves.
type DoubleValue struct {
	Value float64 `json:"value"`
}

// NameAndTypeValue is a resolved name/descriptor pair.
type NameAndTypeValue struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// MethodHandleValue keeps the raw handle kind and reference index.
type MethodHandleValue struct {
	ReferenceKind  uint8  `json:"reference_kind"`
	ReferenceIndex uint16 `json:"reference_index"`
}

// MethodTypeValue is a resolved method descriptor.
type MethodTypeValue struct {
	Desc string `json:"desc"`
}

// DynamicValue is a resolved Dynamic or InvokeDynamic entry.
type DynamicValue struct {
	BootstrapMethodAttrIndex uint16 `json:"bootstrap_method_attr_index"`
	Name                     string `json:"name"`
	Desc                     string `json:"desc"`
}

// ModuleValue is a resolved module name.
type ModuleValue struct {
	Name string `json:"name"`
}

// PackageValue is a resolved package name.
type PackageValue struct {
	Name string `json:"name"`
}

func (InvalidValue) isConstValue()      {}
func (ClassValue) isConstValue()        {}
func (MemberValue) isConstValue()       {}
func (StringValue) isConstValue()       {}
func (IntegerValue) isConstValue()      {}
func (FloatValue) isConstValue()        {}
func (LongValue) isConstValue()         {}
func (DoubleValue) isConstValue()       {}
func (NameAndTypeValue) isConstValue()  {}
func (MethodHandleValue) isConstValue() {}
func (MethodTypeValue) isConstValue()   {}
func (DynamicValue) isConstValue()      {}
func (ModuleValue) isConstValue()       {}
func (PackageValue) isConstValue()      {}

// ClassNode aggregates everything known about one class.
type ClassNode struct {
	MinorVersion uint16 `json:"minor_version"`
	MajorVersion uint16 `json:"major_version"`
	Access       uint16 `json:"access"`

	// Name is the internal name of this class, e.g. java/lang/Object.
	Name string `json:"name"`

	// Signature is empty when the class is not generic.
	Signature string `json:"signature"`

	// SuperName is empty only for java/lang/Object and module-info.
	SuperName  string   `json:"super_name"`
	Interfaces []string `json:"interfaces"`

	SourceFile  string `json:"source_file"`
	SourceDebug []byte `json:"source_debug"`

	Module *ModuleNode `json:"module"`

	// OuterClass and the outer method pair are set for local and anonymous
	// classes only.
	OuterClass      string `json:"outer_class"`
	OuterMethodName string `json:"outer_method_name"`
	OuterMethodDesc string `json:"outer_method_desc"`

	Annotations     []AnnotationNode     `json:"annotations"`
	TypeAnnotations []TypeAnnotationNode `json:"type_annotations"`

	InnerClasses        []InnerClassNode      `json:"inner_classes"`
	NestHostClass       string                `json:"nest_host_class"`
	NestMembers         []string              `json:"nest_members"`
	PermittedSubclasses []string              `json:"permitted_subclasses"`
	RecordComponents    []RecordComponentNode `json:"record_components"`

	BootstrapMethods []BootstrapMethodNode `json:"bootstrap_methods"`

	Fields  []FieldNode  `json:"fields"`
	Methods []MethodNode `json:"methods"`

	// Attrs keeps attributes outside the recognized registry.
	Attrs []UnknownAttribute `json:"attrs"`
}

// FieldNode is one resolved field.
type FieldNode struct {
	Access    uint16 `json:"access"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Signature string `json:"signature"`

	// Value is the initial value of a static field: IntegerValue,
	// FloatValue, LongValue, DoubleValue or StringValue. Nil when absent.
	Value ConstValue `json:"value"`

	Annotations     []AnnotationNode     `json:"annotations"`
	TypeAnnotations []TypeAnnotationNode `json:"type_annotations"`
	Attrs           []UnknownAttribute   `json:"attrs"`
}

// MethodNode is one resolved method.
type MethodNode struct {
	Access    uint16 `json:"access"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Signature string `json:"signature"`

	Exceptions []string        `json:"exceptions"`
	Parameters []ParameterNode `json:"parameters"`

	Annotations     []AnnotationNode     `json:"annotations"`
	TypeAnnotations []TypeAnnotationNode `json:"type_annotations"`

	// ParameterAnnotations holds one annotation vector per declared
	// parameter slot; the i'th entry may or may not correspond to the i'th
	// descriptor parameter (JVMS §4.7.18).
	ParameterAnnotations [][]AnnotationNode `json:"parameter_annotations"`

	// AnnotationDefault is the default of an annotation interface method.
	AnnotationDefault AnnotationValue `json:"annotation_default"`

	// Code is nil for abstract and native methods.
	Code *CodeBodyNode `json:"code"`

	Attrs []UnknownAttribute `json:"attrs"`
}

// CodeBodyNode is a resolved method body.
type CodeBodyNode struct {
	Instructions   []InsnNode          `json:"instructions"`
	ExceptionTable []TryCatchNode      `json:"exception_table"`
	LocalVariables []LocalVariableNode `json:"local_variables"`

	MaxStack  uint16 `json:"max_stack"`
	MaxLocals uint16 `json:"max_locals"`

	LineNumbers     []LineNumberEntry    `json:"line_numbers"`
	StackMapTable   []StackMapFrame      `json:"stack_map_table"`
	TypeAnnotations []TypeAnnotationNode `json:"type_annotations"`
	Attrs           []UnknownAttribute   `json:"attrs"`
}

// TryCatchNode is one resolved exception-handler range: [Start, End) with
// the handler entry point and the caught type, empty for finally blocks.
type TryCatchNode struct {
	Start     uint16 `json:"start"`
	End       uint16 `json:"end"`
	Handler   uint16 `json:"handler"`
	CatchType string `json:"catch_type"`
}

// LocalVariableNode merges LocalVariableTable and LocalVariableTypeTable
// rows keyed by (start, length, index).
type LocalVariableNode struct {
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Signature string `json:"signature"`
	Start     uint16 `json:"start"`
	End       uint16 `json:"end"`
	Index     uint16 `json:"index"`
}

// InnerClassNode is one resolved InnerClasses row.
type InnerClassNode struct {
	Name      string `json:"name"`
	OuterName string `json:"outer_name"`
	InnerName string `json:"inner_name"`
	Access    uint16 `json:"access"`
}

// RecordComponentNode is one resolved record component.
type RecordComponentNode struct {
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Signature string `json:"signature"`

	Annotations     []AnnotationNode     `json:"annotations"`
	TypeAnnotations []TypeAnnotationNode `json:"type_annotations"`
	Attrs           []UnknownAttribute   `json:"attrs"`
}

// ParameterNode is one resolved method parameter.
type ParameterNode struct {
	Name   string `json:"name"`
	Access uint16 `json:"access"`
}

// ModuleNode is the resolved Module attribute, merged with ModulePackages
// and ModuleMainClass.
type ModuleNode struct {
	Name      string `json:"name"`
	Access    uint16 `json:"access"`
	Version   string `json:"version"`
	MainClass string `json:"main_class"`

	Packages []string            `json:"packages"`
	Requires []ModuleRequireNode `json:"requires"`
	Exports  []ModuleExportNode  `json:"exports"`
	Opens    []ModuleOpenNode    `json:"opens"`
	Uses     []string            `json:"uses"`
	Provides []ModuleProvideNode `json:"provides"`
}

// ModuleRequireNode is one resolved requires row.
type ModuleRequireNode struct {
	Module  string `json:"module"`
	Access  uint16 `json:"access"`
	Version string `json:"version"`
}

// ModuleExportNode is one resolved exports row.
type ModuleExportNode struct {
	Package string   `json:"package"`
	Access  uint16   `json:"access"`
	Modules []string `json:"modules"`
}

// ModuleOpenNode is one resolved opens row.
type ModuleOpenNode struct {
	Package string   `json:"package"`
	Access  uint16   `json:"access"`
	Modules []string `json:"modules"`
}

// ModuleProvideNode is one resolved provides row.
type ModuleProvideNode struct {
	Service   string   `json:"service"`
	Providers []string `json:"providers"`
}

// AnnotationNode is one resolved annotation: type name plus name-value
// pairs.
type AnnotationNode struct {
	Visible  bool                  `json:"visible"`
	TypeName string                `json:"type_name"`
	Values   []AnnotationNodeValue `json:"values"`
}

// AnnotationNodeValue is one element-value pair of an annotation.
type AnnotationNodeValue struct {
	Name  string          `json:"name"`
	Value AnnotationValue `json:"value"`
}

// AnnotationValue is a resolved annotation element value.
type AnnotationValue interface {
	isAnnotationValue()
}

// ConstAnnotationValue wraps a primitive or string constant.
type ConstAnnotationValue struct {
	Value ConstValue `json:"value"`
}

// EnumAnnotationValue is an enum constant reference.
type EnumAnnotationValue struct {
	TypeName  string `json:"type_name"`
	ConstName string `json:"const_name"`
}

// ClassAnnotationValue is a class literal.
type ClassAnnotationValue struct {
	Name string `json:"name"`
}

// NestedAnnotationValue is a nested annotation.
type NestedAnnotationValue struct {
	Annotation AnnotationNode `json:"annotation"`
}

// ArrayAnnotationValue is an array of element values.
type ArrayAnnotationValue struct {
	Values []AnnotationValue `json:"values"`
}

func (ConstAnnotationValue) isAnnotationValue()  {}
func (EnumAnnotationValue) isAnnotationValue()   {}
func (ClassAnnotationValue) isAnnotationValue()  {}
func (NestedAnnotationValue) isAnnotationValue() {}
func (ArrayAnnotationValue) isAnnotationValue()  {}

// TypeAnnotationNode is one resolved type annotation.
type TypeAnnotationNode struct {
	TargetInfo TypeAnnotationTargetInfo `json:"target_info"`
	TargetPath []TypePathStep           `json:"target_path"`
	Annotation AnnotationNode           `json:"annotation"`
}

// BootstrapMethodNode is one resolved BootstrapMethods row.
type BootstrapMethodNode struct {
	MethodHandle ConstValue   `json:"method_handle"`
	Arguments    []ConstValue `json:"arguments"`
}

// UnknownAttribute keeps an unrecognized attribute verbatim.
type UnknownAttribute struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// InsnNode is one resolved JVM instruction.
type InsnNode interface {
	isInsnNode()
}

// Insn is a no-operand instruction.
type Insn struct {
	Opcode uint8 `json:"opcode"`
}

// IntInsn is bipush, sipush or newarray.
type IntInsn struct {
	Opcode  uint8 `json:"opcode"`
	Operand int32 `json:"operand"`
}

// VarInsn is a local-variable load, store or ret. The short _n forms carry
// their implied index.
type VarInsn struct {
	Opcode uint8  `json:"opcode"`
	Var    uint16 `json:"var"`
}

// TypeInsn is new, anewarray, checkcast or instanceof.
type TypeInsn struct {
	Opcode uint8  `json:"opcode"`
	Desc   string `json:"desc"`
}

// FieldInsn is getstatic, putstatic, getfield or putfield.
type FieldInsn struct {
	Opcode uint8  `json:"opcode"`
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
}

// MethodInsn is one of the four plain invoke opcodes.
type MethodInsn struct {
	Opcode      uint8  `json:"opcode"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Desc        string `json:"desc"`
	IsInterface bool   `json:"is_interface"`
}

// InvokeDynamicInsn is an invokedynamic call site.
type InvokeDynamicInsn struct {
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	BsmIndex uint16 `json:"bsm_index"`
}

// JumpInsn is a conditional or unconditional branch; Target is the absolute
// bytecode offset.
type JumpInsn struct {
	Opcode uint8  `json:"opcode"`
	Target uint16 `json:"target"`
}

// LdcInsn pushes a pool constant.
type LdcInsn struct {
	Const ConstValue `json:"const"`
}

// IincInsn increments a local variable.
type IincInsn struct {
	Var  uint16 `json:"var"`
	Incr int16  `json:"incr"`
}

// TableSwitchInsn is a dense switch; Targets[i] handles key Min+i.
type TableSwitchInsn struct {
	Default uint16   `json:"default"`
	Min     int32    `json:"min"`
	Max     int32    `json:"max"`
	Targets []uint16 `json:"targets"`
}

// LookupSwitchInsn is a sparse switch of key/target pairs.
type LookupSwitchInsn struct {
	Default uint16   `json:"default"`
	Keys    []int32  `json:"keys"`
	Targets []uint16 `json:"targets"`
}

// MultiANewArrayInsn allocates a multi-dimensional array.
type MultiANewArrayInsn struct {
	Desc string `json:"desc"`
	Dims uint8  `json:"dims"`
}

func (Insn) isInsnNode()               {}
func (IntInsn) isInsnNode()            {}
func (VarInsn) isInsnNode()            {}
func (TypeInsn) isInsnNode()           {}
func (FieldInsn) isInsnNode()          {}
func (MethodInsn) isInsnNode()         {}
func (InvokeDynamicInsn) isInsnNode()  {}
func (JumpInsn) isInsnNode()           {}
func (LdcInsn) isInsnNode()            {}
func (IincInsn) isInsnNode()           {}
func (TableSwitchInsn) isInsnNode()    {}
func (LookupSwitchInsn) isInsnNode()   {}
func (MultiANewArrayInsn) isInsnNode() {}
