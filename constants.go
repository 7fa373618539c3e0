// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// ClassMagic is the leading u4 of every class file.
const ClassMagic = 0xCAFEBABE

// Java class-file versions. The minor version is stored in the 16 most
// significant bits and the major version in the 16 least significant bits.
const (
	V1_1 = 3<<16 | 45
	V1_2 = 0<<16 | 46
	V1_3 = 0<<16 | 47
	V1_4 = 0<<16 | 48
	V1_5 = 0<<16 | 49
	V1_6 = 0<<16 | 50
	V1_7 = 0<<16 | 51
	V1_8 = 0<<16 | 52
	V9   = 0<<16 | 53
	V10  = 0<<16 | 54
	V11  = 0<<16 | 55
	V12  = 0<<16 | 56
	V13  = 0<<16 | 57
	V14  = 0<<16 | 58
	V15  = 0<<16 | 59
	V16  = 0<<16 | 60
	V17  = 0<<16 | 61
	V18  = 0<<16 | 62
	V19  = 0<<16 | 63
	V20  = 0<<16 | 64
	V21  = 0<<16 | 65
	V22  = 0<<16 | 66
	V23  = 0<<16 | 67

	// VPreview flags a class using preview features:
	// version&VPreview == VPreview.
	VPreview = 0xFFFF0000
)

// Constant-pool entry tags, JVMS §4.4.
const (
	ConstantInvalid            = 0
	ConstantUtf8               = 1
	ConstantInteger            = 3
	ConstantFloat              = 4
	ConstantLong               = 5
	ConstantDouble             = 6
	ConstantClass              = 7
	ConstantString             = 8
	ConstantFieldref           = 9
	ConstantMethodref          = 10
	ConstantInterfaceMethodref = 11
	ConstantNameAndType        = 12
	ConstantMethodHandle       = 15
	ConstantMethodType         = 16
	ConstantDynamic            = 17
	ConstantInvokeDynamic      = 18
	ConstantModule             = 19
	ConstantPackage            = 20
)

// Access-flag bit masks, JVMS §4.1/4.5/4.6/4.7.25. The same bit can carry a
// different meaning per declaration site, e.g. 0x0020 is SUPER on a class
// and SYNCHRONIZED on a method.
const (
	AccPublic       = 0x0001 // class, field, method
	AccPrivate      = 0x0002 // class, field, method
	AccProtected    = 0x0004 // class, field, method
	AccStatic       = 0x0008 // field, method
	AccFinal        = 0x0010 // class, field, method, parameter
	AccSuper        = 0x0020 // class
	AccSynchronized = 0x0020 // method
	AccOpen         = 0x0020 // module
	AccTransitive   = 0x0020 // module requires
	AccVolatile     = 0x0040 // field
	AccBridge       = 0x0040 // method
	AccStaticPhase  = 0x0040 // module requires
	AccVarargs      = 0x0080 // method
	AccTransient    = 0x0080 // field
	AccNative       = 0x0100 // method
	AccInterface    = 0x0200 // class
	AccAbstract     = 0x0400 // class, method
	AccStrict       = 0x0800 // method
	AccSynthetic    = 0x1000 // class, field, method, parameter, module
	AccAnnotation   = 0x2000 // class
	AccEnum         = 0x4000 // class, field, inner
	AccMandated     = 0x8000 // field, method, parameter, module
	AccModule       = 0x8000 // class
)

// DEX method-specific access flags extending the JVM set.
const (
	AccConstructor          = 0x10000
	AccDeclaredSynchronized = 0x20000
)

// Method-handle reference kinds, JVMS §4.4.8.
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

// newarray operand types, JVMS §6.5.
const (
	TBoolean = 4
	TChar    = 5
	TFloat   = 6
	TDouble  = 7
	TByte    = 8
	TShort   = 9
	TInt     = 10
	TLong    = 11
)

// Verification type tags in stack-map frames, JVMS §4.7.4.
const (
	ItemTop               = 0
	ItemInteger           = 1
	ItemFloat             = 2
	ItemDouble            = 3
	ItemLong              = 4
	ItemNull              = 5
	ItemUninitializedThis = 6
	ItemObject            = 7
	ItemUninitialized     = 8
)

// Attribute names, in the order they are defined in JVMS §4.7.
const (
	AttrConstantValue                        = "ConstantValue"
	AttrCode                                 = "Code"
	AttrStackMapTable                        = "StackMapTable"
	AttrExceptions                           = "Exceptions"
	AttrInnerClasses                         = "InnerClasses"
	AttrEnclosingMethod                      = "EnclosingMethod"
	AttrSynthetic                            = "Synthetic"
	AttrSignature                            = "Signature"
	AttrSourceFile                           = "SourceFile"
	AttrSourceDebugExtension                 = "SourceDebugExtension"
	AttrLineNumberTable                      = "LineNumberTable"
	AttrLocalVariableTable                   = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrDeprecated                           = "Deprecated"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	AttrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	AttrAnnotationDefault                    = "AnnotationDefault"
	AttrBootstrapMethods                     = "BootstrapMethods"
	AttrMethodParameters                     = "MethodParameters"
	AttrModule                               = "Module"
	AttrModulePackages                       = "ModulePackages"
	AttrModuleMainClass                      = "ModuleMainClass"
	AttrNestHost                             = "NestHost"
	AttrNestMembers                          = "NestMembers"
	AttrRecord                               = "Record"
	AttrPermittedSubclasses                  = "PermittedSubclasses"
)

// ObjectInternalName is the internal name of java.lang.Object, the implied
// super class when none resolves.
const ObjectInternalName = "java/lang/Object"

// JVM opcodes, JVMS §6.5.
const (
	OpNop             = 0
	OpAconstNull      = 1
	OpIconstM1        = 2
	OpIconst0         = 3
	OpIconst1         = 4
	OpIconst2         = 5
	OpIconst3         = 6
	OpIconst4         = 7
	OpIconst5         = 8
	OpLconst0         = 9
	OpLconst1         = 10
	OpFconst0         = 11
	OpFconst1         = 12
	OpFconst2         = 13
	OpDconst0         = 14
	OpDconst1         = 15
	OpBipush          = 16
	OpSipush          = 17
	OpLdc             = 18
	OpLdcW            = 19
	OpLdc2W           = 20
	OpIload           = 21
	OpLload           = 22
	OpFload           = 23
	OpDload           = 24
	OpAload           = 25
	OpIload0          = 26
	OpIload1          = 27
	OpIload2          = 28
	OpIload3          = 29
	OpLload0          = 30
	OpLload1          = 31
	OpLload2          = 32
	OpLload3          = 33
	OpFload0          = 34
	OpFload1          = 35
	OpFload2          = 36
	OpFload3          = 37
	OpDload0          = 38
	OpDload1          = 39
	OpDload2          = 40
	OpDload3          = 41
	OpAload0          = 42
	OpAload1          = 43
	OpAload2          = 44
	OpAload3          = 45
	OpIaload          = 46
	OpLaload          = 47
	OpFaload          = 48
	OpDaload          = 49
	OpAaload          = 50
	OpBaload          = 51
	OpCaload          = 52
	OpSaload          = 53
	OpIstore          = 54
	OpLstore          = 55
	OpFstore          = 56
	OpDstore          = 57
	OpAstore          = 58
	OpIstore0         = 59
	OpIstore1         = 60
	OpIstore2         = 61
	OpIstore3         = 62
	OpLstore0         = 63
	OpLstore1         = 64
	OpLstore2         = 65
	OpLstore3         = 66
	OpFstore0         = 67
	OpFstore1         = 68
	OpFstore2         = 69
	OpFstore3         = 70
	OpDstore0         = 71
	OpDstore1         = 72
	OpDstore2         = 73
	OpDstore3         = 74
	OpAstore0         = 75
	OpAstore1         = 76
	OpAstore2         = 77
	OpAstore3         = 78
	OpIastore         = 79
	OpLastore         = 80
	OpFastore         = 81
	OpDastore         = 82
	OpAastore         = 83
	OpBastore         = 84
	OpCastore         = 85
	OpSastore         = 86
	OpPop             = 87
	OpPop2            = 88
	OpDup             = 89
	OpDupX1           = 90
	OpDupX2           = 91
	OpDup2            = 92
	OpDup2X1          = 93
	OpDup2X2          = 94
	OpSwap            = 95
	OpIadd            = 96
	OpLadd            = 97
	OpFadd            = 98
	OpDadd            = 99
	OpIsub            = 100
	OpLsub            = 101
	OpFsub            = 102
	OpDsub            = 103
	OpImul            = 104
	OpLmul            = 105
	OpFmul            = 106
	OpDmul            = 107
	OpIdiv            = 108
	OpLdiv            = 109
	OpFdiv            = 110
	OpDdiv            = 111
	OpIrem            = 112
	OpLrem            = 113
	OpFrem            = 114
	OpDrem            = 115
	OpIneg            = 116
	OpLneg            = 117
	OpFneg            = 118
	OpDneg            = 119
	OpIshl            = 120
	OpLshl            = 121
	OpIshr            = 122
	OpLshr            = 123
	OpIushr           = 124
	OpLushr           = 125
	OpIand            = 126
	OpLand            = 127
	OpIor             = 128
	OpLor             = 129
	OpIxor            = 130
	OpLxor            = 131
	OpIinc            = 132
	OpI2l             = 133
	OpI2f             = 134
	OpI2d             = 135
	OpL2i             = 136
	OpL2f             = 137
	OpL2d             = 138
	OpF2i             = 139
	OpF2l             = 140
	OpF2d             = 141
	OpD2i             = 142
	OpD2l             = 143
	OpD2f             = 144
	OpI2b             = 145
	OpI2c             = 146
	OpI2s             = 147
	OpLcmp            = 148
	OpFcmpl           = 149
	OpFcmpg           = 150
	OpDcmpl           = 151
	OpDcmpg           = 152
	OpIfeq            = 153
	OpIfne            = 154
	OpIflt            = 155
	OpIfge            = 156
	OpIfgt            = 157
	OpIfle            = 158
	OpIfIcmpeq        = 159
	OpIfIcmpne        = 160
	OpIfIcmplt        = 161
	OpIfIcmpge        = 162
	OpIfIcmpgt        = 163
	OpIfIcmple        = 164
	OpIfAcmpeq        = 165
	OpIfAcmpne        = 166
	OpGoto            = 167
	OpJsr             = 168
	OpRet             = 169
	OpTableswitch     = 170
	OpLookupswitch    = 171
	OpIreturn         = 172
	OpLreturn         = 173
	OpFreturn         = 174
	OpDreturn         = 175
	OpAreturn         = 176
	OpReturn          = 177
	OpGetstatic       = 178
	OpPutstatic       = 179
	OpGetfield        = 180
	OpPutfield        = 181
	OpInvokevirtual   = 182
	OpInvokespecial   = 183
	OpInvokestatic    = 184
	OpInvokeinterface = 185
	OpInvokedynamic   = 186
	OpNew             = 187
	OpNewarray        = 188
	OpAnewarray       = 189
	OpArraylength     = 190
	OpAthrow          = 191
	OpCheckcast       = 192
	OpInstanceof      = 193
	OpMonitorenter    = 194
	OpMonitorexit     = 195
	OpWide            = 196
	OpMultianewarray  = 197
	OpIfnull          = 198
	OpIfnonnull       = 199
	OpGotoW           = 200
	OpJsrW            = 201
)

// jvmOpcodeNames maps a JVM opcode to its mnemonic.
var jvmOpcodeNames = map[uint8]string{
	OpNop: "nop", OpAconstNull: "aconst_null", OpIconstM1: "iconst_m1",
	OpIconst0: "iconst_0", OpIconst1: "iconst_1", OpIconst2: "iconst_2",
	OpIconst3: "iconst_3", OpIconst4: "iconst_4", OpIconst5: "iconst_5",
	OpLconst0: "lconst_0", OpLconst1: "lconst_1", OpFconst0: "fconst_0",
	OpFconst1: "fconst_1", OpFconst2: "fconst_2", OpDconst0: "dconst_0",
	OpDconst1: "dconst_1", OpBipush: "bipush", OpSipush: "sipush",
	OpLdc: "ldc", OpLdcW: "ldc_w", OpLdc2W: "ldc2_w",
	OpIload: "iload", OpLload: "lload", OpFload: "fload", OpDload: "dload",
	OpAload: "aload",
	OpIload0: "iload_0", OpIload1: "iload_1", OpIload2: "iload_2", OpIload3: "iload_3",
	OpLload0: "lload_0", OpLload1: "lload_1", OpLload2: "lload_2", OpLload3: "lload_3",
	OpFload0: "fload_0", OpFload1: "fload_1", OpFload2: "fload_2", OpFload3: "fload_3",
	OpDload0: "dload_0", OpDload1: "dload_1", OpDload2: "dload_2", OpDload3: "dload_3",
	OpAload0: "aload_0", OpAload1: "aload_1", OpAload2: "aload_2", OpAload3: "aload_3",
	OpIaload: "iaload", OpLaload: "laload", OpFaload: "faload", OpDaload: "daload",
	OpAaload: "aaload", OpBaload: "baload", OpCaload: "caload", OpSaload: "saload",
	OpIstore: "istore", OpLstore: "lstore", OpFstore: "fstore", OpDstore: "dstore",
	OpAstore: "astore",
	OpIstore0: "istore_0", OpIstore1: "istore_1", OpIstore2: "istore_2", OpIstore3: "istore_3",
	OpLstore0: "lstore_0", OpLstore1: "lstore_1", OpLstore2: "lstore_2", OpLstore3: "lstore_3",
	OpFstore0: "fstore_0", OpFstore1: "fstore_1", OpFstore2: "fstore_2", OpFstore3: "fstore_3",
	OpDstore0: "dstore_0", OpDstore1: "dstore_1", OpDstore2: "dstore_2", OpDstore3: "dstore_3",
	OpAstore0: "astore_0", OpAstore1: "astore_1", OpAstore2: "astore_2", OpAstore3: "astore_3",
	OpIastore: "iastore", OpLastore: "lastore", OpFastore: "fastore", OpDastore: "dastore",
	OpAastore: "aastore", OpBastore: "bastore", OpCastore: "castore", OpSastore: "sastore",
	OpPop: "pop", OpPop2: "pop2", OpDup: "dup", OpDupX1: "dup_x1", OpDupX2: "dup_x2",
	OpDup2: "dup2", OpDup2X1: "dup2_x1", OpDup2X2: "dup2_x2", OpSwap: "swap",
	OpIadd: "iadd", OpLadd: "ladd", OpFadd: "fadd", OpDadd: "dadd",
	OpIsub: "isub", OpLsub: "lsub", OpFsub: "fsub", OpDsub: "dsub",
	OpImul: "imul", OpLmul: "lmul", OpFmul: "fmul", OpDmul: "dmul",
	OpIdiv: "idiv", OpLdiv: "ldiv", OpFdiv: "fdiv", OpDdiv: "ddiv",
	OpIrem: "irem", OpLrem: "lrem", OpFrem: "frem", OpDrem: "drem",
	OpIneg: "ineg", OpLneg: "lneg", OpFneg: "fneg", OpDneg: "dneg",
	OpIshl: "ishl", OpLshl: "lshl", OpIshr: "ishr", OpLshr: "lshr",
	OpIushr: "iushr", OpLushr: "lushr",
	OpIand: "iand", OpLand: "land", OpIor: "ior", OpLor: "lor",
	OpIxor: "ixor", OpLxor: "lxor", OpIinc: "iinc",
	OpI2l: "i2l", OpI2f: "i2f", OpI2d: "i2d", OpL2i: "l2i", OpL2f: "l2f",
	OpL2d: "l2d", OpF2i: "f2i", OpF2l: "f2l", OpF2d: "f2d", OpD2i: "d2i",
	OpD2l: "d2l", OpD2f: "d2f", OpI2b: "i2b", OpI2c: "i2c", OpI2s: "i2s",
	OpLcmp: "lcmp", OpFcmpl: "fcmpl", OpFcmpg: "fcmpg", OpDcmpl: "dcmpl",
	OpDcmpg: "dcmpg",
	OpIfeq: "ifeq", OpIfne: "ifne", OpIflt: "iflt", OpIfge: "ifge",
	OpIfgt: "ifgt", OpIfle: "ifle",
	OpIfIcmpeq: "if_icmpeq", OpIfIcmpne: "if_icmpne", OpIfIcmplt: "if_icmplt",
	OpIfIcmpge: "if_icmpge", OpIfIcmpgt: "if_icmpgt", OpIfIcmple: "if_icmple",
	OpIfAcmpeq: "if_acmpeq", OpIfAcmpne: "if_acmpne",
	OpGoto: "goto", OpJsr: "jsr", OpRet: "ret",
	OpTableswitch: "tableswitch", OpLookupswitch: "lookupswitch",
	OpIreturn: "ireturn", OpLreturn: "lreturn", OpFreturn: "freturn",
	OpDreturn: "dreturn", OpAreturn: "areturn", OpReturn: "return",
	OpGetstatic: "getstatic", OpPutstatic: "putstatic",
	OpGetfield: "getfield", OpPutfield: "putfield",
	OpInvokevirtual: "invokevirtual", OpInvokespecial: "invokespecial",
	OpInvokestatic: "invokestatic", OpInvokeinterface: "invokeinterface",
	OpInvokedynamic: "invokedynamic",
	OpNew: "new", OpNewarray: "newarray", OpAnewarray: "anewarray",
	OpArraylength: "arraylength", OpAthrow: "athrow",
	OpCheckcast: "checkcast", OpInstanceof: "instanceof",
	OpMonitorenter: "monitorenter", OpMonitorexit: "monitorexit",
	OpWide: "wide", OpMultianewarray: "multianewarray",
	OpIfnull: "ifnull", OpIfnonnull: "ifnonnull",
	OpGotoW: "goto_w", OpJsrW: "jsr_w",
}

// JVMOpcodeName returns the mnemonic for a JVM opcode. ok is false for
// values outside the defined set, callers supply their own fallback label.
func JVMOpcodeName(op uint8) (string, bool) {
	name, ok := jvmOpcodeNames[op]
	return name, ok
}

// MethodHandleKindName returns the name of a method-handle reference kind.
func MethodHandleKindName(kind uint8) (string, bool) {
	names := map[uint8]string{
		RefGetField:         "getField",
		RefGetStatic:        "getStatic",
		RefPutField:         "putField",
		RefPutStatic:        "putStatic",
		RefInvokeVirtual:    "invokeVirtual",
		RefInvokeStatic:     "invokeStatic",
		RefInvokeSpecial:    "invokeSpecial",
		RefNewInvokeSpecial: "newInvokeSpecial",
		RefInvokeInterface:  "invokeInterface",
	}
	name, ok := names[kind]
	return name, ok
}

// NewArrayTypeName returns the primitive type name of a newarray operand.
func NewArrayTypeName(t uint8) (string, bool) {
	names := map[uint8]string{
		TBoolean: "boolean",
		TChar:    "char",
		TFloat:   "float",
		TDouble:  "double",
		TByte:    "byte",
		TShort:   "short",
		TInt:     "int",
		TLong:    "long",
	}
	name, ok := names[t]
	return name, ok
}

// PoolTagName returns the name of a constant-pool tag.
func PoolTagName(tag uint8) (string, bool) {
	names := map[uint8]string{
		ConstantInvalid:            "Invalid",
		ConstantUtf8:               "Utf8",
		ConstantInteger:            "Integer",
		ConstantFloat:              "Float",
		ConstantLong:               "Long",
		ConstantDouble:             "Double",
		ConstantClass:              "Class",
		ConstantString:             "String",
		ConstantFieldref:           "Fieldref",
		ConstantMethodref:          "Methodref",
		ConstantInterfaceMethodref: "InterfaceMethodref",
		ConstantNameAndType:        "NameAndType",
		ConstantMethodHandle:       "MethodHandle",
		ConstantMethodType:         "MethodType",
		ConstantDynamic:            "Dynamic",
		ConstantInvokeDynamic:      "InvokeDynamic",
		ConstantModule:             "Module",
		ConstantPackage:            "Package",
	}
	name, ok := names[tag]
	return name, ok
}

// PrettyClassAccessFlags returns the string representations of class-level
// access flags.
func PrettyClassAccessFlags(flags uint16) []string {
	var values []string
	classFlags := []struct {
		mask uint16
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccProtected, "protected"},
		{AccFinal, "final"},
		{AccSuper, "super"},
		{AccInterface, "interface"},
		{AccAbstract, "abstract"},
		{AccSynthetic, "synthetic"},
		{AccAnnotation, "annotation"},
		{AccEnum, "enum"},
		{AccModule, "module"},
	}
	for _, f := range classFlags {
		if flags&f.mask != 0 {
			values = append(values, f.name)
		}
	}
	return values
}

// PrettyMethodAccessFlags returns the string representations of method-level
// access flags, including the DEX-specific extension bits.
func PrettyMethodAccessFlags(flags uint32) []string {
	var values []string
	methodFlags := []struct {
		mask uint32
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccProtected, "protected"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccSynchronized, "synchronized"},
		{AccBridge, "bridge"},
		{AccVarargs, "varargs"},
		{AccNative, "native"},
		{AccAbstract, "abstract"},
		{AccStrict, "strictfp"},
		{AccSynthetic, "synthetic"},
		{AccConstructor, "constructor"},
		{AccDeclaredSynchronized, "declared-synchronized"},
	}
	for _, f := range methodFlags {
		if flags&f.mask != 0 {
			values = append(values, f.name)
		}
	}
	return values
}

// PrettyFieldAccessFlags returns the string representations of field-level
// access flags.
func PrettyFieldAccessFlags(flags uint32) []string {
	var values []string
	fieldFlags := []struct {
		mask uint32
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccProtected, "protected"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccVolatile, "volatile"},
		{AccTransient, "transient"},
		{AccSynthetic, "synthetic"},
		{AccEnum, "enum"},
	}
	for _, f := range fieldFlags {
		if flags&f.mask != 0 {
			values = append(values, f.name)
		}
	}
	return values
}
