// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// DexFile is the raw structural model of a DEX container: the fixed header
// and the flat id tables. Variable-sized data items are not eaten greedily;
// DexFile keeps the original byte slice and fetches typed structures by
// absolute file offset on demand, memoized per (kind, offset). This matches
// the format's native random-access topology.
type DexFile struct {
	Header    DexHeader  `json:"header"`
	StringIDs []StringID `json:"string_ids"`
	TypeIDs   []TypeID   `json:"type_ids"`
	ProtoIDs  []ProtoID  `json:"proto_ids"`
	FieldIDs  []FieldID  `json:"field_ids"`
	MethodIDs []MethodID `json:"method_ids"`
	ClassDefs []ClassDef `json:"class_defs"`

	data      []byte
	bigEndian bool

	stringData    *Memo[uint32, StringData]
	typeLists     *Memo[uint32, TypeList]
	classData     *Memo[uint32, ClassDataItem]
	codeItems     *Memo[uint32, *CodeItem]
	encodedArrays *Memo[uint32, EncodedArray]
	classElements *OnceVec[*ClassElement]
}

// DexHeader is the fixed-size header item. All offsets are bytes from the
// start of the file.
type DexHeader struct {
	// Magic should be "dex\n039\0"; 039 is the dex format version.
	Magic [8]byte `json:"magic"`

	// Checksum is the adler32 of everything except magic and this field.
	Checksum uint32 `json:"checksum"`

	// Signature is the SHA-1 of everything except magic, checksum and this
	// field.
	Signature [20]byte `json:"signature"`

	FileSize   uint32 `json:"file_size"`
	HeaderSize uint32 `json:"header_size"`
	EndianTag  uint32 `json:"endian_tag"`
	LinkSize   uint32 `json:"link_size"`
	LinkOff    uint32 `json:"link_off"`
	MapOff     uint32 `json:"map_off"`

	StringIDsSize uint32 `json:"string_ids_size"`
	StringIDsOff  uint32 `json:"string_ids_off"`
	TypeIDsSize   uint32 `json:"type_ids_size"`
	TypeIDsOff    uint32 `json:"type_ids_off"`
	ProtoIDsSize  uint32 `json:"proto_ids_size"`
	ProtoIDsOff   uint32 `json:"proto_ids_off"`
	FieldIDsSize  uint32 `json:"field_ids_size"`
	FieldIDsOff   uint32 `json:"field_ids_off"`
	MethodIDsSize uint32 `json:"method_ids_size"`
	MethodIDsOff  uint32 `json:"method_ids_off"`
	ClassDefsSize uint32 `json:"class_defs_size"`
	ClassDefsOff  uint32 `json:"class_defs_off"`
	DataSize      uint32 `json:"data_size"`
	DataOff       uint32 `json:"data_off"`
}

// StringID locates a string_data_item.
type StringID struct {
	StringDataOff uint32 `json:"string_data_off"`
}

// StringData is a decoded string_data_item: the declared UTF-16 code-unit
// count plus the MUTF-8 payload decoded to a Go string.
type StringData struct {
	UTF16Size uint32 `json:"utf16_size"`
	Value     string `json:"value"`
}

// TypeID points into string_ids for a type descriptor.
type TypeID struct {
	DescriptorIdx uint32 `json:"descriptor_idx"`
}

// ProtoID describes a method prototype.
type ProtoID struct {
	ShortyIdx     uint32 `json:"shorty_idx"`      // index into string_ids
	ReturnTypeIdx uint32 `json:"return_type_idx"` // index into type_ids
	ParametersOff uint32 `json:"parameters_off"`  // type_list offset, or 0
}

// FieldID identifies a field by definer, type and name.
type FieldID struct {
	ClassIdx uint16 `json:"class_idx"` // index into type_ids
	TypeIdx  uint16 `json:"type_idx"`  // index into type_ids
	NameIdx  uint32 `json:"name_idx"`  // index into string_ids
}

// MethodID identifies a method by definer, prototype and name.
type MethodID struct {
	ClassIdx uint16 `json:"class_idx"` // index into type_ids
	ProtoIdx uint16 `json:"proto_idx"` // index into proto_ids
	NameIdx  uint32 `json:"name_idx"`  // index into string_ids
}

// ClassDef is one class_def_item. Off-table data is referenced by absolute
// byte offsets; zero means absent, NoIndex marks a missing id reference.
type ClassDef struct {
	ClassIdx        uint32 `json:"class_idx"`
	AccessFlags     uint32 `json:"access_flags"`
	SuperclassIdx   uint32 `json:"superclass_idx"`
	InterfacesOff   uint32 `json:"interfaces_off"`
	SourceFileIdx   uint32 `json:"source_file_idx"`
	AnnotationsOff  uint32 `json:"annotations_off"`
	ClassDataOff    uint32 `json:"class_data_off"`
	StaticValuesOff uint32 `json:"static_values_off"`
}

// TypeList is a 4-byte aligned list of type_ids indices.
type TypeList struct {
	TypeIdxList []uint16 `json:"type_id_indices"`
}

// MapList is the file map found at header.map_off.
type MapList struct {
	Items []MapItem `json:"items"`
}

// MapItem is one map_list row.
type MapItem struct {
	Type   uint16 `json:"type"`
	Unused uint16 `json:"unused"`
	Size   uint32 `json:"size"`
	Offset uint32 `json:"offset"`
}

// ClassDataItem is the member table of a class: four ULEB128 counts followed
// by the four member vectors in order.
type ClassDataItem struct {
	StaticFields   []EncodedField  `json:"static_fields"`
	InstanceFields []EncodedField  `json:"instance_fields"`
	DirectMethods  []EncodedMethod `json:"direct_methods"`
	VirtualMethods []EncodedMethod `json:"virtual_methods"`
}

// EncodedField stores its field_ids index as a delta against the previous
// entry; absolute indices are reconstructed by prefix sum.
type EncodedField struct {
	FieldIdxDiff uint32 `json:"field_idx_diff"`
	AccessFlags  uint32 `json:"access_flags"`
}

// EncodedMethod mirrors EncodedField and adds the code_item offset, zero
// for abstract and native methods.
type EncodedMethod struct {
	MethodIdxDiff uint32 `json:"method_idx_diff"`
	AccessFlags   uint32 `json:"access_flags"`
	CodeOff       uint32 `json:"code_off"`
}

// CodeItem is the container of a method's bytecode, handlers and debug
// link.
type CodeItem struct {
	RegistersSize uint16                  `json:"registers_size"`
	InsSize       uint16                  `json:"ins_size"`
	OutsSize      uint16                  `json:"outs_size"`
	TriesSize     uint16                  `json:"tries_size"`
	DebugInfoOff  uint32                  `json:"debug_info_off"`
	Insns         InsnContainer           `json:"insns"`
	Tries         []TryItem               `json:"tries"`
	Handlers      EncodedCatchHandlerList `json:"handlers"`
}

// InsnContainer is the declared 16-bit unit count followed by the decoded
// instruction stream.
type InsnContainer struct {
	InsnsSize uint32    `json:"insns_size"`
	Insns     []DexInsn `json:"insns"`
}

// TryItem is one try range. The last covered code unit is
// StartAddr+InsnCount-1.
type TryItem struct {
	StartAddr uint32 `json:"start_addr"`
	InsnCount uint16 `json:"insn_count"`

	// HandlerOff is a byte offset from the start of the enclosing
	// encoded_catch_handler_list.
	HandlerOff uint16 `json:"handler_off"`
}

// EncodedCatchHandlerList holds the handlers shared by the try items of a
// code_item.
type EncodedCatchHandlerList struct {
	List []EncodedCatchHandler `json:"list"`
}

// EncodedCatchHandler is one handler group. Size keeps the raw SLEB128: a
// negative value means a trailing catch-all address follows the typed
// pairs.
type EncodedCatchHandler struct {
	Size         int32                 `json:"size"`
	Handlers     []EncodedTypeAddrPair `json:"handlers"`
	CatchAllAddr uint32                `json:"catch_all_addr"`
	HasCatchAll  bool                  `json:"has_catch_all"`
}

// EncodedTypeAddrPair is one typed catch: exception type plus handler
// address.
type EncodedTypeAddrPair struct {
	TypeIdx uint32 `json:"type_idx"`
	Addr    uint32 `json:"addr"`
}

// MethodHandleItem is one method_handle_item row.
type MethodHandleItem struct {
	Type            uint16 `json:"method_handle_type"`
	FieldOrMethodID uint16 `json:"field_or_method_id"`
}

// EncodedValueKind discriminates EncodedValue.
type EncodedValueKind uint8

const (
	EncodedByte EncodedValueKind = iota
	EncodedShort
	EncodedChar
	EncodedInt
	EncodedLong
	EncodedFloat
	EncodedDouble
	EncodedMethodType
	EncodedMethodHandle
	EncodedString
	EncodedType
	EncodedFieldRef
	EncodedMethodRef
	EncodedEnum
	EncodedArrayValue
	EncodedAnnotationValue
	EncodedNull
	EncodedBoolean
)

// EncodedValue is one encoded_value union member. Int carries every integral
// kind sign-extended, Uint carries id references, Bits carries the IEEE 754
// payload of floats and doubles.
type EncodedValue struct {
	Kind       EncodedValueKind   `json:"kind"`
	Int        int64              `json:"int"`
	Uint       uint32             `json:"uint"`
	Bits       uint64             `json:"bits"`
	Bool       bool               `json:"bool"`
	Array      []EncodedValue     `json:"array"`
	Annotation *EncodedAnnotation `json:"annotation"`
}

// EncodedArray is a length-prefixed vector of encoded values.
type EncodedArray struct {
	Values []EncodedValue `json:"values"`
}

// EncodedAnnotation is an annotation payload in encoded form.
type EncodedAnnotation struct {
	TypeIdx  uint32                       `json:"type_idx"`
	Elements []EncodedAnnotationAttribute `json:"elements"`
}

// EncodedAnnotationAttribute is one name-value mapping of an encoded
// annotation.
type EncodedAnnotationAttribute struct {
	NameIdx uint32       `json:"name_idx"`
	Value   EncodedValue `json:"value"`
}
