// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// The Dalvik instruction set is 8-bit-opcoded over a stream of 16-bit code
// units: the opcode sits in the low byte of the first unit, the high byte
// carries register nibbles or literal bits per the instruction format. Each
// format below is one fixed shape; the per-opcode instruction names are
// type aliases of their format, mirroring the instruction-formats table of
// the Dalvik documentation.

// DexInsn is one decoded Dalvik instruction: a format struct or a payload.
type DexInsn interface {
	isDexInsn()
}

// F10x: op|0000. The decoder produces it for return-void only: a unit whose
// opcode byte is 0x00 is read as a payload header, so nop never decodes into
// this format.
type F10x struct {
	Opcode uint8 `json:"opcode"`
	Stub   uint8 `json:"stub"`
}

// F12x: B|A|op.
type F12x struct {
	Opcode uint8 `json:"opcode"`
	VA     uint8 `json:"vA"`
	VB     uint8 `json:"vB"`
}

// F11n: B|A|op with B a signed 4-bit literal.
type F11n struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	LiteralB int8  `json:"literalB"`
}

// F11x: AA|op.
type F11x struct {
	Opcode uint8 `json:"opcode"`
	VA     uint8 `json:"vA"`
}

// F10t: AA|op with AA a signed branch offset.
type F10t struct {
	Opcode  uint8 `json:"opcode"`
	OffsetA int8  `json:"offsetA"`
}

// F20t: 00|op AAAA.
type F20t struct {
	Opcode  uint8 `json:"opcode"`
	Stub    uint8 `json:"stub"`
	OffsetA int16 `json:"offsetA"`
}

// F20bc: AA|op BBBB.
type F20bc struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	ConstB uint16 `json:"constB"`
}

// F22x: AA|op BBBB.
type F22x struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	VB     uint16 `json:"vB"`
}

// F21t: AA|op BBBB with BBBB a signed branch offset.
type F21t struct {
	Opcode  uint8 `json:"opcode"`
	VA      uint8 `json:"vA"`
	OffsetB int16 `json:"offsetB"`
}

// F21s: AA|op BBBB with BBBB a signed literal.
type F21s struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	LiteralB int16 `json:"literalB"`
}

// F21h: AA|op BBBB with BBBB the high 16 bits of a wider literal.
type F21h struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	LiteralB int16 `json:"literalB"`
}

// F21c: AA|op BBBB with BBBB a pool reference.
type F21c struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	ConstB uint16 `json:"constB"`
}

// F23x: AA|op CC|BB.
type F23x struct {
	Opcode uint8 `json:"opcode"`
	VA     uint8 `json:"vA"`
	VB     uint8 `json:"vB"`
	VC     uint8 `json:"vC"`
}

// F22b: AA|op CC|BB with CC a signed 8-bit literal.
type F22b struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	VB       uint8 `json:"vB"`
	LiteralC int8  `json:"literalC"`
}

// F22t: B|A|op CCCC with CCCC a signed branch offset.
type F22t struct {
	Opcode  uint8 `json:"opcode"`
	VA      uint8 `json:"vA"`
	VB      uint8 `json:"vB"`
	OffsetC int16 `json:"offsetC"`
}

// F22s: B|A|op CCCC with CCCC a signed literal.
type F22s struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	VB       uint8 `json:"vB"`
	LiteralC int16 `json:"literalC"`
}

// F22c: B|A|op CCCC with CCCC a pool reference.
type F22c struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	VB     uint8  `json:"vB"`
	ConstC uint16 `json:"constC"`
}

// F22cs: B|A|op CCCC, the suggested-offset variant of F22c.
type F22cs struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	VB     uint8  `json:"vB"`
	ConstC uint16 `json:"constC"`
}

// F30t: 00|op AAAAlo AAAAhi.
type F30t struct {
	Opcode  uint8 `json:"opcode"`
	Stub    uint8 `json:"stub"`
	OffsetA int32 `json:"offsetA"`
}

// F32x: 00|op AAAA BBBB.
type F32x struct {
	Opcode uint8  `json:"opcode"`
	Stub   uint8  `json:"stub"`
	VA     uint16 `json:"vA"`
	VB     uint16 `json:"vB"`
}

// F31i: AA|op BBBBlo BBBBhi with a signed 32-bit literal.
type F31i struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	LiteralB int32 `json:"literalB"`
}

// F31t: AA|op BBBBlo BBBBhi with a signed branch offset.
type F31t struct {
	Opcode  uint8 `json:"opcode"`
	VA      uint8 `json:"vA"`
	OffsetB int32 `json:"offsetB"`
}

// F31c: AA|op BBBBlo BBBBhi with a 32-bit pool reference.
type F31c struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	ConstB uint32 `json:"constB"`
}

// F35c: A|G|op BBBB F|E|D|C. A is the argument count, C..G the argument
// registers.
type F35c struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	VC     uint8  `json:"vC"`
	VD     uint8  `json:"vD"`
	VE     uint8  `json:"vE"`
	VF     uint8  `json:"vF"`
	VG     uint8  `json:"vG"`
	ConstB uint16 `json:"constB"`
}

// F3rc: AA|op BBBB CCCC. The registers are vCCCC..vCCCC+AA-1.
type F3rc struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	ConstB uint16 `json:"constB"`
	VC     uint16 `json:"vC"`
}

// F45cc: A|G|op BBBB F|E|D|C HHHH.
type F45cc struct {
	Opcode uint8  `json:"opcode"`
	VA     uint8  `json:"vA"`
	VC     uint8  `json:"vC"`
	VD     uint8  `json:"vD"`
	VE     uint8  `json:"vE"`
	VF     uint8  `json:"vF"`
	VG     uint8  `json:"vG"`
	ConstB uint16 `json:"constB"`
	ConstH uint16 `json:"constH"`
}

// F4rcc: AA|op BBBB CCCC HHHH.
type F4rcc struct {
	Opcode   uint8  `json:"opcode"`
	LiteralA uint8  `json:"literalA"`
	ConstB   uint16 `json:"constB"`
	VC       uint16 `json:"vC"`
	ConstH   uint16 `json:"constH"`
}

// F51l: AA|op BBBB x4, low unit first.
type F51l struct {
	Opcode   uint8 `json:"opcode"`
	VA       uint8 `json:"vA"`
	LiteralB int64 `json:"literalB"`
}

// NotUsedInsn marks an opcode from the reserved ranges. It is not an error:
// the cursor still advances one unit.
type NotUsedInsn struct {
	Opcode uint8 `json:"opcode"`
}

// PackedSwitchPayload is the 0x0100 pseudo-instruction: size branch targets
// for consecutive keys starting at FirstKey.
type PackedSwitchPayload struct {
	Ident    uint16   `json:"ident"`
	Size     uint16   `json:"size"`
	FirstKey uint32   `json:"first_key"`
	Targets  []uint32 `json:"targets"`
}

// SparseSwitchPayload is the 0x0200 pseudo-instruction: size keys followed
// by size branch targets.
type SparseSwitchPayload struct {
	Ident   uint16   `json:"ident"`
	Size    uint16   `json:"size"`
	Keys    []uint32 `json:"keys"`
	Targets []uint32 `json:"targets"`
}

// FillArrayDataPayload is the 0x0300 pseudo-instruction: raw element bytes,
// the element layout is interpreted by the consumer.
type FillArrayDataPayload struct {
	Ident        uint16 `json:"ident"`
	ElementWidth uint16 `json:"element_width"`
	Size         uint32 `json:"size"`
	Data         []byte `json:"data"`
}

func (F10x) isDexInsn()                  {}
func (F12x) isDexInsn()                  {}
func (F11n) isDexInsn()                  {}
func (F11x) isDexInsn()                  {}
func (F10t) isDexInsn()                  {}
func (F20t) isDexInsn()                  {}
func (F20bc) isDexInsn()                 {}
func (F22x) isDexInsn()                  {}
func (F21t) isDexInsn()                  {}
func (F21s) isDexInsn()                  {}
func (F21h) isDexInsn()                  {}
func (F21c) isDexInsn()                  {}
func (F23x) isDexInsn()                  {}
func (F22b) isDexInsn()                  {}
func (F22t) isDexInsn()                  {}
func (F22s) isDexInsn()                  {}
func (F22c) isDexInsn()                  {}
func (F22cs) isDexInsn()                 {}
func (F30t) isDexInsn()                  {}
func (F32x) isDexInsn()                  {}
func (F31i) isDexInsn()                  {}
func (F31t) isDexInsn()                  {}
func (F31c) isDexInsn()                  {}
func (F35c) isDexInsn()                  {}
func (F3rc) isDexInsn()                  {}
func (F45cc) isDexInsn()                 {}
func (F4rcc) isDexInsn()                 {}
func (F51l) isDexInsn()                  {}
func (NotUsedInsn) isDexInsn()           {}
func (*PackedSwitchPayload) isDexInsn()  {}
func (*SparseSwitchPayload) isDexInsn()  {}
func (*FillArrayDataPayload) isDexInsn() {}

// Per-opcode instruction names, aliases of their formats.
type (
	MoveInsn              = F12x // 0x01
	MoveFrom16Insn        = F22x // 0x02
	Move16Insn            = F32x // 0x03
	MoveWideInsn          = F12x // 0x04
	MoveWideFrom16Insn    = F22x // 0x05
	MoveWide16Insn        = F32x // 0x06
	MoveObjectInsn        = F12x // 0x07
	MoveObjectFrom16Insn  = F22x // 0x08
	MoveObject16Insn      = F32x // 0x09
	MoveResultInsn        = F11x // 0x0a
	MoveResultWideInsn    = F11x // 0x0b
	MoveResultObjectInsn  = F11x // 0x0c
	MoveExceptionInsn     = F11x // 0x0d
	ReturnVoidInsn        = F10x // 0x0e
	ReturnInsn            = F11x // 0x0f
	ReturnWideInsn        = F11x // 0x10
	ReturnObjectInsn      = F11x // 0x11
	Const4Insn            = F11n // 0x12
	Const16Insn           = F21s // 0x13
	ConstInsn             = F31i // 0x14
	ConstHigh16Insn       = F21h // 0x15
	ConstWide16Insn       = F21s // 0x16
	ConstWide32Insn       = F31i // 0x17
	ConstWideInsn         = F51l // 0x18
	ConstWideHigh16Insn   = F21h // 0x19
	ConstStringInsn       = F21c // 0x1a
	ConstStringJumboInsn  = F31c // 0x1b
	ConstClassInsn        = F21c // 0x1c
	MonitorEnterInsn      = F11x // 0x1d
	MonitorExitInsn       = F11x // 0x1e
	CheckCastInsn         = F21c // 0x1f
	InstanceOfInsn        = F22c // 0x20
	ArrayLengthInsn       = F12x // 0x21
	NewInstanceInsn       = F21c // 0x22
	NewArrayInsn          = F22c // 0x23
	FilledNewArrayInsn    = F35c // 0x24
	FilledNewArrayRngInsn = F3rc // 0x25
	FillArrayDataInsn     = F31t // 0x26
	ThrowInsn             = F11x // 0x27
	GotoInsn              = F10t // 0x28
	Goto16Insn            = F20t // 0x29
	Goto32Insn            = F30t // 0x2a
	PackedSwitchInsn      = F31t // 0x2b
	SparseSwitchInsn      = F31t // 0x2c
	CmpkindInsn           = F23x // 0x2d..0x31
	IfTestInsn            = F22t // 0x32..0x37
	IfTestzInsn           = F21t // 0x38..0x3d
	ArrayOpInsn           = F23x // 0x44..0x51
	IInstanceOpInsn       = F22c // 0x52..0x5f
	SInstanceOpInsn       = F21c // 0x60..0x6d
	InvokeKindInsn        = F35c // 0x6e..0x72
	InvokeKindRangeInsn   = F3rc // 0x74..0x78
	UnopInsn              = F12x // 0x7b..0x8f
	BinopInsn             = F23x // 0x90..0xaf
	Binop2AddrInsn        = F12x // 0xb0..0xcf
	BinopLit16Insn        = F22s // 0xd0..0xd7
	BinopLit8Insn         = F22b // 0xd8..0xe2
	InvokePolyInsn        = F45cc // 0xfa
	InvokePolyRangeInsn   = F4rcc // 0xfb
	InvokeCustomInsn      = F35c  // 0xfc
	InvokeCustomRngInsn   = F3rc  // 0xfd
	ConstMethodHandleInsn = F21c  // 0xfe
	ConstMethodTypeInsn   = F21c  // 0xff
)
