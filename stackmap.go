// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// StackMapFrame is one stack_map_frame union member, JVMS §4.7.4. FrameType
// keeps the raw discriminant so consumers can re-derive the compressed
// deltas.
type StackMapFrame struct {
	FrameType uint16 `json:"frame_type"`

	// OffsetDelta is meaningful for every kind except SameFrame and
	// SameLocals1StackItem, where it is implied by the frame type.
	OffsetDelta uint16 `json:"offset_delta"`

	Kind   StackMapFrameKind      `json:"kind"`
	Locals []VerificationTypeInfo `json:"locals"`
	Stack  []VerificationTypeInfo `json:"stack"`
}

// StackMapFrameKind discriminates the stack_map_frame union.
type StackMapFrameKind uint8

const (
	SameFrame StackMapFrameKind = iota
	SameLocals1StackItem
	SameLocals1StackItemExtended
	ChopFrame
	SameFrameExtended
	AppendFrame
	FullFrame
)

// VerificationTypeInfo is one verification_type_info union member. The
// trailing operand is only present for Object (CPIndex) and Uninitialized
// (Offset).
type VerificationTypeInfo struct {
	Tag     uint8  `json:"tag"`
	CPIndex uint16 `json:"cpool_index"`
	Offset  uint16 `json:"offset"`
}

func readVerificationTypeInfo(rc *ReadContext) (VerificationTypeInfo, error) {
	tag, err := rc.U8()
	if err != nil {
		return VerificationTypeInfo{}, err
	}
	info := VerificationTypeInfo{Tag: tag}
	switch tag {
	case ItemTop, ItemInteger, ItemFloat, ItemDouble, ItemLong, ItemNull,
		ItemUninitializedThis:
	case ItemObject:
		if info.CPIndex, err = rc.U16(); err != nil {
			return VerificationTypeInfo{}, err
		}
	case ItemUninitialized:
		if info.Offset, err = rc.U16(); err != nil {
			return VerificationTypeInfo{}, err
		}
	default:
		return VerificationTypeInfo{}, errIllegalFormat(
			"unknown verification type tag: %d", tag)
	}
	return info, nil
}

func readStackMapFrame(rc *ReadContext) (StackMapFrame, error) {
	frameType, err := rc.U8()
	if err != nil {
		return StackMapFrame{}, err
	}
	frame := StackMapFrame{FrameType: uint16(frameType)}
	switch {
	case frameType <= 63:
		frame.Kind = SameFrame
	case frameType <= 127:
		frame.Kind = SameLocals1StackItem
		item, err := readVerificationTypeInfo(rc)
		if err != nil {
			return StackMapFrame{}, err
		}
		frame.Stack = []VerificationTypeInfo{item}
	case frameType == 247:
		frame.Kind = SameLocals1StackItemExtended
		if frame.OffsetDelta, err = rc.U16(); err != nil {
			return StackMapFrame{}, err
		}
		item, err := readVerificationTypeInfo(rc)
		if err != nil {
			return StackMapFrame{}, err
		}
		frame.Stack = []VerificationTypeInfo{item}
	case frameType >= 248 && frameType <= 250:
		frame.Kind = ChopFrame
		if frame.OffsetDelta, err = rc.U16(); err != nil {
			return StackMapFrame{}, err
		}
	case frameType == 251:
		frame.Kind = SameFrameExtended
		if frame.OffsetDelta, err = rc.U16(); err != nil {
			return StackMapFrame{}, err
		}
	case frameType >= 252 && frameType <= 254:
		frame.Kind = AppendFrame
		if frame.OffsetDelta, err = rc.U16(); err != nil {
			return StackMapFrame{}, err
		}
		if frame.Locals, err = readVec(rc, int(frameType)-251,
			readVerificationTypeInfo); err != nil {
			return StackMapFrame{}, err
		}
	case frameType == 255:
		frame.Kind = FullFrame
		if frame.OffsetDelta, err = rc.U16(); err != nil {
			return StackMapFrame{}, err
		}
		numLocals, err := rc.U16()
		if err != nil {
			return StackMapFrame{}, err
		}
		if frame.Locals, err = readVec(rc, int(numLocals),
			readVerificationTypeInfo); err != nil {
			return StackMapFrame{}, err
		}
		numStack, err := rc.U16()
		if err != nil {
			return StackMapFrame{}, err
		}
		if frame.Stack, err = readVec(rc, int(numStack),
			readVerificationTypeInfo); err != nil {
			return StackMapFrame{}, err
		}
	default:
		return StackMapFrame{}, errIllegalFormat(
			"unknown frame type: %d", frameType)
	}
	return frame, nil
}
