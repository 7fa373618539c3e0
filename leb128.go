// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

// LEB128 variable-length integers as used by the DEX format: 7 payload bits
// per byte, low-order group first, high bit signals continuation. A DEX
// LEB128 always encodes a single 32-bit value, so at most five bytes are
// consumed; the bit order is little-endian regardless of the container's
// endian tag.

// ULEB128 reads an unsigned LEB128 value.
func (rc *ReadContext) ULEB128() (uint32, error) {
	start := rc.index
	var result uint32
	var shift uint
	for {
		b, err := rc.U8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 32 {
			return 0, errInvalidLEB128(start)
		}
	}
	return result, nil
}

// SLEB128 reads a signed LEB128 value, sign-extending from bit 6 of the
// final byte.
func (rc *ReadContext) SLEB128() (int32, error) {
	start := rc.index
	var result uint32
	var shift uint
	for {
		b, err := rc.U8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				result |= ^uint32(0) << shift
			}
			break
		}
		if shift > 32 {
			return 0, errInvalidLEB128(start)
		}
	}
	return int32(result), nil
}

// ULEB128P1 reads a ULEB128 that stores value+1. The encoded zero means
// "none": ok is false and value is unspecified.
func (rc *ReadContext) ULEB128P1() (value uint32, ok bool, err error) {
	raw, err := rc.ULEB128()
	if err != nil || raw == 0 {
		return 0, false, err
	}
	return raw - 1, true, nil
}
