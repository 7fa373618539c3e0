// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"encoding/binary"
)

// ReadContext is a cursor over an immutable byte slice. Multi-byte reads
// honor the configured byte order: class files are big-endian throughout,
// DEX files follow the endian tag of their header.
type ReadContext struct {
	data  []byte
	index int
	order binary.ByteOrder
}

// BigEndian returns a read context positioned at the start of data with
// big-endian byte order.
func BigEndian(data []byte) *ReadContext {
	return &ReadContext{data: data, order: binary.BigEndian}
}

// LittleEndian returns a read context positioned at the start of data with
// little-endian byte order.
func LittleEndian(data []byte) *ReadContext {
	return &ReadContext{data: data, order: binary.LittleEndian}
}

// Index returns the current cursor position.
func (rc *ReadContext) Index() int {
	return rc.index
}

// Seek moves the cursor to an absolute offset. The offset is validated on
// the next read, not here, so seeking to the end of the data is legal.
func (rc *ReadContext) Seek(offset int) {
	rc.index = offset
}

// Len returns the total length of the underlying data.
func (rc *ReadContext) Len() int {
	return len(rc.data)
}

// Align advances the cursor to the next multiple of n, or keeps it unchanged
// when it is already aligned. Align(0) is a no-op.
func (rc *ReadContext) Align(n int) {
	if n == 0 {
		return
	}
	if rem := rc.index % n; rem != 0 {
		rc.index += n - rem
	}
}

// ByteAt fetches a single byte at an absolute offset without moving the
// cursor.
func (rc *ReadContext) ByteAt(offset int) (uint8, error) {
	if offset < 0 || offset >= len(rc.data) {
		return 0, errOutOfRange(offset)
	}
	return rc.data[offset], nil
}

// U8 reads one byte and advances the cursor.
func (rc *ReadContext) U8() (uint8, error) {
	if rc.index >= len(rc.data) {
		return 0, errOutOfRange(rc.index)
	}
	v := rc.data[rc.index]
	rc.index++
	return v, nil
}

// U16 reads a 16-bit unsigned integer honoring the byte order.
func (rc *ReadContext) U16() (uint16, error) {
	if rc.index+2 > len(rc.data) {
		return 0, errOutOfRange(rc.index)
	}
	v := rc.order.Uint16(rc.data[rc.index:])
	rc.index += 2
	return v, nil
}

// U32 reads a 32-bit unsigned integer honoring the byte order.
func (rc *ReadContext) U32() (uint32, error) {
	if rc.index+4 > len(rc.data) {
		return 0, errOutOfRange(rc.index)
	}
	v := rc.order.Uint32(rc.data[rc.index:])
	rc.index += 4
	return v, nil
}

// U64 reads a 64-bit unsigned integer honoring the byte order.
func (rc *ReadContext) U64() (uint64, error) {
	if rc.index+8 > len(rc.data) {
		return 0, errOutOfRange(rc.index)
	}
	v := rc.order.Uint64(rc.data[rc.index:])
	rc.index += 8
	return v, nil
}

// I8 reads a signed byte.
func (rc *ReadContext) I8() (int8, error) {
	v, err := rc.U8()
	return int8(v), err
}

// I16 reads a signed 16-bit integer.
func (rc *ReadContext) I16() (int16, error) {
	v, err := rc.U16()
	return int16(v), err
}

// I32 reads a signed 32-bit integer.
func (rc *ReadContext) I32() (int32, error) {
	v, err := rc.U32()
	return int32(v), err
}

// I64 reads a signed 64-bit integer.
func (rc *ReadContext) I64() (int64, error) {
	v, err := rc.U64()
	return int64(v), err
}

// Bytes reads n bytes verbatim. The returned slice is a copy, callers may
// hold on to it after the context is gone.
func (rc *ReadContext) Bytes(n int) ([]byte, error) {
	if n < 0 || rc.index+n > len(rc.data) {
		return nil, errOutOfRange(rc.index)
	}
	out := make([]byte, n)
	copy(out, rc.data[rc.index:rc.index+n])
	rc.index += n
	return out, nil
}

// readVec decodes n items by invoking the per-item decoder n times. Reads
// are fail-fast, a partial vector is never returned.
func readVec[T any](rc *ReadContext, n int, read func(*ReadContext) (T, error)) ([]T, error) {
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, err := read(rc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// readU16Vec reads n consecutive 16-bit values.
func readU16Vec(rc *ReadContext, n int) ([]uint16, error) {
	return readVec(rc, n, (*ReadContext).U16)
}

// readU32Vec reads n consecutive 32-bit values.
func readU32Vec(rc *ReadContext, n int) ([]uint32, error) {
	return readVec(rc, n, (*ReadContext).U32)
}
