// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"fmt"
)

// Errors
var (

	// ErrOutOfRange is returned when a cursor position or a pool index points
	// past the end of its domain.
	ErrOutOfRange = errors.New("read outside boundary")

	// ErrIORead is returned when the underlying byte source failed.
	ErrIORead = errors.New("reading input failed")

	// ErrIOWrite is returned when the underlying byte sink failed.
	ErrIOWrite = errors.New("writing output failed")

	// ErrIllegalFormat is returned when a discriminant byte (pool tag, frame
	// type, element-value tag, type-annotation target) does not match any
	// known value.
	ErrIllegalFormat = errors.New("illegal format")

	// ErrReadUTF8 is returned on an invalid UTF-8 byte sequence.
	ErrReadUTF8 = errors.New("invalid UTF-8 sequence")

	// ErrReadMUTF8 is returned on an invalid modified UTF-8 byte sequence.
	ErrReadMUTF8 = errors.New("invalid MUTF-8 sequence")

	// ErrResolveNode is returned on a second-pass semantic violation, such as
	// a duplicate singleton attribute or an invalid ConstantValue kind.
	ErrResolveNode = errors.New("node resolution failed")

	// ErrUnknownInsn is returned for a DEX opcode outside the defined set.
	ErrUnknownInsn = errors.New("unknown instruction")

	// ErrInvalidLEB128 is returned when a LEB128 value continues past its
	// five byte maximum.
	ErrInvalidLEB128 = errors.New("invalid LEB128")

	// ErrUnknownDexPayload is returned when the sub-byte of a pseudo
	// instruction is not packed-switch, sparse-switch or fill-array-data.
	ErrUnknownDexPayload = errors.New("unknown payload format")

	// ErrInvalidClassMagic is returned when the first four bytes are not
	// 0xCAFEBABE.
	ErrInvalidClassMagic = errors.New("not a class file, magic not found")

	// ErrInvalidDexMagic is returned when the first bytes do not carry the
	// "dex\n" magic.
	ErrInvalidDexMagic = errors.New("not a dex file, magic not found")

	// ErrUnknownFileKind is returned when the input matches neither the
	// class-file nor the DEX magic.
	ErrUnknownFileKind = errors.New("unknown file kind, no known magic found")

	// ErrInvalidDexSize is returned when the file is smaller than a DEX
	// header.
	ErrInvalidDexSize = errors.New("not a dex file, smaller than the header")
)

func errOutOfRange(pos int) error {
	return fmt.Errorf("%w: offset %#x", ErrOutOfRange, pos)
}

func errIllegalFormat(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalFormat, fmt.Sprintf(format, args...))
}

func errResolveNode(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResolveNode, fmt.Sprintf(format, args...))
}

func errUnknownInsn(op uint8) error {
	return fmt.Errorf("%w: opcode %#02x", ErrUnknownInsn, op)
}

func errInvalidLEB128(pos int) error {
	return fmt.Errorf("%w: offset %#x", ErrInvalidLEB128, pos)
}

func errUnknownDexPayload(sub uint8) error {
	return fmt.Errorf("%w: sub-opcode %#02x", ErrUnknownDexPayload, sub)
}
