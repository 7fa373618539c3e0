// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"hash/adler32"
	"reflect"
	"testing"
)

// leBytes builds little-endian byte sequences for synthetic DEX chunks.
type leBytes []byte

func (b leBytes) u8(v uint8) leBytes {
	return append(b, v)
}

func (b leBytes) u16(v uint16) leBytes {
	return append(b, byte(v), byte(v>>8))
}

func (b leBytes) u32(v uint32) leBytes {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (b leBytes) raw(data ...byte) leBytes {
	return append(b, data...)
}

// minimalDexBytes builds a header-only DEX file with one string id table
// entry pointing at a string_data_item placed right after the tables. The
// header digests are recomputed so checksum validation passes.
func minimalDexBytes(t *testing.T) []byte {
	t.Helper()

	stringData := leBytes{}.u8(5).raw([]byte("hello")...).u8(0)
	stringIDsOff := uint32(DexHeaderSize)
	stringDataOff := stringIDsOff + 4

	body := leBytes{}.u32(stringDataOff).raw(stringData...)
	fileSize := uint32(DexHeaderSize) + uint32(len(body))

	data := leBytes{}.
		raw([]byte("dex\n039\x00")...).
		u32(0).                   // checksum, patched below
		raw(make([]byte, 20)...). // signature, patched below
		u32(fileSize).
		u32(DexHeaderSize).
		u32(DexLittleEndianTag).
		u32(0).u32(0).              // link
		u32(0).                     // map
		u32(1).u32(stringIDsOff).   // string ids
		u32(0).u32(0).              // type ids
		u32(0).u32(0).              // proto ids
		u32(0).u32(0).              // field ids
		u32(0).u32(0).              // method ids
		u32(0).u32(0).              // class defs
		u32(uint32(len(body))).u32(DexHeaderSize)
	data = append(data, body...)

	digest := sha1.Sum(data[32:])
	copy(data[12:32], digest[:])
	binary.LittleEndian.PutUint32(data[8:12], adler32.Checksum(data[12:]))
	return data
}

func TestParseDexMinimal(t *testing.T) {
	data := minimalDexBytes(t)

	file, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}
	if file.Kind != KindDex {
		t.Fatalf("kind got %v, want Dex", file.Kind)
	}

	dex := file.Dex
	if len(dex.StringIDs) != 1 {
		t.Fatalf("string ids got %d, want 1", len(dex.StringIDs))
	}
	value, err := dex.GetString(0)
	if err != nil {
		t.Fatalf("GetString failed, reason: %v", err)
	}
	if value != "hello" {
		t.Errorf("string got %q, want hello", value)
	}
	if len(file.Anomalies) != 0 {
		t.Errorf("anomalies got %v, want none", file.Anomalies)
	}
}

func TestParseDexChecksumMismatch(t *testing.T) {
	data := minimalDexBytes(t)
	data[len(data)-1] ^= 0xFF // corrupt the trailing string byte

	file, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}
	if len(file.Anomalies) != 1 || file.Anomalies[0] != AnoDexChecksumMismatch {
		t.Errorf("anomalies got %v, want checksum mismatch", file.Anomalies)
	}

	// validation off, nothing recorded
	file, _ = NewBytes(data, &Options{DisableChecksumValidation: true})
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}
	if len(file.Anomalies) != 0 {
		t.Errorf("anomalies got %v, want none", file.Anomalies)
	}
}

func TestReadCodeItemAlignment(t *testing.T) {
	// one try: the odd instruction count forces padding before the tries
	withTries := leBytes{}.
		u16(1).u16(0).u16(0). // registers, ins, outs
		u16(1).               // tries
		u32(0).               // debug info
		u32(1).               // one code unit
		u16(0x000E).          // return-void
		u16(0).               // alignment padding
		u32(0).u16(1).u16(0). // try item
		u8(1).                // one handler
		u8(0x7F).             // sign-encoded size -1
		u8(3).u8(4).          // one typed pair
		u8(9)                 // catch-all address

	item, err := readCodeItem(LittleEndian(withTries))
	if err != nil {
		t.Fatalf("readCodeItem failed, reason: %v", err)
	}
	if len(item.Tries) != 1 || item.Tries[0].InsnCount != 1 {
		t.Errorf("tries got %+v", item.Tries)
	}
	handler := item.Handlers.List[0]
	if !handler.HasCatchAll || handler.CatchAllAddr != 9 {
		t.Errorf("handler got %+v", handler)
	}

	// no tries: no padding, the handler list follows immediately
	withoutTries := leBytes{}.
		u16(1).u16(0).u16(0).
		u16(0).
		u32(0).
		u32(1).
		u16(0x000E).
		u8(0) // empty handler list

	item, err = readCodeItem(LittleEndian(withoutTries))
	if err != nil {
		t.Fatalf("readCodeItem failed, reason: %v", err)
	}
	if len(item.Tries) != 0 || len(item.Handlers.List) != 0 {
		t.Errorf("code item got %+v", item)
	}
	if len(item.Insns.Insns) != 1 {
		t.Errorf("insns got %d, want 1", len(item.Insns.Insns))
	}
}

func TestReadEncodedCatchHandlerTyped(t *testing.T) {
	// two typed handlers, no catch-all
	data := leBytes{}.
		u8(2).
		u8(3).u8(10). // type 3 at addr 10
		u8(4).u8(20)

	handler, err := readEncodedCatchHandler(LittleEndian(data))
	if err != nil {
		t.Fatalf("readEncodedCatchHandler failed, reason: %v", err)
	}
	if handler.Size != 2 || handler.HasCatchAll {
		t.Errorf("handler got %+v", handler)
	}
	want := []EncodedTypeAddrPair{{TypeIdx: 3, Addr: 10}, {TypeIdx: 4, Addr: 20}}
	if !reflect.DeepEqual(handler.Handlers, want) {
		t.Errorf("pairs got %+v, want %+v", handler.Handlers, want)
	}
}

func TestReadClassDataKeepsIndexDiffs(t *testing.T) {
	// two static fields with index diffs 2 and 3: the class_data_item keeps
	// the raw diffs; the absolute indices 2 and 5 are rebuilt by the element
	// layer
	data := leBytes{}.
		u8(2).u8(0).u8(0).u8(0). // counts
		u8(2).u8(1).             // field diff 2, flags 1
		u8(3).u8(2)              // field diff 3, flags 2

	dex := &DexFile{
		data:      data,
		classData: NewMemo[uint32, ClassDataItem](),
	}

	item, err := dex.GetClassData(0)
	if err != nil {
		t.Fatalf("GetClassData failed, reason: %v", err)
	}
	if len(item.StaticFields) != 2 {
		t.Fatalf("static fields got %d, want 2", len(item.StaticFields))
	}
	if item.StaticFields[1].FieldIdxDiff != 3 {
		t.Errorf("second diff got %d, want 3", item.StaticFields[1].FieldIdxDiff)
	}
}

func TestDexAccessorMemoized(t *testing.T) {
	data := minimalDexBytes(t)
	file, _ := NewBytes(data, nil)
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse failed, reason: %v", err)
	}

	dex := file.Dex
	off := dex.StringIDs[0].StringDataOff
	if _, err := dex.GetStringData(off); err != nil {
		t.Fatalf("GetStringData failed, reason: %v", err)
	}
	if dex.stringData.Len() != 1 {
		t.Fatalf("cache size got %d, want 1", dex.stringData.Len())
	}
	if _, err := dex.GetStringData(off); err != nil {
		t.Fatalf("GetStringData failed, reason: %v", err)
	}
	if dex.stringData.Len() != 1 {
		t.Errorf("cache size got %d after second fetch", dex.stringData.Len())
	}
}

func TestParseDexTooSmall(t *testing.T) {
	file, _ := NewBytes([]byte("dex\n039\x00"), nil)
	if err := file.ParseDex(); !errors.Is(err, ErrInvalidDexSize) {
		t.Errorf("ParseDex got %v, want ErrInvalidDexSize", err)
	}
}

func TestDexEndianness(t *testing.T) {
	// the same class_def decoded from both byte orders
	classDef := [8]uint32{7, 1, NoIndex, 0, NoIndex, 0, 0, 0}

	le := leBytes{}
	be := beBytes{}
	for _, v := range classDef {
		le = le.u32(v)
		be = be.u32(v)
	}

	gotLE, err := readClassDef(LittleEndian(le))
	if err != nil {
		t.Fatalf("little-endian readClassDef failed, reason: %v", err)
	}
	gotBE, err := readClassDef(BigEndian(be))
	if err != nil {
		t.Fatalf("big-endian readClassDef failed, reason: %v", err)
	}
	if gotLE != gotBE {
		t.Errorf("decodes differ: %+v vs %+v", gotLE, gotBE)
	}
	if gotLE.ClassIdx != 7 || gotLE.SuperclassIdx != NoIndex {
		t.Errorf("class def got %+v", gotLE)
	}
}
