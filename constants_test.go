// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"testing"
)

func TestJVMOpcodeName(t *testing.T) {

	tests := []struct {
		op   uint8
		name string
		ok   bool
	}{
		{OpNop, "nop", true},
		{OpGetstatic, "getstatic", true},
		{OpInvokedynamic, "invokedynamic", true},
		{OpJsrW, "jsr_w", true},
		{202, "", false},
	}

	for _, tt := range tests {
		name, ok := JVMOpcodeName(tt.op)
		if name != tt.name || ok != tt.ok {
			t.Errorf("JVMOpcodeName(%d) got (%q, %v), want (%q, %v)",
				tt.op, name, ok, tt.name, tt.ok)
		}
	}
}

func TestDexOpcodeName(t *testing.T) {

	tests := []struct {
		op   uint8
		name string
		ok   bool
	}{
		{0x01, "move", true},
		{0x1a, "const-string", true},
		{0x6e, "invoke-virtual", true},
		{0xff, "const-method-type", true},
		{0x3e, "", false}, // reserved
	}

	for _, tt := range tests {
		name, ok := DexOpcodeName(tt.op)
		if name != tt.name || ok != tt.ok {
			t.Errorf("DexOpcodeName(%#02x) got (%q, %v), want (%q, %v)",
				tt.op, name, ok, tt.name, tt.ok)
		}
	}
}

func TestMapListTypeName(t *testing.T) {
	name, ok := MapListTypeName(TypeCodeItem)
	if !ok || name != "code_item" {
		t.Errorf("MapListTypeName(0x2001) got (%q, %v)", name, ok)
	}
	if _, ok := MapListTypeName(0x4242); ok {
		t.Error("MapListTypeName(0x4242) should be absent")
	}
}

func TestPrettyAccessFlags(t *testing.T) {
	got := PrettyMethodAccessFlags(AccPublic | AccStatic | AccConstructor)
	want := map[string]bool{"public": true, "static": true, "constructor": true}
	if len(got) != len(want) {
		t.Fatalf("flags got %v", got)
	}
	for _, flag := range got {
		if !want[flag] {
			t.Errorf("unexpected flag %q", flag)
		}
	}
}

func TestIsPreview(t *testing.T) {
	cf := &ClassFile{MinorVersion: 0xFFFF, MajorVersion: 67}
	if !cf.IsPreview() {
		t.Error("minor 0xFFFF should flag preview")
	}
	cf = &ClassFile{MinorVersion: 0, MajorVersion: 67}
	if cf.IsPreview() {
		t.Error("minor 0 should not flag preview")
	}
}
