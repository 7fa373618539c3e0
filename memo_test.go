// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"errors"
	"testing"
)

func TestMemoComputesOnce(t *testing.T) {
	memo := NewMemo[int, string]()
	calls := 0
	compute := func(k int) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := memo.Get(7, compute)
		if err != nil || v != "value" {
			t.Fatalf("Get got (%q, %v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestMemoCachesErrors(t *testing.T) {
	memo := NewMemo[int, string]()
	calls := 0
	boom := errors.New("boom")
	compute := func(k int) (string, error) {
		calls++
		return "", boom
	}

	for i := 0; i < 3; i++ {
		if _, err := memo.Get(1, compute); !errors.Is(err, boom) {
			t.Fatalf("Get got %v, want boom", err)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestOnceVec(t *testing.T) {
	vec := NewOnceVec[int](3)
	calls := 0
	compute := func(i int) (int, error) {
		calls++
		return i * 10, nil
	}

	for i := 0; i < 2; i++ {
		v, err := vec.GetOrCompute(2, compute)
		if err != nil || v != 20 {
			t.Fatalf("GetOrCompute got (%d, %v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	if _, err := vec.GetOrCompute(3, compute); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("GetOrCompute(3) got %v, want ErrOutOfRange", err)
	}
}
