package datapage

import (
	"bytes"
	"testing"
)

func TestInsertAndGet(t *testing.T) {
	dp := New(4096)

	idxA := dp.Insert([]byte("alpha"))
	idxB := dp.Insert([]byte("beta"))

	if idxA != 0 || idxB != 1 {
		t.Fatalf("expected indices 0,1, got %d,%d", idxA, idxB)
	}

	got, ok := dp.Get(idxA)
	if !ok || !bytes.Equal(got, []byte("alpha")) {
		t.Errorf("expected alpha, got %q (ok=%v)", got, ok)
	}
	got, ok = dp.Get(idxB)
	if !ok || !bytes.Equal(got, []byte("beta")) {
		t.Errorf("expected beta, got %q (ok=%v)", got, ok)
	}
}

func TestGetOutOfRange(t *testing.T) {
	dp := New(4096)
	dp.Insert([]byte("x"))

	if _, ok := dp.Get(5); ok {
		t.Error("expected ok=false for out-of-range index")
	}
	if _, ok := dp.Get(-1); ok {
		t.Error("expected ok=false for negative index")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dp := New(4096)
	dp.Insert([]byte("one"))
	dp.Insert([]byte("two"))
	dp.Insert([]byte(""))
	dp.Insert([]byte("four"))

	encoded, err := dp.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) != 4096 {
		t.Fatalf("expected encoded length 4096, got %d", len(encoded))
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Len() != 4 {
		t.Fatalf("expected 4 values, got %d", decoded.Len())
	}

	for i, want := range [][]byte{[]byte("one"), []byte("two"), []byte(""), []byte("four")} {
		got, ok := decoded.Get(i)
		if !ok {
			t.Fatalf("missing value at index %d", i)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("index %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestEncodeTooLargeFails(t *testing.T) {
	dp := New(16)
	dp.Insert(make([]byte, 64))

	if _, err := dp.Encode(); err != ErrPageFull {
		t.Errorf("expected ErrPageFull, got %v", err)
	}
}

func TestRemoveShiftsSubsequentIndices(t *testing.T) {
	dp := New(4096)
	dp.Insert([]byte("a"))
	dp.Insert([]byte("b"))
	dp.Insert([]byte("c"))

	if err := dp.Remove(1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if dp.Len() != 2 {
		t.Fatalf("expected 2 values after remove, got %d", dp.Len())
	}

	got, ok := dp.Get(1)
	if !ok || !bytes.Equal(got, []byte("c")) {
		t.Errorf("expected 'c' shifted into index 1, got %q (ok=%v)", got, ok)
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	dp := New(4096)
	dp.Insert([]byte("a"))

	if err := dp.Remove(9); err == nil {
		t.Error("expected error removing out-of-range index")
	}
}

func TestSplitPartitionsValues(t *testing.T) {
	dp := New(4096)
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		dp.Insert([]byte(v))
	}

	right := dp.Split(3)

	if dp.Len() != 3 {
		t.Fatalf("expected left page to retain 3 values, got %d", dp.Len())
	}
	if right.Len() != 2 {
		t.Fatalf("expected right page to receive 2 values, got %d", right.Len())
	}

	got, _ := dp.Get(2)
	if !bytes.Equal(got, []byte("c")) {
		t.Errorf("expected left[2]='c', got %q", got)
	}
	got, _ = right.Get(0)
	if !bytes.Equal(got, []byte("d")) {
		t.Errorf("expected right[0]='d', got %q", got)
	}
}

func TestConcatRebuildsSingleDataPage(t *testing.T) {
	left := New(4096)
	left.Insert([]byte("a"))
	left.Insert([]byte("b"))

	right := New(4096)
	right.Insert([]byte("c"))
	right.Insert([]byte("d"))

	merged := Concat(4096, left, right)
	if merged.Len() != 4 {
		t.Fatalf("expected 4 values after concat, got %d", merged.Len())
	}

	for i, want := range []string{"a", "b", "c", "d"} {
		got, ok := merged.Get(i)
		if !ok || !bytes.Equal(got, []byte(want)) {
			t.Errorf("index %d: expected %q, got %q", i, want, got)
		}
	}
}
