package page

import "testing"

func TestOffsetRoundTrip(t *testing.T) {
	p := New(make([]byte, Size))
	p.PutOffset(0, 4096)
	if got := p.GetOffset(0); got != 4096 {
		t.Errorf("expected 4096, got %d", got)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	p := New(make([]byte, Size))
	if err := p.PutFixed(10, 16, []byte("hello")); err != nil {
		t.Fatalf("PutFixed failed: %v", err)
	}
	got := p.GetFixed(10, 16)
	if string(got) != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestFixedTrimsPadding(t *testing.T) {
	p := New(make([]byte, Size))
	p.PutFixed(0, 8, []byte("ab"))
	if got := p.GetFixed(0, 8); len(got) != 2 {
		t.Errorf("expected trimmed length 2, got %d (%v)", len(got), got)
	}
}

func TestPutFixedTooLarge(t *testing.T) {
	p := New(make([]byte, Size))
	err := p.PutFixed(0, 4, []byte("toolong"))
	if err != ErrValueTooLarge {
		t.Errorf("expected ErrValueTooLarge, got %v", err)
	}
}

func TestByteRoundTrip(t *testing.T) {
	p := New(make([]byte, Size))
	p.SetByte(0, 0x02)
	if got := p.Byte(0); got != 0x02 {
		t.Errorf("expected 0x02, got %#x", got)
	}
}
