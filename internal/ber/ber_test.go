package ber

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeShortForm(t *testing.T) {
	for _, n := range []int{0, 1, 0x7F} {
		enc := Encode(n)
		if len(enc) != 1 {
			t.Fatalf("Encode(%d) = %v, want 1-byte short form", n, enc)
		}
		got, consumed, err := Decode(enc)
		if err != nil {
			t.Fatal(err)
		}
		if got != n || consumed != 1 {
			t.Fatalf("Decode = (%d, %d), want (%d, 1)", got, consumed, n)
		}
	}
}

func TestEncodeDecodeLongForm(t *testing.T) {
	for _, n := range []int{0x80, 0xFF, 0x1234, 0x10000} {
		enc := Encode(n)
		if enc[0]&0x80 == 0 {
			t.Fatalf("Encode(%d) did not use long form: %v", n, enc)
		}
		got, consumed, err := Decode(enc)
		if err != nil {
			t.Fatal(err)
		}
		if got != n || consumed != len(enc) {
			t.Fatalf("Decode = (%d, %d), want (%d, %d)", got, consumed, n, len(enc))
		}
	}
}

func TestEncodeFixed4(t *testing.T) {
	enc := EncodeFixed4(300)
	want := []byte{0x84, 0x00, 0x00, 0x01, 0x2C}
	if !bytes.Equal(enc, want) {
		t.Fatalf("EncodeFixed4(300) = % x, want % x", enc, want)
	}
	got, consumed, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got != 300 || consumed != 5 {
		t.Fatalf("Decode(EncodeFixed4) = (%d,%d), want (300,5)", got, consumed)
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := Decode(nil); err != ErrTruncated {
		t.Fatalf("Decode(nil) err = %v, want ErrTruncated", err)
	}
	if _, _, err := Decode([]byte{0x84, 0x01}); err != ErrTruncated {
		t.Fatalf("Decode(short) err = %v, want ErrTruncated", err)
	}
}
