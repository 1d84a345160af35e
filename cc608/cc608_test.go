package cc608

import "testing"

func TestParityRoundTrip(t *testing.T) {
	p := ApplyParity(0x14, 0x2C)
	if !HasOddParity(p[0]) || !HasOddParity(p[1]) {
		t.Fatalf("ApplyParity produced even-parity byte: %x", p)
	}
	lo, hi := StripParity(p)
	if lo != 0x14 || hi != 0x2C {
		t.Fatalf("StripParity(ApplyParity(...)) = %x,%x, want 14,2c", lo, hi)
	}
}

func TestRaw608RoundTrip(t *testing.T) {
	pairs := []Pair{{0x94, 0x2C}, NullPair, {0x15, 0x2D}}
	data := EncodeRaw608(pairs)
	got := DecodeRaw608(data)
	if len(got) != len(pairs) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(pairs))
	}
	for i := range pairs {
		if got[i] != pairs[i] {
			t.Fatalf("pair %d = %x, want %x", i, got[i], pairs[i])
		}
	}
}

func TestS334RoundTrip(t *testing.T) {
	fields := []Field{Field1, Field2, Field1}
	pairs := []Pair{{0x94, 0x2C}, {0x15, 0x2D}, NullPair}
	data := EncodeS334Stream(fields, pairs)
	triplets := DecodeS334Stream(data)
	if len(triplets) != 3 {
		t.Fatalf("len(triplets) = %d, want 3", len(triplets))
	}
	for i, tr := range triplets {
		f, p := DecodeS334(tr)
		if f != fields[i] || p != pairs[i] {
			t.Fatalf("triplet %d = (%v,%x), want (%v,%x)", i, f, p, fields[i], pairs[i])
		}
	}
}

func TestS334FieldFlagBit(t *testing.T) {
	t1 := EncodeS334(Field1, Pair{0, 0})
	t2 := EncodeS334(Field2, Pair{0, 0})
	if t1[0]&0x80 == 0 {
		t.Fatal("Field1 triplet missing field flag bit")
	}
	if t2[0]&0x80 != 0 {
		t.Fatal("Field2 triplet has field flag bit set")
	}
}
