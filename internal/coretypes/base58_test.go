package coretypes

import (
	"bytes"
	"testing"
)

func TestBase58RoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0},
		{0, 0, 1},
		{1, 2, 3, 4, 5},
		bytes.Repeat([]byte{0xff}, 32),
	}
	for _, in := range cases {
		encoded := base58Encode(in)
		decoded, err := base58Decode(encoded)
		if err != nil {
			t.Fatalf("base58Decode(%q): %v", encoded, err)
		}
		if !bytes.Equal(decoded, in) {
			t.Errorf("round-trip of %v got %v via %q", in, decoded, encoded)
		}
	}
}

func TestBase58DecodeRejectsInvalidCharacter(t *testing.T) {
	if _, err := base58Decode("0OIl"); err == nil {
		t.Error("expected an error decoding characters outside the base58 alphabet")
	}
}
