package mc

import (
	"bytes"
	"math"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{
		0, 1, 2, 127, 128, 255, 256,
		2097151, 2097152, math.MaxInt32, -1, math.MinInt32,
	}

	for _, v := range values {
		encoded := VarInt(v).Encode()
		if len(encoded) > 5 {
			t.Errorf("VarInt(%d) encoded to %d bytes, want <= 5", v, len(encoded))
		}

		var decoded VarInt
		if err := decoded.Decode(bytes.NewReader(encoded)); err != nil {
			t.Fatalf("VarInt(%d): decode failed: %v", v, err)
		}
		if int32(decoded) != v {
			t.Errorf("VarInt(%d) round-tripped to %d", v, decoded)
		}
	}
}

func TestVarIntTooBig(t *testing.T) {
	// Five continuation bytes followed by a terminator: six bytes, and no
	// valid 32-bit VarInt is this long.
	raw := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	var v VarInt
	if err := v.Decode(bytes.NewReader(raw)); err != ErrVarIntTooBig {
		t.Fatalf("got err %v, want ErrVarIntTooBig", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "_lazyvolet_probe", "a string with spaces and 日本語"}
	for _, s := range cases {
		encoded := String(s).Encode()
		var decoded String
		if err := decoded.Decode(bytes.NewReader(encoded)); err != nil {
			t.Fatalf("%q: decode failed: %v", s, err)
		}
		if string(decoded) != s {
			t.Errorf("%q round-tripped to %q", s, decoded)
		}
	}
}

func TestLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 1700000000000}
	for _, v := range values {
		var decoded Long
		if err := decoded.Decode(bytes.NewReader(Long(v).Encode())); err != nil {
			t.Fatalf("Long(%d): decode failed: %v", v, err)
		}
		if int64(decoded) != v {
			t.Errorf("Long(%d) round-tripped to %d", v, decoded)
		}
	}
}

func TestFloatDoubleRoundTrip(t *testing.T) {
	var f Float
	if err := f.Decode(bytes.NewReader(Float(90.5).Encode())); err != nil {
		t.Fatal(err)
	}
	if f != 90.5 {
		t.Errorf("Float round-tripped to %v", f)
	}

	var d Double
	if err := d.Decode(bytes.NewReader(Double(-12.25).Encode())); err != nil {
		t.Fatal(err)
	}
	if d != -12.25 {
		t.Errorf("Double round-tripped to %v", d)
	}
}
