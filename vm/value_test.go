package vm

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		tag     Tag
		payload int32
	}{
		{INTEGER, 0},
		{INTEGER, 32767},
		{INTEGER, -32768},
		{INTEGER, -1},
		{SENTINEL, 0},
		{CODE, 0},
		{CODE, 127},
		{CODE, 32767},
		{STRING, 65535},
		{LIST, 0},
		{LIST, 40},
		{LINK, 1},
		{REF, 12345},
		{LOCAL, 3},
	}
	for _, c := range cases {
		v := Encode(c.payload, c.tag)
		tag, payload := Decode(v)
		if tag != c.tag || payload != c.payload {
			t.Errorf("Encode(%d, %v) round-trip: got (%v, %d)", c.payload, c.tag, tag, payload)
		}
	}
}

func TestDecodeFiniteFloatIsNumber(t *testing.T) {
	v := FromFloat(3.5)
	tag, _ := Decode(v)
	if tag != NUMBER {
		t.Errorf("finite float decoded as %v, want NUMBER", tag)
	}
	if Float(v) != 3.5 {
		t.Errorf("Float(v) = %v, want 3.5", Float(v))
	}
}

func TestEncodePanicsOnOutOfRangePayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range INTEGER payload")
		}
	}()
	Encode(40000, INTEGER)
}

func TestIsFalsy(t *testing.T) {
	cases := []struct {
		v     Value
		falsy bool
	}{
		{SentinelNil, true},
		{Encode(0, INTEGER), true},
		{FromInt(0), true},
		{Encode(1, INTEGER), false},
		{FromInt(1), false},
		{Encode(0, CODE), false},
	}
	for _, c := range cases {
		if got := IsFalsy(c.v); got != c.falsy {
			t.Errorf("IsFalsy(%v) = %v, want %v", c.v, got, c.falsy)
		}
	}
}

func TestIsTag(t *testing.T) {
	v := Encode(5, LIST)
	if !IsTag(v, LIST) {
		t.Error("IsTag(LIST(5), LIST) = false, want true")
	}
	if IsTag(v, LINK) {
		t.Error("IsTag(LIST(5), LINK) = true, want false")
	}
}
