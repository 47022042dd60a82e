package vban

import "testing"

func TestHeaderMarshalUnmarshalRoundTrip(t *testing.T) {
	h := Header{
		FourCC:   headerMagic,
		SRByte:   uint8(SubProtocolAudio) | 3,
		Nbs:      255,
		Nbc:      1,
		BitByte:  uint8(CodecPCM) | uint8(BitFormat24Int),
		FrameCtr: 0xDEADBEEF,
	}
	h.setStreamName("my-stream")

	raw, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(raw) != HeaderSize {
		t.Fatalf("len(raw) = %d, want %d", len(raw), HeaderSize)
	}

	var got Header
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
	if got.StreamNameString() != "my-stream" {
		t.Errorf("StreamNameString = %q, want %q", got.StreamNameString(), "my-stream")
	}
}

func TestHeaderUnmarshalShortBuffer(t *testing.T) {
	var h Header
	if err := h.UnmarshalBinary(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("UnmarshalBinary on short buffer: want error, got nil")
	}
}

func TestSRIndexTableRoundTrip(t *testing.T) {
	for i, rate := range SRTable {
		idx, ok := SRIndex(rate)
		if !ok {
			t.Errorf("SRIndex(%d): not found", rate)
			continue
		}
		if int(idx) != i {
			t.Errorf("SRIndex(%d) = %d, want %d", rate, idx, i)
		}
	}
	if _, ok := SRIndex(1); ok {
		t.Error("SRIndex(1) = found, want not found")
	}
}

func TestBitFormatFromString(t *testing.T) {
	cases := []struct {
		s  string
		bf BitFormat
	}{
		{"8I", BitFormat8Int},
		{"16I", BitFormat16Int},
		{"24I", BitFormat24Int},
		{"32I", BitFormat32Int},
		{"32F", BitFormat32Float},
		{"64F", BitFormat64Float},
		{"12I", BitFormat12Int},
		{"10I", BitFormat10Int},
	}
	for _, c := range cases {
		bf, ok := BitFormatFromString(c.s)
		if !ok || bf != c.bf {
			t.Errorf("BitFormatFromString(%q) = %v, %v; want %v, true", c.s, bf, ok, c.bf)
		}
	}
	if _, ok := BitFormatFromString("bogus"); ok {
		t.Error("BitFormatFromString(bogus) = true, want false")
	}
}
