package smf

import (
	"errors"
	"testing"
)

func TestDecodeDivision(t *testing.T) {
	tests := []struct {
		raw  uint16
		want Division
	}{
		{0x0060, Division{TicksPerQuarter: 96}},
		{0x01E0, Division{TicksPerQuarter: 480}},
		{0x7FFF, Division{TicksPerQuarter: 0x7FFF}},
		{0xE728, Division{SMPTE: true, FramesPerSecond: 25, SubframeResolution: 40}},
		{0xE850, Division{SMPTE: true, FramesPerSecond: 24, SubframeResolution: 80}},
		{0xE304, Division{SMPTE: true, FramesPerSecond: 29, SubframeResolution: 4}},
		{0xE200, Division{SMPTE: true, FramesPerSecond: 30, SubframeResolution: 0}},
		{0x8000, Division{SMPTE: true, FramesPerSecond: 0, SubframeResolution: 0}},
		{0xFF01, Division{SMPTE: true, FramesPerSecond: 1, SubframeResolution: 1}},
	}
	for _, tt := range tests {
		if got := decodeDivision(tt.raw); got != tt.want {
			t.Errorf("decodeDivision(%#04x) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
	if tps := decodeDivision(0xE728).TicksPerSecond(); tps != 1000 {
		t.Errorf("TicksPerSecond = %d, want 1000", tps)
	}
}

func TestParseHeader(t *testing.T) {
	h, err := parseHeader(NewCursor(header(1, 3, 480)))
	if err != nil {
		t.Fatal(err)
	}
	want := Header{Format: 1, NumTracks: 3, Division: Division{TicksPerQuarter: 480}}
	if h != want {
		t.Fatalf("parseHeader = %+v, want %+v", h, want)
	}
}

func TestParseHeaderSkipsExtraLength(t *testing.T) {
	data := []byte("MThd")
	data = append(data, 0, 0, 0, 8, 0, 0, 0, 1, 0, 96, 0xAB, 0xCD)
	c := NewCursor(data)
	if _, err := parseHeader(c); err != nil {
		t.Fatal(err)
	}
	if c.Remaining() != 0 {
		t.Fatalf("header left %d bytes unread", c.Remaining())
	}
}

func TestInvalidHeader(t *testing.T) {
	tests := map[string][]byte{
		"wrong id":    append([]byte("RIFF"), header(0, 1, 96)[4:]...),
		"lowercase":   append([]byte("mthd"), header(0, 1, 96)[4:]...),
		"too short":   []byte("MTh"),
		"empty":       nil,
		"track first": mtrk(endOfTrack...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := ParseBytes(data)
			if !errors.Is(err, ErrInvalidHeader) {
				t.Fatalf("err = %v, want ErrInvalidHeader", err)
			}
			if f != nil {
				t.Fatalf("got %d tracks, want no file", len(f.Tracks))
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Offset != 0 || pe.Track != -1 {
				t.Fatalf("ParseError = %+v", pe)
			}
		})
	}
}

func TestTruncatedHeaderIsFatal(t *testing.T) {
	f, err := ParseBytes(header(1, 1, 96)[:11])
	if !errors.Is(err, ErrUnexpectedEndOfStream) {
		t.Fatalf("err = %v, want ErrUnexpectedEndOfStream", err)
	}
	if f != nil {
		t.Fatal("got a file from a truncated header")
	}
}
