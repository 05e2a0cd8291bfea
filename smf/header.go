package smf

import "bytes"

var (
	headerID = []byte("MThd")
	trackID  = []byte("MTrk")
)

// Division is the file's time resolution: ticks per quarter note, or SMPTE
// frames per second times subframes per frame.
type Division struct {
	SMPTE              bool
	TicksPerQuarter    uint16
	FramesPerSecond    uint8
	SubframeResolution uint8
}

// TicksPerSecond returns the fixed tick rate of an SMPTE division, or 0 for PPQN
func (d Division) TicksPerSecond() int {
	if !d.SMPTE {
		return 0
	}
	return int(d.FramesPerSecond) * int(d.SubframeResolution)
}

func decodeDivision(v uint16) Division {
	if v&0x8000 != 0 {
		// fps is stored negated in the low 7 bits of the upper byte
		hi := uint8(v>>8) & 0x7F
		return Division{
			SMPTE:              true,
			FramesPerSecond:    (0x80 - hi) & 0x7F,
			SubframeResolution: uint8(v),
		}
	}
	return Division{TicksPerQuarter: v & 0x7FFF}
}

// Header is the decoded MThd chunk
type Header struct {
	Format    uint16
	NumTracks uint16
	Division  Division
}

// parseHeader reads the MThd chunk. Any failure here is fatal.
func parseHeader(c *Cursor) (Header, error) {
	var h Header

	start := c.Offset()
	id, err := c.ReadBytes(4)
	if err != nil {
		return h, &ParseError{Kind: InvalidHeader, Offset: start, Track: -1, Detail: "file too short"}
	}
	if !bytes.Equal(id, headerID) {
		return h, &ParseError{Kind: InvalidHeader, Offset: start, Track: -1, Detail: "missing MThd"}
	}

	// chunk length, nominally 6
	length, err := c.ReadU32()
	if err != nil {
		return h, err
	}
	if h.Format, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.NumTracks, err = c.ReadU16(); err != nil {
		return h, err
	}
	div, err := c.ReadU16()
	if err != nil {
		return h, err
	}
	h.Division = decodeDivision(div)

	// longer headers carry fields from later revisions
	if length > 6 {
		if err := c.Skip(int(length - 6)); err != nil {
			return h, err
		}
	}
	return h, nil
}
