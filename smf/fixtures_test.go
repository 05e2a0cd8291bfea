package smf

import "encoding/binary"

// header builds an MThd chunk
func header(format, ntracks, division uint16) []byte {
	b := []byte("MThd")
	b = binary.BigEndian.AppendUint32(b, 6)
	b = binary.BigEndian.AppendUint16(b, format)
	b = binary.BigEndian.AppendUint16(b, ntracks)
	b = binary.BigEndian.AppendUint16(b, division)
	return b
}

// mtrk wraps an event stream in an MTrk chunk with its real length
func mtrk(body ...byte) []byte {
	return mtrkLen(uint32(len(body)), body...)
}

// mtrkLen wraps body with an arbitrary declared length
func mtrkLen(length uint32, body ...byte) []byte {
	b := []byte("MTrk")
	b = binary.BigEndian.AppendUint32(b, length)
	return append(b, body...)
}

func file(division uint16, tracks ...[]byte) []byte {
	b := header(1, uint16(len(tracks)), division)
	for _, t := range tracks {
		b = append(b, t...)
	}
	return b
}

var endOfTrack = []byte{0x00, 0xFF, 0x2F, 0x00}

func withEOT(body ...byte) []byte {
	return append(body, endOfTrack...)
}
