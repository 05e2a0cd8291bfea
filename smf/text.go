package smf

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText turns a meta-event payload into a string. Most files carry
// ASCII; older ones use Latin-1, which is tried when the bytes are not UTF-8.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
