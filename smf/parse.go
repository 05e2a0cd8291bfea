package smf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"smfplay/debug"
)

type options struct {
	overlap OverlapPolicy
}

// Option configures Parse
type Option func(*options)

// WithOverlapPolicy sets how overlapping same-pitch notes are assembled
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(o *options) {
		o.overlap = p
	}
}

// Parse reads a whole Standard MIDI File from r.
//
// A bad header returns a nil File. Errors inside a track body are recovered
// by skipping to the end of that chunk as declared by its length; the File
// is still returned, holding every track (the failing one truncated), along
// with the recovered errors joined together. Each is a *ParseError.
func Parse(r io.Reader, opts ...Option) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read midi data: %w", err)
	}
	return ParseBytes(data, opts...)
}

// ParseBytes is Parse over an in-memory file
func ParseBytes(data []byte, opts ...Option) (*File, error) {
	o := options{overlap: OverlapReplace}
	for _, opt := range opts {
		opt(&o)
	}

	c := NewCursor(data)
	h, err := parseHeader(c)
	if err != nil {
		return nil, err
	}

	f := &File{
		Format:   h.Format,
		Division: h.Division,
		Tracks:   make([]*Track, 0, h.NumTracks),
	}

	var errs []error
	for i := 0; i < int(h.NumTracks); i++ {
		start := c.Offset()
		id, err := c.ReadBytes(4)
		if err != nil {
			errs = append(errs, inTrack(err, i))
			break
		}
		length, err := c.ReadU32()
		if err != nil {
			errs = append(errs, inTrack(err, i))
			break
		}
		if !bytes.Equal(id, trackID) {
			debug.Log("smf", "track %d: chunk id %q at offset %d, parsing as MTrk", i, id, start)
		}

		body, short := c.Sub(int(length))
		if short {
			debug.Log("smf", "track %d: declares %d bytes, %d available", i, length, body.Remaining())
		}

		t, err := parseTrack(body, i)
		t.Notes = AssembleNotes(t.Events, o.overlap)
		f.Tracks = append(f.Tracks, t)
		if err != nil {
			debug.Log("smf", "recovered: %v", err)
			errs = append(errs, err)
		}
	}

	return f, errors.Join(errs...)
}
