package smf

import (
	"fmt"

	"smfplay/debug"
)

// trackParser decodes one MTrk body. status is the running status, 0 when
// none is in effect.
type trackParser struct {
	c      *Cursor
	index  int
	track  *Track
	status byte
}

// parseTrack decodes events until end-of-track or until the chunk runs out.
// On error the events decoded so far are returned with the track.
func parseTrack(c *Cursor, index int) (*Track, error) {
	p := &trackParser{c: c, index: index, track: &Track{}}
	for c.Remaining() > 0 {
		done, err := p.next()
		if err != nil {
			return p.track, inTrack(err, index)
		}
		if done {
			if c.Remaining() > 0 {
				debug.Log("smf", "track %d: %d bytes after end-of-track", index, c.Remaining())
			}
			return p.track, nil
		}
	}
	debug.Log("smf", "track %d: chunk ended without end-of-track", index)
	return p.track, nil
}

// next decodes a single event and reports whether it ended the track
func (p *trackParser) next() (bool, error) {
	delta, err := p.c.ReadVLQ()
	if err != nil {
		return false, err
	}

	b, err := p.c.Advance()
	if err != nil {
		return false, err
	}
	status := b
	if b&0x80 == 0 {
		// data byte: reuse the previous status
		p.c.RewindOne()
		if p.status == 0 {
			return false, &ParseError{
				Kind:   InvalidStatus,
				Offset: p.c.Offset(),
				Track:  -1,
				Detail: fmt.Sprintf("data byte 0x%02X with no running status", b),
			}
		}
		status = p.status
	}

	if status >= 0xF0 {
		p.status = 0
		return p.system(status, delta)
	}
	p.status = status
	return false, p.channel(status, delta)
}

func (p *trackParser) channel(status byte, delta uint32) error {
	shape := channelShapes[status>>4-8]
	data, err := p.c.ReadBytes(shape.operands)
	if err != nil {
		return err
	}
	ev := Event{Kind: Other}
	if shape.decode != nil {
		ev = shape.decode(status, data)
	}
	ev.Delta = delta
	p.emit(ev)
	return nil
}

func (p *trackParser) system(status byte, delta uint32) (bool, error) {
	switch status {
	case statusSysEx, statusEscape:
		p.emit(Event{Kind: Other, Delta: delta})
		n, err := p.c.ReadVLQ()
		if err != nil {
			return false, err
		}
		return false, p.c.Skip(int(n))
	case statusMeta:
		p.emit(Event{Kind: Other, Delta: delta})
		return p.meta()
	}
	return false, &ParseError{
		Kind:   InvalidStatus,
		Offset: p.c.Offset() - 1,
		Track:  -1,
		Detail: fmt.Sprintf("status 0x%02X is not valid in a file", status),
	}
}

func (p *trackParser) meta() (bool, error) {
	off := p.c.Offset()
	typ, err := p.c.ReadU8()
	if err != nil {
		return false, err
	}
	shape, ok := metaShapes[typ]
	if !ok {
		return false, &ParseError{
			Kind:   UnknownMetaEvent,
			Offset: off,
			Track:  -1,
			Detail: fmt.Sprintf("type 0x%02X", typ),
		}
	}

	n, err := p.c.ReadVLQ()
	if err != nil {
		return false, err
	}
	payload, err := p.c.ReadBytes(int(n))
	if err != nil {
		return false, err
	}
	if shape.size >= 0 && len(payload) != shape.size {
		debug.Log("smf", "track %d: %s meta with %d bytes, expected %d", p.index, shape.name, len(payload), shape.size)
	}

	switch shape.action {
	case metaName:
		p.track.Name = decodeText(payload)
	case metaInstrument:
		p.track.Instrument = decodeText(payload)
	case metaCopyright:
		debug.Log("smf", "track %d: copyright %q", p.index, decodeText(payload))
	case metaPort:
		if len(payload) > 0 {
			p.track.Port = payload[0]
			p.track.HasPort = true
		}
	case metaEndOfTrack:
		return true, nil
	}
	return false, nil
}

func (p *trackParser) emit(ev Event) {
	p.track.Events = append(p.track.Events, ev)
}
