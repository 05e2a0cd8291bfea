package smf

import (
	"cmp"
	"fmt"
	"slices"
)

// OverlapPolicy decides what happens when a note-on arrives for a pitch that
// is already sounding on the same track.
type OverlapPolicy int

const (
	// OverlapReplace forgets the earlier note-on. Only the later one is emitted.
	OverlapReplace OverlapPolicy = iota
	// OverlapStack keeps every note-on; each note-off closes the most recent.
	// The earlier occurrence ends last and so gets the longer duration.
	OverlapStack
)

func (p OverlapPolicy) String() string {
	if p == OverlapStack {
		return "stack"
	}
	return "replace"
}

// ParseOverlapPolicy accepts "replace" or "stack"; empty means replace.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "replace":
		return OverlapReplace, nil
	case "stack":
		return OverlapStack, nil
	}
	return OverlapReplace, fmt.Errorf("unknown overlap policy %q", s)
}

type openNote struct {
	start    uint64
	velocity uint8
	channel  uint8
}

// openNotes maps a pitch to its sounding note-ons, oldest first. One map
// lives for exactly one track's assembly.
type openNotes map[uint8][]openNote

func (o openNotes) on(e Event, now uint64, policy OverlapPolicy) {
	n := openNote{start: now, velocity: e.Velocity, channel: e.Channel}
	if policy == OverlapStack {
		o[e.Note] = append(o[e.Note], n)
		return
	}
	o[e.Note] = []openNote{n}
}

// off closes the most recent open note for the pitch, if any
func (o openNotes) off(e Event, now uint64) (Note, bool) {
	stack := o[e.Note]
	if len(stack) == 0 {
		return Note{}, false
	}
	last := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(o, e.Note)
	} else {
		o[e.Note] = stack[:len(stack)-1]
	}
	return Note{
		Note:     e.Note,
		Velocity: last.velocity,
		Channel:  last.channel,
		Start:    last.start,
		Duration: now - last.start,
	}, true
}

// AssembleNotes pairs note-ons with note-offs and returns absolute-time notes
// ordered by start tick. Unmatched note-offs and notes still open at the end
// are dropped.
func AssembleNotes(events []Event, policy OverlapPolicy) []Note {
	open := make(openNotes)
	var notes []Note
	var now uint64
	for _, e := range events {
		now += uint64(e.Delta)
		switch e.Kind {
		case NoteOn:
			open.on(e, now, policy)
		case NoteOff:
			if n, ok := open.off(e, now); ok {
				notes = append(notes, n)
			}
		}
	}
	// emitted in note-off order; a long note can close after shorter later ones
	slices.SortStableFunc(notes, func(a, b Note) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return notes
}
