package smf

// EventKind tags an Event
type EventKind uint8

const (
	Other EventKind = iota
	NoteOn
	NoteOff
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	}
	return "Other"
}

// Event is one decoded track event. Delta is relative to the previous event
// in the same track. Other events keep only Delta.
type Event struct {
	Kind     EventKind
	Delta    uint32
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Note is a matched note-on/note-off pair in absolute ticks
type Note struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
	Start    uint64
	Duration uint64
}

// End returns the tick at which the note stops sounding
func (n Note) End() uint64 {
	return n.Start + n.Duration
}

// Track holds one decoded MTrk chunk.
// Name and Instrument are empty when the track never set them.
type Track struct {
	Name       string
	Instrument string
	Port       uint8
	HasPort    bool

	Events []Event // decoded stream, deltas relative
	Notes  []Note  // assembled notes, ordered by Start
}

// Length returns the track's length in ticks (sum of all deltas)
func (t *Track) Length() uint64 {
	var total uint64
	for _, e := range t.Events {
		total += uint64(e.Delta)
	}
	return total
}

// File is a parsed Standard MIDI File. It is not modified after Parse returns.
type File struct {
	Format   uint16
	Division Division
	Tracks   []*Track
}

// NoteCount returns the number of notes across all tracks
func (f *File) NoteCount() int {
	n := 0
	for _, t := range f.Tracks {
		n += len(t.Notes)
	}
	return n
}

// Length returns the length of the longest track in ticks
func (f *File) Length() uint64 {
	var longest uint64
	for _, t := range f.Tracks {
		if l := t.Length(); l > longest {
			longest = l
		}
	}
	return longest
}

// Merged returns every track's notes in one sequence ordered by start tick
func (f *File) Merged() []MergedNote {
	perTrack := make([][]Note, len(f.Tracks))
	for i, t := range f.Tracks {
		perTrack[i] = t.Notes
	}
	return Merge(perTrack)
}
