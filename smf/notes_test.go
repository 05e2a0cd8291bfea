package smf

import (
	"reflect"
	"testing"
)

func TestAssembleNotes(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		policy OverlapPolicy
		want   []Note
	}{
		{
			name: "velocity zero ends the note",
			events: []Event{
				{Kind: NoteOn, Note: 60, Velocity: 64},
				{Kind: NoteOff, Delta: 10, Note: 60, Velocity: 0},
			},
			want: []Note{{Note: 60, Velocity: 64, Start: 0, Duration: 10}},
		},
		{
			name: "unmatched note off is ignored",
			events: []Event{
				{Kind: NoteOff, Delta: 5, Note: 61},
				{Kind: Other, Delta: 5},
			},
			want: nil,
		},
		{
			name: "other events advance time",
			events: []Event{
				{Kind: Other, Delta: 100},
				{Kind: NoteOn, Delta: 20, Note: 64, Velocity: 90, Channel: 9},
				{Kind: Other, Delta: 30},
				{Kind: NoteOff, Delta: 10, Note: 64},
			},
			want: []Note{{Note: 64, Velocity: 90, Channel: 9, Start: 120, Duration: 40}},
		},
		{
			name: "unterminated notes are dropped",
			events: []Event{
				{Kind: NoteOn, Note: 60, Velocity: 64},
				{Kind: NoteOn, Delta: 10, Note: 62, Velocity: 64},
				{Kind: NoteOff, Delta: 10, Note: 62},
			},
			want: []Note{{Note: 62, Velocity: 64, Start: 10, Duration: 10}},
		},
		{
			name: "sorted by start when a long note closes last",
			events: []Event{
				{Kind: NoteOn, Note: 48, Velocity: 80},
				{Kind: NoteOn, Delta: 10, Note: 60, Velocity: 70},
				{Kind: NoteOff, Delta: 10, Note: 60},
				{Kind: NoteOff, Delta: 80, Note: 48},
			},
			want: []Note{
				{Note: 48, Velocity: 80, Start: 0, Duration: 100},
				{Note: 60, Velocity: 70, Start: 10, Duration: 10},
			},
		},
		{
			name:   "overlap replace keeps the later note on",
			policy: OverlapReplace,
			events: []Event{
				{Kind: NoteOn, Note: 60, Velocity: 50},
				{Kind: NoteOn, Delta: 10, Note: 60, Velocity: 90},
				{Kind: NoteOff, Delta: 10, Note: 60},
				{Kind: NoteOff, Delta: 10, Note: 60},
			},
			want: []Note{{Note: 60, Velocity: 90, Start: 10, Duration: 10}},
		},
		{
			name:   "overlap stack closes the most recent first",
			policy: OverlapStack,
			events: []Event{
				{Kind: NoteOn, Note: 60, Velocity: 50},
				{Kind: NoteOn, Delta: 10, Note: 60, Velocity: 90},
				{Kind: NoteOff, Delta: 10, Note: 60},
				{Kind: NoteOff, Delta: 10, Note: 60},
			},
			want: []Note{
				{Note: 60, Velocity: 50, Start: 0, Duration: 30},
				{Note: 60, Velocity: 90, Start: 10, Duration: 10},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleNotes(tt.events, tt.policy)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("AssembleNotes = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestParseOverlapPolicy(t *testing.T) {
	for in, want := range map[string]OverlapPolicy{"": OverlapReplace, "replace": OverlapReplace, "stack": OverlapStack} {
		got, err := ParseOverlapPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseOverlapPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
		if in != "" && got.String() != in {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
	if _, err := ParseOverlapPolicy("fifo"); err == nil {
		t.Error("ParseOverlapPolicy(fifo) succeeded")
	}
}

func TestAssembleNotesPastUint32Ticks(t *testing.T) {
	var events []Event
	for i := 0; i < 16; i++ {
		events = append(events, Event{Kind: Other, Delta: MaxVLQ})
	}
	events = append(events,
		Event{Kind: NoteOn, Delta: 127, Note: 60, Velocity: 100},
		Event{Kind: NoteOff, Delta: 10, Note: 60},
	)

	got := AssembleNotes(events, OverlapReplace)
	want := []Note{{Note: 60, Velocity: 100, Start: 16*MaxVLQ + 127, Duration: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AssembleNotes = %+v\nwant %+v", got, want)
	}
	if got[0].Start != 4294967407 {
		t.Errorf("Start = %d", got[0].Start)
	}
}
