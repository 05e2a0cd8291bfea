package smf

// channelShape describes a channel voice message: how many data bytes follow
// the status and how they become an Event. A nil decode yields Other.
type channelShape struct {
	name     string
	operands int
	decode   func(status byte, data []byte) Event
}

// channelShapes is indexed by the status high nibble minus 8 (0x8n..0xEn).
var channelShapes = [7]channelShape{
	{"note off", 2, decodeNoteOff},
	{"note on", 2, decodeNoteOn},
	{"poly aftertouch", 2, nil},
	{"control change", 2, nil},
	{"program change", 1, nil},
	{"channel pressure", 1, nil},
	{"pitch bend", 2, nil},
}

func decodeNoteOff(status byte, data []byte) Event {
	return Event{
		Kind:     NoteOff,
		Channel:  status & 0x0F,
		Note:     data[0] & 0x7F,
		Velocity: data[1] & 0x7F,
	}
}

// decodeNoteOn maps velocity 0 to NoteOff
func decodeNoteOn(status byte, data []byte) Event {
	ev := decodeNoteOff(status, data)
	if ev.Velocity > 0 {
		ev.Kind = NoteOn
	}
	return ev
}

type metaAction uint8

const (
	metaSkip metaAction = iota
	metaText
	metaCopyright
	metaName
	metaInstrument
	metaPort
	metaEndOfTrack
)

// metaShape describes a meta event. size is the standard payload length,
// -1 for variable. The declared length in the file is what gets consumed.
type metaShape struct {
	name   string
	size   int
	action metaAction
}

var metaShapes = map[byte]metaShape{
	0x00: {"sequence number", 2, metaSkip},
	0x01: {"text", -1, metaText},
	0x02: {"copyright", -1, metaCopyright},
	0x03: {"track name", -1, metaName},
	0x04: {"instrument name", -1, metaInstrument},
	0x05: {"lyric", -1, metaText},
	0x06: {"marker", -1, metaText},
	0x07: {"cue point", -1, metaText},
	0x08: {"program name", -1, metaText},
	0x09: {"device name", -1, metaText},
	0x20: {"channel prefix", 1, metaSkip},
	0x21: {"port", 1, metaPort},
	0x2F: {"end of track", 0, metaEndOfTrack},
	0x51: {"tempo", 3, metaSkip},
	0x54: {"smpte offset", 5, metaSkip},
	0x58: {"time signature", 4, metaSkip},
	0x59: {"key signature", 2, metaSkip},
	0x7F: {"sequencer specific", -1, metaSkip},
}

const (
	statusSysEx  = 0xF0
	statusEscape = 0xF7
	statusMeta   = 0xFF
)
