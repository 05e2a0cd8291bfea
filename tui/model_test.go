package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"smfplay/player"
	"smfplay/smf"
	"smfplay/theme"
)

type fakeTransport struct {
	state   player.State
	pos     uint64
	rewinds int
	playErr error
}

func (f *fakeTransport) Play() error {
	if f.playErr != nil {
		return f.playErr
	}
	f.state = player.Playing
	return nil
}
func (f *fakeTransport) Pause()                      { f.state = player.Paused }
func (f *fakeTransport) Rewind()                     { f.rewinds++; f.pos = 0 }
func (f *fakeTransport) State() player.State         { return f.state }
func (f *fakeTransport) Position() uint64            { return f.pos }
func (f *fakeTransport) Duration() time.Duration     { return 90 * time.Second }
func (f *fakeTransport) TickDuration() time.Duration { return time.Millisecond }

func testFile(notes int) *smf.File {
	tr := &smf.Track{Name: "Piano"}
	for i := 0; i < notes; i++ {
		tr.Notes = append(tr.Notes, smf.Note{Note: uint8(48 + i%24), Velocity: 90, Start: uint64(i * 100), Duration: 100})
	}
	return &smf.File{
		Format:   1,
		Division: smf.Division{TicksPerQuarter: 480},
		Tracks:   []*smf.Track{tr},
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTransportKeys(t *testing.T) {
	tr := &fakeTransport{}
	m := NewModel("song.mid", testFile(4), tr, theme.New(theme.DefaultPalette()))

	m = update(t, m, key(" "))
	if tr.state != player.Playing {
		t.Fatalf("after space state = %v, want PLAY", tr.state)
	}
	m = update(t, m, key(" "))
	if tr.state != player.Paused {
		t.Fatalf("after second space state = %v, want PAUSE", tr.state)
	}
	tr.pos = 250
	m = update(t, m, key("r"))
	if tr.rewinds != 1 || tr.pos != 0 {
		t.Errorf("rewind not forwarded: rewinds=%d pos=%d", tr.rewinds, tr.pos)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestScrollIsClamped(t *testing.T) {
	m := NewModel("song.mid", testFile(noteRows+3), &fakeTransport{}, theme.New(theme.DefaultPalette()))

	m = update(t, m, key("k"))
	if m.scroll != 0 {
		t.Errorf("scroll above top = %d", m.scroll)
	}
	for i := 0; i < 10; i++ {
		m = update(t, m, key("j"))
	}
	if m.scroll != 3 {
		t.Errorf("scroll past bottom = %d, want 3", m.scroll)
	}
	if m.follow {
		t.Error("manual scroll should stop following playback")
	}
}

func TestFollowTracksPosition(t *testing.T) {
	tr := &fakeTransport{}
	m := NewModel("song.mid", testFile(noteRows+10), tr, theme.New(theme.DefaultPalette()))

	tr.pos = 520
	m = update(t, m, tickMsg(time.Now()))
	// note 4 spans 400-500, note 5 spans 500-600
	if m.scroll != 5 {
		t.Errorf("scroll = %d, want 5", m.scroll)
	}
}

func TestView(t *testing.T) {
	tr := &fakeTransport{state: player.Playing, pos: 150}
	m := NewModel("/music/song.mid", testFile(4), tr, theme.New(theme.DefaultPalette()))
	m.PortName = "Synth"

	v := m.View()
	for _, want := range []string{"song.mid", "PLAY", "480 ppqn", "Synth", "Piano", "C#3", FormatDuration(90 * time.Second)} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDivisionString(t *testing.T) {
	if got := DivisionString(smf.Division{SMPTE: true, FramesPerSecond: 25, SubframeResolution: 40}); got != "SMPTE 25 fps x 40" {
		t.Errorf("got %q", got)
	}
}

func TestHelpToggle(t *testing.T) {
	m := NewModel("song.mid", testFile(1), &fakeTransport{}, theme.New(theme.DefaultPalette()))
	if strings.Contains(m.View(), "Transport") {
		t.Fatal("full help shown before ?")
	}
	m = update(t, m, key("?"))
	v := m.View()
	for _, want := range []string{"Transport", "Notes"} {
		if !strings.Contains(v, want) {
			t.Errorf("help view missing %q", want)
		}
	}
}
