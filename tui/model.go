package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"

	"smfplay/midi"
	"smfplay/player"
	"smfplay/smf"
	"smfplay/theme"
	"smfplay/widgets"
)

// Transport is the part of the player the UI drives
type Transport interface {
	Play() error
	Pause()
	Rewind()
	State() player.State
	Position() uint64
	Duration() time.Duration
	TickDuration() time.Duration
}

var keySections = []widgets.KeySection{
	{
		Title: "Transport",
		Keys: []widgets.KeyBinding{
			{Key: "space", Desc: "play/pause"},
			{Key: "r", Desc: "rewind"},
			{Key: "q", Desc: "quit"},
		},
	},
	{
		Title: "Notes",
		Keys: []widgets.KeyBinding{
			{Key: "j/k", Desc: "scroll"},
			{Key: "f", Desc: "follow playback"},
		},
	},
}

const (
	noteRows    = 16
	refreshRate = time.Second / 20
)

type Model struct {
	Path     string
	File     *smf.File
	Player   Transport
	Ports    *midi.PortWatcher // may be nil
	PortName string            // configured output, "" for none
	Theme    *theme.Theme
	ParseErr error // recovered parse errors, shown under the header
	merged   []smf.MergedNote
	scroll   int
	follow   bool
	help     bool
	status   string
	quitting bool
}

type tickMsg time.Time

type PortEventMsg midi.PortEvent

func NewModel(path string, f *smf.File, p Transport, th *theme.Theme) Model {
	return Model{
		Path:   path,
		File:   f,
		Player: p,
		Theme:  th,
		merged: f.Merged(),
		follow: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.Ports != nil {
		cmds = append(cmds, ListenForPorts(m.Ports))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Player.Pause()
			return m, tea.Quit

		case " ", "p":
			if m.Player.State() == player.Playing {
				m.Player.Pause()
			} else if err := m.Player.Play(); err != nil {
				m.status = err.Error()
			}
			m.follow = true

		case "r":
			m.Player.Rewind()
			m.scroll = 0
			m.follow = true

		case "j", "down":
			m.follow = false
			m.scrollTo(m.scroll + 1)

		case "k", "up":
			m.follow = false
			m.scrollTo(m.scroll - 1)

		case "f":
			m.follow = !m.follow

		case "?":
			m.help = !m.help
		}

	case tickMsg:
		if m.follow {
			m.scrollTo(m.firstAt(m.Player.Position()))
		}
		return m, tick()

	case PortEventMsg:
		ev := midi.PortEvent(msg)
		m.status = fmt.Sprintf("port %s: %s", ev.Type, ev.Name)
		return m, ListenForPorts(m.Ports)
	}

	return m, nil
}

func (m *Model) scrollTo(row int) {
	last := len(m.merged) - noteRows
	if row > last {
		row = last
	}
	if row < 0 {
		row = 0
	}
	m.scroll = row
}

// firstAt returns the index of the first merged note still sounding or
// starting at or after tick
func (m Model) firstAt(tick uint64) int {
	for i, n := range m.merged {
		if n.End() >= tick {
			return i
		}
	}
	return len(m.merged)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	var out strings.Builder
	out.WriteString(headerStyle.Render(m.headerLine()))
	out.WriteString("\n")
	out.WriteString(m.progressLine())
	out.WriteString("\n")
	if m.ParseErr != nil {
		out.WriteString(warnStyle.Render("recovered: " + firstLine(m.ParseErr.Error())))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(m.trackTable())
	out.WriteString("\n\n")
	out.WriteString(m.noteList())
	out.WriteString("\n\n")

	if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	if m.help {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keySections)))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(append(append([]widgets.KeyBinding(nil), keySections[0].Keys...), keySections[1].Keys...)) + "  ?:help"))
	}
	return out.String()
}

func (m Model) headerLine() string {
	sym := m.Theme.Symbols.Stop
	switch m.Player.State() {
	case player.Playing:
		sym = m.Theme.Symbols.Play
	case player.Paused:
		sym = m.Theme.Symbols.Pause
	}

	port := "no output"
	if m.PortName != "" {
		port = m.PortName
		if m.Ports != nil && !m.Ports.Has(m.PortName) {
			port += " (offline)"
		}
	}
	return fmt.Sprintf("smfplay  %s  %c %s  %s  %s",
		filepath.Base(m.Path), sym, m.Player.State(), DivisionString(m.File.Division), port)
}

func (m Model) progressLine() string {
	length := m.File.Length()
	pos := m.Player.Position()
	frac := 0.0
	if length > 0 {
		frac = float64(pos) / float64(length)
	}
	elapsed := time.Duration(pos) * m.Player.TickDuration()
	bar := widgets.RenderProgress(frac, 40, m.Theme.Active(), m.Theme.Muted())
	return fmt.Sprintf("%s  %d/%d ticks  %s / %s", bar, pos, length,
		FormatDuration(elapsed), FormatDuration(m.Player.Duration()))
}

func (m Model) trackTable() string {
	var lines []string
	n := len(m.File.Tracks)
	for i, t := range m.File.Tracks {
		name := t.Name
		if name == "" {
			name = "(unnamed)"
		}
		if t.Instrument != "" {
			name += " / " + t.Instrument
		}
		port := "-"
		if t.HasPort {
			port = fmt.Sprint(t.Port)
		}
		lines = append(lines, fmt.Sprintf("%s %2d  %-32s port %-3s %6d notes",
			widgets.RenderSwatch(m.Theme.Track(i, n)), i, truncate(name, 32), port, len(t.Notes)))
	}
	if n == 0 {
		lines = append(lines, "(no tracks)")
	}
	return strings.Join(lines, "\n")
}

func (m Model) noteList() string {
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active()).Bold(true)
	pos := m.Player.Position()
	playing := m.Player.State() != player.Stopped

	lines := []string{fmt.Sprintf("  %8s  %-3s %-5s %4s %8s", "tick", "trk", "note", "vel", "dur")}
	end := min(m.scroll+noteRows, len(m.merged))
	n := len(m.File.Tracks)
	for i := m.scroll; i < end; i++ {
		note := m.merged[i]
		mark := m.Theme.Symbols.Rest
		sounding := playing && note.Start <= pos && pos < note.End()
		if sounding {
			mark = m.Theme.Symbols.Note
		}
		row := fmt.Sprintf("%c %8d  %s%2d %-5s %4d %8d", mark, note.Start,
			widgets.RenderSwatch(m.Theme.Track(note.Track, n)), note.Track,
			widgets.NoteName(note.Note.Note), note.Velocity, note.Duration)
		if sounding {
			row = activeStyle.Render(row)
		}
		lines = append(lines, row)
	}
	if len(m.merged) == 0 {
		lines = append(lines, "  (no notes)")
	}
	return strings.Join(lines, "\n")
}

// DivisionString describes a file's time division
func DivisionString(d smf.Division) string {
	if d.SMPTE {
		return fmt.Sprintf("SMPTE %d fps x %d", d.FramesPerSecond, d.SubframeResolution)
	}
	return fmt.Sprintf("%d ppqn", d.TicksPerQuarter)
}

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// FormatDuration renders d to the second, two largest units
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0 s"
	}
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).Format(shortUnits)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
