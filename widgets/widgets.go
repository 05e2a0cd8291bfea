package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI note number, middle C (60) being C4
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// RenderSwatch renders a single colored block
func RenderSwatch(color lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(color)
	return style.Render("■")
}

// RenderProgress draws a bar of width cells filled to frac (0-1)
func RenderProgress(frac float64, width int, fill, empty lipgloss.Color) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	n := int(frac * float64(width))
	return lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("━", n)) +
		lipgloss.NewStyle().Foreground(empty).Render(strings.Repeat("─", width-n))
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine formats key bindings on a single line
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
