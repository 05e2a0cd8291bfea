package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Play  rune // ▶ transport playing
	Pause rune // ‖ transport paused
	Stop  rune // ■ transport stopped
	Note  rune // ● sounding note
	Rest  rune // · silent
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Play:  '▶',
			Pause: '‖',
			Stop:  '■',
			Note:  '●',
			Rest:  '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.6
	RoleAccent  = 0.5
	RoleActive  = 0.75
	RoleWarning = 0.65
	RoleSuccess = 1.0
)

// Style helpers

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Track returns the color of track i of n
func (t *Theme) Track(i, n int) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Spread(i, n))
}

// TrackRGB is Track as raw RGB (for image rendering)
func (t *Theme) TrackRGB(i, n int) RGB {
	return t.Palette.Spread(i, n)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
