package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"smfplay/smf"
	"smfplay/theme"
)

type Options struct {
	Width  int // default 1600
	Height int // default 600
	Labels bool
}

const (
	leftMargin   = 36.0
	bottomMargin = 4.0
)

// layout maps ticks and pitches onto the canvas
type layout struct {
	w, h      float64
	low, high int
	scale     float64 // pixels per tick
	rowH      float64
}

func newLayout(notes []smf.MergedNote, length uint64, w, h int) layout {
	low, high := 60, 71
	if len(notes) > 0 {
		low, high = 127, 0
		for _, n := range notes {
			low = min(low, int(n.Note.Note))
			high = max(high, int(n.Note.Note))
			length = max(length, n.End())
		}
	}
	// whole octaves, C to B
	low -= low % 12
	high += 11 - high%12

	l := layout{w: float64(w), h: float64(h), low: low, high: high}
	if length == 0 {
		length = 1
	}
	l.scale = (l.w - leftMargin) / float64(length)
	l.rowH = (l.h - bottomMargin) / float64(high-low+1)
	return l
}

func (l layout) rect(n smf.Note) (x, y, w, h float64) {
	x = leftMargin + float64(n.Start)*l.scale
	w = max(float64(n.Duration)*l.scale, 1)
	y = float64(l.high-int(n.Note)) * l.rowH
	return x, y, w, l.rowH
}

func (l layout) rowY(pitch int) float64 {
	return float64(l.high-pitch) * l.rowH
}

// PianoRoll draws every note of f as a bar coloured by its track
func PianoRoll(f *smf.File, th *theme.Theme, opts Options) (image.Image, error) {
	if opts.Width <= 0 {
		opts.Width = 1600
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}

	notes := f.Merged()
	l := newLayout(notes, f.Length(), opts.Width, opts.Height)
	dc := gg.NewContext(opts.Width, opts.Height)

	dc.SetRGB(0.17, 0.17, 0.17)
	dc.DrawRectangle(0, 0, l.w, l.h)
	dc.Fill()

	drawOctaves(dc, l)
	if opts.Labels {
		if err := drawLabels(dc, l); err != nil {
			return nil, err
		}
	}

	n := len(f.Tracks)
	for _, note := range notes {
		x, y, w, h := l.rect(note.Note)
		c := th.TrackRGB(note.Track, n)
		dc.DrawRectangle(x, y, w, h)
		dc.SetRGB255(int(c[0]), int(c[1]), int(c[2]))
		dc.Fill()
	}
	return dc.Image(), nil
}

func drawOctaves(dc *gg.Context, l layout) {
	dc.SetLineWidth(0.5)
	for p := l.low; p <= l.high; p += 12 {
		y := l.rowY(p) + l.rowH
		dc.SetRGBA(1, 1, 1, 0.3)
		dc.DrawLine(leftMargin, y, l.w, y)
		dc.Stroke()
	}
}

func drawLabels(dc *gg.Context, l layout) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	size := min(l.rowH*1.5, 14)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: size}))
	dc.SetRGBA(1, 1, 1, 0.8)
	for p := l.low; p <= l.high; p += 12 {
		dc.DrawStringAnchored(fmt.Sprintf("C%d", p/12-1), 4, l.rowY(p)+l.rowH, 0, 0)
	}
	return nil
}

func SavePNG(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
