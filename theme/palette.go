package theme

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed palettes/plasma.gpl
var plasmaGPL string

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// DefaultPalette returns the built-in plasma palette
func DefaultPalette() *Palette {
	p, err := ParseGPL(strings.NewReader(plasmaGPL))
	if err != nil {
		panic(fmt.Sprintf("built-in palette: %v", err))
	}
	return p
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads GIMP palette text. Color lines are "R G B [name]".
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case lineNo == 1:
			if line != "GIMP Palette" {
				return nil, errors.New("not a GIMP palette")
			}
		case line == "", line[0] == '#', strings.HasPrefix(line, "Columns:"):
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		default:
			c, err := parseRGB(strings.Fields(line))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.Colors = append(p.Colors, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, errors.New("no colors found")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return c, fmt.Errorf("bad component %q", fields[i])
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	// Find the two colors to interpolate between
	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := p.Colors[i]
	c1 := p.Colors[i+1]

	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Spread returns the color for item i of n, spread across the palette
func (p *Palette) Spread(i, n int) RGB {
	if n <= 1 {
		return p.Lookup(0.5)
	}
	return p.Lookup(float64(i) / float64(n-1))
}

// Hex formats a color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
