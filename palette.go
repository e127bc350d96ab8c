package main

import "fmt"

// MaxPaletteEntries bounds PLTE.
const MaxPaletteEntries = 256

// RGB is one palette entry.
type RGB struct {
	R, G, B uint8
}

// Palette maps an index to a color. Index order is significant.
type Palette []RGB

// Validate checks 1..256 entries.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty palette", ErrInvalidPalette)
	}
	if len(p) > MaxPaletteEntries {
		return fmt.Errorf("%w: %d entries, at most %d allowed", ErrInvalidPalette, len(p), MaxPaletteEntries)
	}
	return nil
}

// Pixel expands entry i to an opaque pixel.
func (p Palette) Pixel(i int) Pixel {
	c := p[i]
	return Pixel{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// indexer builds a lookup table so encoding is not quadratic in the
// palette size. Duplicate colors keep their first index.
func (p Palette) indexer() map[RGB]uint8 {
	idx := make(map[RGB]uint8, len(p))
	for i, c := range p {
		if _, ok := idx[c]; !ok {
			idx[c] = uint8(i)
		}
	}
	return idx
}

func parsePalette(b []byte) (Palette, error) {
	if len(b)%3 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 3", ErrInvalidPalette, len(b))
	}
	n := len(b) / 3
	if n > MaxPaletteEntries {
		return nil, fmt.Errorf("%w: %d entries, at most %d allowed", ErrInvalidPalette, n, MaxPaletteEntries)
	}
	p := make(Palette, n)
	for i := range p {
		p[i] = RGB{R: b[3*i], G: b[3*i+1], B: b[3*i+2]}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p Palette) marshal() []byte {
	b := make([]byte, 0, 3*len(p))
	for _, c := range p {
		b = append(b, c.R, c.G, c.B)
	}
	return b
}
