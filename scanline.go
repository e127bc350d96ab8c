package main

import "fmt"

const filterNone = 0

// decodeScanlines rebuilds an image from unfiltered scanlines. Each row is
// one filter byte followed by Width pixels in the header's color mode.
func decodeScanlines(raw []byte, h Header, pal Palette) (*Image, error) {
	bpp := h.ColorMode.bytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedColorMode, h.ColorMode)
	}
	if h.ColorMode == ColorPalette && len(pal) == 0 {
		return nil, ErrMissingPalette
	}

	width, height := int(h.Width), int(h.Height)
	stride := h.rowSize()
	if need := height * stride; len(raw) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedPixelData, len(raw), need)
	}

	img, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}

	for y := 0; y < height; y++ {
		row := raw[y*stride : (y+1)*stride]
		if row[0] != filterNone {
			return nil, fmt.Errorf("%w: filter type %d on row %d", ErrUnsupportedFilter, row[0], y)
		}
		px := img.Pix[y*width : (y+1)*width]
		row = row[1:]

		switch h.ColorMode {
		case ColorPalette:
			for x, idx := range row {
				if int(idx) >= len(pal) {
					return nil, fmt.Errorf("%w: index %d at (%d,%d), palette has %d entries",
						ErrPaletteIndexOutOfRange, idx, x, y, len(pal))
				}
				px[x] = pal.Pixel(int(idx))
			}
		case ColorRGBA:
			for x := range px {
				s := row[4*x : 4*x+4 : 4*x+4]
				px[x] = Pixel{R: s[0], G: s[1], B: s[2], A: s[3]}
			}
		}
	}
	return img, nil
}

// encodeScanlines lays img out as unfiltered scanlines. A non-empty
// palette selects palette mode, otherwise RGBA.
func encodeScanlines(img *Image, pal Palette) ([]byte, ColorMode, error) {
	mode := ColorRGBA
	if len(pal) > 0 {
		mode = ColorPalette
	}
	width, height := img.Width(), img.Height()
	stride := 1 + width*mode.bytesPerPixel()
	raw := make([]byte, height*stride)

	var lookup map[RGB]uint8
	if mode == ColorPalette {
		lookup = pal.indexer()
	}

	for y := 0; y < height; y++ {
		row := raw[y*stride : (y+1)*stride]
		row[0] = filterNone
		row = row[1:]
		px := img.Pix[y*width : (y+1)*width]

		switch mode {
		case ColorPalette:
			for x, p := range px {
				idx, ok := lookup[RGB{R: p.R, G: p.G, B: p.B}]
				if !ok {
					return nil, mode, fmt.Errorf("%w: (%d,%d,%d) at (%d,%d)",
						ErrColorNotInPalette, p.R, p.G, p.B, x, y)
				}
				row[x] = idx
			}
		case ColorRGBA:
			for x, p := range px {
				row[4*x] = p.R
				row[4*x+1] = p.G
				row[4*x+2] = p.B
				row[4*x+3] = p.A
			}
		}
	}
	return raw, mode, nil
}
