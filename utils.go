package main

import (
	"fmt"
	"image"
	"image/color"
)

// FromImage copies any image.Image into an Image with bounds starting at
// (0,0). Colors are converted to non-premultiplied RGBA; an *image.NRGBA
// source is copied without a round trip through premultiplied alpha.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	img, err := NewImage(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			row := n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < b.Dx(); x++ {
				s := row[4*x : 4*x+4 : 4*x+4]
				img.Pix[y*b.Dx()+x] = Pixel{R: s[0], G: s[1], B: s[2], A: s[3]}
			}
		}
		return img, nil
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			img.Pix[y*b.Dx()+x] = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return img, nil
}

// PaletteOf collects the distinct colors of img in first-seen order.
// Alpha is ignored, matching how palette images are stored. It fails if
// the image has more than MaxPaletteEntries colors.
func PaletteOf(img *Image) (Palette, error) {
	seen := make(map[RGB]struct{})
	var pal Palette
	for _, p := range img.Pix {
		c := RGB{R: p.R, G: p.G, B: p.B}
		if _, ok := seen[c]; ok {
			continue
		}
		if len(pal) == MaxPaletteEntries {
			return nil, fmt.Errorf("%w: image has more than %d colors", ErrInvalidPalette, MaxPaletteEntries)
		}
		seen[c] = struct{}{}
		pal = append(pal, c)
	}
	return pal, nil
}
