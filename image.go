package main

import (
	"fmt"
	"image"
	"image/color"
)

const maxDimension = 1<<16 - 1

// Pixel is a non-premultiplied RGBA sample.
type Pixel struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}.RGBA()
}

// Image is a row-major pixel buffer. Its dimensions are fixed at
// construction.
type Image struct {
	width, height uint16
	Pix           []Pixel
}

// NewImage allocates a transparent black w×h image.
func NewImage(w, h int) (*Image, error) {
	if w <= 0 || h <= 0 || w > maxDimension || h > maxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, w, h)
	}
	return &Image{
		width:  uint16(w),
		height: uint16(h),
		Pix:    make([]Pixel, w*h),
	}, nil
}

func (m *Image) Width() int  { return int(m.width) }
func (m *Image) Height() int { return int(m.height) }

// PixelAt returns the pixel at (x, y); out-of-range coordinates yield the
// zero Pixel.
func (m *Image) PixelAt(x, y int) Pixel {
	if !m.inBounds(x, y) {
		return Pixel{}
	}
	return m.Pix[y*int(m.width)+x]
}

func (m *Image) SetPixel(x, y int, p Pixel) {
	if !m.inBounds(x, y) {
		return
	}
	m.Pix[y*int(m.width)+x] = p
}

func (m *Image) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < int(m.width) && y < int(m.height)
}

// check reports whether the pixel buffer matches the dimensions.
func (m *Image) check() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if m.width == 0 || m.height == 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, m.width, m.height)
	}
	if len(m.Pix) != int(m.width)*int(m.height) {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidImage, len(m.Pix), m.width, m.height)
	}
	return nil
}

// Equal reports whether both images have identical dimensions and pixels.
func (m *Image) Equal(o *Image) bool {
	if m.width != o.width || m.height != o.height || len(m.Pix) != len(o.Pix) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(m.width), int(m.height))
}

func (m *Image) At(x, y int) color.Color {
	p := m.PixelAt(x, y)
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}
}
