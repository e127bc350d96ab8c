package main

import "fmt"

// ColorMode is the IHDR color type.
type ColorMode uint8

const (
	ColorGrayscale      ColorMode = 0
	ColorRGB            ColorMode = 2
	ColorPalette        ColorMode = 3
	ColorGrayscaleAlpha ColorMode = 4
	ColorRGBA           ColorMode = 6
)

func (m ColorMode) String() string {
	switch m {
	case ColorGrayscale:
		return "grayscale"
	case ColorRGB:
		return "rgb"
	case ColorPalette:
		return "palette"
	case ColorGrayscaleAlpha:
		return "grayscale+alpha"
	case ColorRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint8(m))
	}
}

// bytesPerPixel is the scanline width of one pixel in a supported mode.
func (m ColorMode) bytesPerPixel() int {
	switch m {
	case ColorPalette:
		return 1
	case ColorRGBA:
		return 4
	}
	return 0
}

const (
	headerSize = 13

	supportedBitDepth = 8

	compressionDeflate = 0
	filterMethodBase   = 0
	interlaceNone      = 0
	interlaceAdam7     = 1
)

// Header is the metadata record carried by IHDR.
type Header struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorMode   ColorMode
	Compression uint8
	Filter      uint8
	Interlace   uint8
}

// newHeader describes img in the given mode.
func newHeader(img *Image, mode ColorMode) Header {
	return Header{
		Width:     uint32(img.width),
		Height:    uint32(img.height),
		BitDepth:  supportedBitDepth,
		ColorMode: mode,
	}
}

// Validate accepts only 8-bit palette or RGBA images with the default
// compression and filter methods and no interlacing.
func (h Header) Validate() error {
	switch h.ColorMode {
	case ColorPalette, ColorRGBA:
	default:
		return fmt.Errorf("%w: color mode %v", ErrInvalidHeader, h.ColorMode)
	}
	if h.BitDepth != supportedBitDepth {
		return fmt.Errorf("%w: bit depth %d for %v", ErrInvalidHeader, h.BitDepth, h.ColorMode)
	}
	if h.Compression != compressionDeflate {
		return fmt.Errorf("%w: compression method %d", ErrInvalidHeader, h.Compression)
	}
	if h.Filter != filterMethodBase {
		return fmt.Errorf("%w: filter method %d", ErrInvalidHeader, h.Filter)
	}
	switch h.Interlace {
	case interlaceNone:
	case interlaceAdam7:
		return fmt.Errorf("%w: interlaced images are not supported", ErrInvalidHeader)
	default:
		return fmt.Errorf("%w: interlace method %d", ErrInvalidHeader, h.Interlace)
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrInvalidHeader, h.Width, h.Height)
	}
	if h.Width > maxDimension || h.Height > maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidHeader, h.Width, h.Height, maxDimension)
	}
	return nil
}

// rowSize is one scanline including its filter byte.
func (h Header) rowSize() int {
	return 1 + int(h.Width)*h.ColorMode.bytesPerPixel()
}

func parseHeader(b []byte) (Header, error) {
	if len(b) != headerSize {
		return Header{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidHeader, len(b), headerSize)
	}
	h := Header{
		Width:       fromFileOrder(b[0:4]),
		Height:      fromFileOrder(b[4:8]),
		BitDepth:    b[8],
		ColorMode:   ColorMode(b[9]),
		Compression: b[10],
		Filter:      b[11],
		Interlace:   b[12],
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h Header) marshal() []byte {
	b := make([]byte, headerSize)
	w := toFileOrder(h.Width)
	copy(b[0:4], w[:])
	ht := toFileOrder(h.Height)
	copy(b[4:8], ht[:])
	b[8] = h.BitDepth
	b[9] = byte(h.ColorMode)
	b[10] = h.Compression
	b[11] = h.Filter
	b[12] = h.Interlace
	return b
}
