package main

import (
	"errors"
	"testing"
)

func TestDecodeScanlines_FilterRule(t *testing.T) {
	pal := Palette{{1, 1, 1}, {2, 2, 2}}
	for _, tc := range []struct {
		name string
		h    Header
		raw  []byte
	}{
		{"rgba first row", Header{Width: 1, Height: 2, BitDepth: 8, ColorMode: ColorRGBA}, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"rgba last row", Header{Width: 1, Height: 2, BitDepth: 8, ColorMode: ColorRGBA}, []byte{0, 0, 0, 0, 0, 4, 0, 0, 0, 0}},
		{"palette", Header{Width: 2, Height: 1, BitDepth: 8, ColorMode: ColorPalette}, []byte{2, 0, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeScanlines(tc.raw, tc.h, pal); !errors.Is(err, ErrUnsupportedFilter) {
				t.Fatalf("decodeScanlines error = %v, want ErrUnsupportedFilter", err)
			}
		})
	}
}

func TestDecodeScanlines_Truncated(t *testing.T) {
	h := Header{Width: 2, Height: 2, BitDepth: 8, ColorMode: ColorRGBA}
	raw := make([]byte, 2*9-1)
	if _, err := decodeScanlines(raw, h, nil); !errors.Is(err, ErrTruncatedPixelData) {
		t.Fatalf("decodeScanlines error = %v, want ErrTruncatedPixelData", err)
	}
}

func TestDecodeScanlines_UnsupportedMode(t *testing.T) {
	h := Header{Width: 1, Height: 1, BitDepth: 8, ColorMode: ColorRGB}
	if _, err := decodeScanlines([]byte{0, 1, 2, 3}, h, nil); !errors.Is(err, ErrUnsupportedColorMode) {
		t.Fatalf("decodeScanlines error = %v, want ErrUnsupportedColorMode", err)
	}
}

func TestDecodeScanlines_PaletteBounds(t *testing.T) {
	h := Header{Width: 3, Height: 1, BitDepth: 8, ColorMode: ColorPalette}
	pal := Palette{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}

	img, err := decodeScanlines([]byte{0, 2, 1, 0}, h, pal)
	if err != nil {
		t.Fatalf("decodeScanlines: %v", err)
	}
	if img.Pix[0] != (Pixel{7, 8, 9, 255}) || img.Pix[2] != (Pixel{1, 2, 3, 255}) {
		t.Fatalf("pixels = %v", img.Pix)
	}

	if _, err := decodeScanlines([]byte{0, 2, 3, 0}, h, pal); !errors.Is(err, ErrPaletteIndexOutOfRange) {
		t.Fatalf("decodeScanlines error = %v, want ErrPaletteIndexOutOfRange", err)
	}
	if _, err := decodeScanlines([]byte{0, 255, 0, 0}, h, pal); !errors.Is(err, ErrPaletteIndexOutOfRange) {
		t.Fatalf("decodeScanlines error = %v, want ErrPaletteIndexOutOfRange", err)
	}
}

func TestEncodeScanlines(t *testing.T) {
	img, err := NewImage(2, 2)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	img.Pix = []Pixel{{1, 2, 3, 4}, {5, 6, 7, 8}, {1, 2, 3, 0}, {9, 9, 9, 9}}

	raw, mode, err := encodeScanlines(img, nil)
	if err != nil {
		t.Fatalf("encodeScanlines: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 0, 1, 2, 3, 0, 9, 9, 9, 9}
	if mode != ColorRGBA || string(raw) != string(want) {
		t.Fatalf("encodeScanlines = %v % x", mode, raw)
	}

	pal := Palette{{9, 9, 9}, {1, 2, 3}, {5, 6, 7}, {1, 2, 3}}
	raw, mode, err = encodeScanlines(img, pal)
	if err != nil {
		t.Fatalf("encodeScanlines: %v", err)
	}
	// alpha is ignored and duplicates resolve to the first entry
	want = []byte{0, 1, 2, 0, 1, 0}
	if mode != ColorPalette || string(raw) != string(want) {
		t.Fatalf("encodeScanlines = %v % x", mode, raw)
	}

	_, _, err = encodeScanlines(img, Palette{{9, 9, 9}, {1, 2, 3}})
	if !errors.Is(err, ErrColorNotInPalette) {
		t.Fatalf("encodeScanlines error = %v, want ErrColorNotInPalette", err)
	}
}
