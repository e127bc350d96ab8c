package main

import (
	"errors"
	"fmt"
)

// Format, compression and resource errors. Every failure returned by the
// codec wraps exactly one of these, so callers can match with errors.Is.
var (
	ErrTruncatedInput         = errors.New("y0l0: truncated input")
	ErrAllocation             = errors.New("y0l0: allocation limit exceeded")
	ErrInvalidSignature       = errors.New("y0l0: invalid file signature")
	ErrMissingHeader          = errors.New("y0l0: first chunk is not IHDR")
	ErrInvalidHeader          = errors.New("y0l0: invalid IHDR")
	ErrInvalidPalette         = errors.New("y0l0: invalid PLTE")
	ErrInvalidTerminator      = errors.New("y0l0: invalid IEND")
	ErrDuplicateChunk         = errors.New("y0l0: duplicate chunk")
	ErrTrailingData           = errors.New("y0l0: chunk after IEND")
	ErrNonContiguousData      = errors.New("y0l0: IDAT chunks are not contiguous")
	ErrUnterminatedStream     = errors.New("y0l0: missing IEND")
	ErrUnknownChunk           = errors.New("y0l0: unknown chunk type")
	ErrChecksumMismatch       = errors.New("y0l0: chunk checksum mismatch")
	ErrMissingPalette         = errors.New("y0l0: palette image without PLTE")
	ErrDecompression          = errors.New("y0l0: decompression failed")
	ErrCompression            = errors.New("y0l0: compression failed")
	ErrUnsupportedColorMode   = errors.New("y0l0: unsupported color mode")
	ErrUnsupportedFilter      = errors.New("y0l0: unsupported scanline filter")
	ErrPaletteIndexOutOfRange = errors.New("y0l0: palette index out of range")
	ErrTruncatedPixelData     = errors.New("y0l0: not enough pixel data")
	ErrColorNotInPalette      = errors.New("y0l0: color not in palette")
	ErrInvalidImage           = errors.New("y0l0: invalid image")
)

// ChunkError reports a failure tied to one chunk of the stream.
type ChunkError struct {
	Type   ChunkType
	Offset int64 // stream offset of the chunk's length field
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%v (chunk %s at offset %d)", e.Err, e.Type, e.Offset)
}

func (e *ChunkError) Unwrap() error { return e.Err }

func chunkErr(c *Chunk, err error) error {
	return &ChunkError{Type: c.Type, Offset: c.offset, Err: err}
}
