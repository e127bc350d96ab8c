package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EncoderOptions controls how images are written.
type EncoderOptions struct {
	// Checksum computes chunk checksums. Nil means CRC32.
	Checksum ChecksumFunc
	// Level is the zlib compression level, -2 through 9. As in zlib, zero
	// stores the data uncompressed, so a zero EncoderOptions does not
	// compress; DefaultEncoderOptions selects DefaultCompressionLevel.
	Level int
	// MaxDataChunkSize splits the compressed pixel data into IDAT chunks of
	// at most this many bytes. Zero writes a single IDAT.
	MaxDataChunkSize int
	Logger           *zap.Logger
}

// DefaultEncoderOptions is what the package-level helpers use.
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{Level: DefaultCompressionLevel}
}

// Encoder writes images as chunk streams.
type Encoder struct {
	opts EncoderOptions
	log  *zap.Logger
}

func NewEncoder(opts EncoderOptions) *Encoder {
	if opts.Checksum == nil {
		opts.Checksum = CRC32
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{opts: opts, log: log}
}

// EncodeTo writes img to w. A non-empty palette selects palette mode and
// every pixel's color must then appear in it; alpha is not stored.
// Without a palette the image is written as RGBA.
func (e *Encoder) EncodeTo(w io.Writer, img *Image, pal Palette) error {
	if err := img.check(); err != nil {
		return err
	}
	if len(pal) > 0 {
		if err := pal.Validate(); err != nil {
			return err
		}
	}
	if !validCompressionLevel(e.opts.Level) {
		return fmt.Errorf("%w: invalid compression level %d", ErrCompression, e.opts.Level)
	}

	raw, mode, err := encodeScanlines(img, pal)
	if err != nil {
		return err
	}
	compressed, err := deflate(raw, e.opts.Level)
	if err != nil {
		return err
	}

	cw := newChunkWriter(w, e.opts.Checksum)
	if err := cw.writeSignature(); err != nil {
		return fmt.Errorf("writing signature: %w", err)
	}
	if err := e.writeChunk(cw, TypeIHDR, newHeader(img, mode).marshal()); err != nil {
		return err
	}
	if mode == ColorPalette {
		if err := e.writeChunk(cw, TypePLTE, pal.marshal()); err != nil {
			return err
		}
	}
	for _, part := range splitData(compressed, e.opts.MaxDataChunkSize) {
		if err := e.writeChunk(cw, TypeIDAT, part); err != nil {
			return err
		}
	}
	if err := e.writeChunk(cw, TypeIEND, nil); err != nil {
		return err
	}
	if err := cw.flush(); err != nil {
		return fmt.Errorf("flushing stream: %w", err)
	}

	e.log.Debug("encoded image",
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
		zap.Stringer("color_mode", mode),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("compressed_bytes", len(compressed)),
	)
	return nil
}

func (e *Encoder) writeChunk(cw *chunkWriter, t ChunkType, data []byte) error {
	if err := cw.writeChunk(t, data); err != nil {
		return fmt.Errorf("writing %s chunk: %w", t, err)
	}
	e.log.Debug("chunk written", zap.Stringer("type", t), zap.Int("length", len(data)))
	return nil
}

// Encode returns the encoded stream.
func (e *Encoder) Encode(img *Image, pal Palette) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.EncodeTo(&buf, img, pal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitData cuts data into parts of at most size bytes. The parts alias
// data. A non-positive size, or empty data, yields a single part.
func splitData(data []byte, size int) [][]byte {
	if size <= 0 || len(data) <= size {
		return [][]byte{data}
	}
	parts := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > 0 {
		n := min(size, len(data))
		parts = append(parts, data[:n:n])
		data = data[n:]
	}
	return parts
}

var defaultEncoder = NewEncoder(DefaultEncoderOptions())

// Encode encodes img with default options.
func Encode(img *Image, pal Palette) ([]byte, error) {
	return defaultEncoder.Encode(img, pal)
}

// EncodeTo writes img to w with default options.
func EncodeTo(w io.Writer, img *Image, pal Palette) error {
	return defaultEncoder.EncodeTo(w, img, pal)
}

// EncodeFile writes img to path with the default encoder.
func EncodeFile(path string, img *Image, pal Palette) error {
	return defaultEncoder.EncodeFile(path, img, pal)
}

// EncodeFile encodes into a uniquely named sibling of path and renames it
// into place, so path never holds a partial stream.
func (e *Encoder) EncodeFile(path string, img *Image, pal Palette) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := e.EncodeTo(f, img, pal); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
