package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// DecoderOptions controls stream validation.
type DecoderOptions struct {
	// Verify is called for every chunk. Nil means VerifyCRC; pass
	// SkipVerification to accept any stored checksum.
	Verify ChunkVerifier
	// TolerateUnknown skips ancillary chunk types the codec does not
	// interpret instead of rejecting the stream. Unknown critical chunks
	// are always rejected.
	TolerateUnknown bool
	// MaxChunkSize caps a chunk's declared payload length. Zero means
	// DefaultMaxChunkSize.
	MaxChunkSize uint32
	Logger       *zap.Logger
}

// Stream is everything a decode recovers from a file.
type Stream struct {
	Header  Header
	Palette Palette // nil when the stream carries no PLTE
	Image   *Image
}

// Decoder turns chunk streams into images. It holds no per-stream state
// and may be reused.
type Decoder struct {
	opts DecoderOptions
	log  *zap.Logger
}

func NewDecoder(opts DecoderOptions) *Decoder {
	if opts.Verify == nil {
		opts.Verify = VerifyCRC
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{opts: opts, log: log}
}

type decodeState uint8

const (
	expectSignature decodeState = iota
	expectHeader
	streaming
	terminated
)

type dataRun uint8

const (
	dataRunPending dataRun = iota
	dataRunOpen
	dataRunClosed
)

// streamDecoder is the state of a single decode call.
type streamDecoder struct {
	*Decoder
	cr *chunkReader

	state   decodeState
	header  Header
	palette Palette
	run     dataRun
	idat    bytes.Buffer
}

// DecodeStream reads a whole stream from r. It never returns a partially
// decoded image: on error the result is nil.
func (d *Decoder) DecodeStream(r io.Reader) (*Stream, error) {
	s := &streamDecoder{
		Decoder: d,
		cr:      newChunkReader(r, d.opts.MaxChunkSize),
		state:   expectSignature,
	}

	if err := s.cr.readSignature(); err != nil {
		return nil, err
	}
	s.state = expectHeader

	for s.state != terminated {
		c, err := s.cr.readChunk()
		if err == io.EOF {
			return nil, ErrUnterminatedStream
		}
		if err != nil {
			return nil, err
		}
		if err := s.consume(c); err != nil {
			return nil, err
		}
	}

	if err := s.expectEOF(); err != nil {
		return nil, err
	}

	raw, err := inflate(s.idat.Bytes(), int(s.header.Height)*s.header.rowSize())
	s.idat = bytes.Buffer{}
	if err != nil {
		return nil, err
	}

	img, err := decodeScanlines(raw, s.header, s.palette)
	if err != nil {
		return nil, err
	}

	d.log.Debug("decoded image",
		zap.Uint32("width", s.header.Width),
		zap.Uint32("height", s.header.Height),
		zap.Stringer("color_mode", s.header.ColorMode),
		zap.Int("palette_entries", len(s.palette)),
	)
	return &Stream{Header: s.header, Palette: s.palette, Image: img}, nil
}

// consume applies one chunk to the state machine.
func (s *streamDecoder) consume(c *Chunk) error {
	s.log.Debug("chunk",
		zap.Stringer("type", c.Type),
		zap.Uint32("length", c.Length),
		zap.Int64("offset", c.offset),
	)

	// ordering depends on the tag only and is checked before the checksum
	switch {
	case s.state == expectHeader && c.Type != TypeIHDR:
		return chunkErr(c, ErrMissingHeader)
	case s.state != expectHeader && c.Type == TypeIHDR:
		return chunkErr(c, ErrDuplicateChunk)
	case c.Type == TypePLTE && s.palette != nil:
		return chunkErr(c, ErrDuplicateChunk)
	}

	if err := s.opts.Verify(c.Type, c.Data, c.CRC); err != nil {
		return chunkErr(c, err)
	}

	if s.run == dataRunOpen && c.Type != TypeIDAT {
		s.run = dataRunClosed
	}

	tc, err := classify(c)
	if err != nil {
		return err
	}

	switch t := tc.(type) {
	case headerChunk:
		s.header = t.Header
		s.state = streaming
	case paletteChunk:
		s.palette = t.Palette
	case dataChunk:
		if s.run == dataRunClosed {
			return chunkErr(c, ErrNonContiguousData)
		}
		s.run = dataRunOpen
		s.idat.Write(t.chunk.take())
	case endChunk:
		s.state = terminated
	case opaqueChunk:
		if !s.opts.TolerateUnknown || c.Type.IsCritical() {
			return chunkErr(c, ErrUnknownChunk)
		}
		t.chunk.take()
		s.log.Debug("skipped unknown chunk", zap.Stringer("type", c.Type))
	default:
		return chunkErr(c, fmt.Errorf("unhandled chunk kind %T", tc))
	}
	return nil
}

// expectEOF rejects any byte following IEND.
func (s *streamDecoder) expectEOF() error {
	var b [1]byte
	n, err := io.ReadFull(s.cr.r, b[:])
	if n > 0 {
		return fmt.Errorf("%w: data at offset %d", ErrTrailingData, s.cr.offset)
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading after IEND: %w", err)
	}
	return nil
}

// Decode decodes an in-memory stream.
func (d *Decoder) Decode(data []byte) (*Image, error) {
	return d.DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom decodes the stream read from r.
func (d *Decoder) DecodeFrom(r io.Reader) (*Image, error) {
	s, err := d.DecodeStream(r)
	if err != nil {
		return nil, err
	}
	return s.Image, nil
}

var defaultDecoder = NewDecoder(DecoderOptions{})

// Decode decodes data with checksum verification enabled.
func Decode(data []byte) (*Image, error) {
	return defaultDecoder.Decode(data)
}

// DecodeFrom decodes r with checksum verification enabled.
func DecodeFrom(r io.Reader) (*Image, error) {
	return defaultDecoder.DecodeFrom(r)
}

// DecodeFile loads the image stored at path.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return DecodeFrom(f)
}
