package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// signature opens every stream.
var signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	chunkHeaderSize  = 8 // length + type
	chunkTrailerSize = 4 // checksum

	// DefaultMaxChunkSize is the largest payload length a chunk may declare.
	DefaultMaxChunkSize = 1<<31 - 1

	// payloads are grown as they arrive, so a lying length field on a short
	// input cannot force a huge up-front allocation.
	payloadPrealloc = 64 << 10
)

// ChunkType is the 4-byte tag of a chunk.
type ChunkType [4]byte

var (
	TypeIHDR = ChunkType{'I', 'H', 'D', 'R'}
	TypePLTE = ChunkType{'P', 'L', 'T', 'E'}
	TypeIDAT = ChunkType{'I', 'D', 'A', 'T'}
	TypeIEND = ChunkType{'I', 'E', 'N', 'D'}
)

func (t ChunkType) String() string { return string(t[:]) }

// IsCritical reports whether the type has the critical bit set (uppercase first letter).
func (t ChunkType) IsCritical() bool { return t[0]&0x20 == 0 }

// Chunk is one length|type|payload|checksum record. Data is owned by the
// chunk until take hands it to a consumer.
type Chunk struct {
	Length uint32
	Type   ChunkType
	Data   []byte
	CRC    uint32

	offset int64
}

// take transfers ownership of the payload to the caller. The chunk no
// longer references it afterwards, so a second take yields nil.
func (c *Chunk) take() []byte {
	d := c.Data
	c.Data = nil
	return d
}

// fromFileOrder decodes a big-endian 32-bit field regardless of host order.
func fromFileOrder(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// toFileOrder encodes v as a big-endian 32-bit field.
func toFileOrder(v uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b
}

// ChecksumFunc folds p into a running 32-bit checksum started at seed.
type ChecksumFunc func(seed uint32, p []byte) uint32

// CRC32 is the IEEE CRC-32 used by the format.
func CRC32(seed uint32, p []byte) uint32 {
	return crc32.Update(seed, crc32.IEEETable, p)
}

// chunkChecksum covers the type tag followed by the payload.
func chunkChecksum(sum ChecksumFunc, t ChunkType, data []byte) uint32 {
	return sum(sum(0, t[:]), data)
}

// ChunkVerifier is called once per chunk read from a stream with the
// chunk's tag, payload and stored checksum.
type ChunkVerifier func(t ChunkType, data []byte, stored uint32) error

// VerifyWith returns a verifier that recomputes the checksum with sum.
func VerifyWith(sum ChecksumFunc) ChunkVerifier {
	return func(t ChunkType, data []byte, stored uint32) error {
		if got := chunkChecksum(sum, t, data); got != stored {
			return fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, stored, got)
		}
		return nil
	}
}

// VerifyCRC checks chunks against CRC32.
var VerifyCRC = VerifyWith(CRC32)

// SkipVerification accepts every chunk.
func SkipVerification(ChunkType, []byte, uint32) error { return nil }

// chunkReader pulls chunks off a byte source.
type chunkReader struct {
	r       io.Reader
	offset  int64
	maxSize uint32
}

func newChunkReader(r io.Reader, maxSize uint32) *chunkReader {
	if maxSize == 0 {
		maxSize = DefaultMaxChunkSize
	}
	return &chunkReader{r: r, maxSize: maxSize}
}

// readErr turns short reads into ErrTruncatedInput and keeps other I/O
// errors intact.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedInput, what)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

// readSignature consumes the 8 signature bytes and checks them.
func (cr *chunkReader) readSignature() error {
	var sig [8]byte
	if _, err := io.ReadFull(cr.r, sig[:]); err != nil {
		return readErr("signature", err)
	}
	cr.offset += int64(len(sig))
	if sig != signature {
		return ErrInvalidSignature
	}
	return nil
}

// readChunk returns io.EOF only when the stream ends cleanly on a chunk
// boundary.
func (cr *chunkReader) readChunk() (*Chunk, error) {
	var hdr [chunkHeaderSize]byte
	n, err := io.ReadFull(cr.r, hdr[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return nil, io.EOF
		}
		return nil, readErr("chunk header", err)
	}

	c := &Chunk{
		Length: fromFileOrder(hdr[0:4]),
		offset: cr.offset,
	}
	copy(c.Type[:], hdr[4:8])

	if c.Length > cr.maxSize {
		return nil, chunkErr(c, fmt.Errorf("%w: length %d exceeds %d", ErrAllocation, c.Length, cr.maxSize))
	}

	if c.Length > 0 {
		buf := bytes.NewBuffer(make([]byte, 0, min(int(c.Length), payloadPrealloc)))
		if _, err := io.CopyN(buf, cr.r, int64(c.Length)); err != nil {
			return nil, chunkErr(c, readErr("chunk payload", err))
		}
		c.Data = buf.Bytes()
	}

	var trailer [chunkTrailerSize]byte
	if _, err := io.ReadFull(cr.r, trailer[:]); err != nil {
		return nil, chunkErr(c, readErr("chunk checksum", err))
	}
	c.CRC = fromFileOrder(trailer[:])

	cr.offset += chunkHeaderSize + int64(c.Length) + chunkTrailerSize
	return c, nil
}

// chunkWriter serializes chunks, computing length and checksum.
type chunkWriter struct {
	w   *bufio.Writer
	sum ChecksumFunc
}

func newChunkWriter(w io.Writer, sum ChecksumFunc) *chunkWriter {
	if sum == nil {
		sum = CRC32
	}
	return &chunkWriter{w: bufio.NewWriter(w), sum: sum}
}

func (cw *chunkWriter) writeSignature() error {
	_, err := cw.w.Write(signature[:])
	return err
}

func (cw *chunkWriter) writeU32(v uint32) error {
	b := toFileOrder(v)
	_, err := cw.w.Write(b[:])
	return err
}

func (cw *chunkWriter) writeChunk(t ChunkType, data []byte) error {
	if uint64(len(data)) > DefaultMaxChunkSize {
		return fmt.Errorf("%w: %s payload of %d bytes", ErrAllocation, t, len(data))
	}
	if err := cw.writeU32(uint32(len(data))); err != nil {
		return err
	}
	if _, err := cw.w.Write(t[:]); err != nil {
		return err
	}
	if _, err := cw.w.Write(data); err != nil {
		return err
	}
	return cw.writeU32(chunkChecksum(cw.sum, t, data))
}

func (cw *chunkWriter) flush() error {
	return cw.w.Flush()
}
