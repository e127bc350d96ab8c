package main

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// zlib levels accepted by the encoder: -2 (Huffman only) through 9.
const (
	minCompressionLevel = -2
	maxCompressionLevel = 9

	// DefaultCompressionLevel favors speed; pixel data is rarely worth more.
	DefaultCompressionLevel = zlib.BestSpeed
)

var zlibReaderPool sync.Pool

// one writer pool per level, indexed by level-minCompressionLevel.
var zlibWriterPools [maxCompressionLevel - minCompressionLevel + 1]sync.Pool

func validCompressionLevel(level int) bool {
	return level >= minCompressionLevel && level <= maxCompressionLevel
}

func getZlibReader(src io.Reader) (io.ReadCloser, error) {
	if v := zlibReaderPool.Get(); v != nil {
		zr := v.(io.ReadCloser)
		if err := zr.(zlib.Resetter).Reset(src, nil); err != nil {
			return nil, err
		}
		return zr, nil
	}
	return zlib.NewReader(src)
}

func getZlibWriter(dst io.Writer, level int) (*zlib.Writer, error) {
	if !validCompressionLevel(level) {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}
	if v := zlibWriterPools[level-minCompressionLevel].Get(); v != nil {
		zw := v.(*zlib.Writer)
		zw.Reset(dst)
		return zw, nil
	}
	return zlib.NewWriterLevel(dst, level)
}

func putZlibWriter(zw *zlib.Writer, level int) {
	zlibWriterPools[level-minCompressionLevel].Put(zw)
}

// inflate decompresses a zlib stream, keeping at most limit bytes. Output
// past limit is read through to the end of the stream, so the trailer is
// still verified, but never buffered. Every engine failure maps to
// ErrDecompression.
func inflate(data []byte, limit int) ([]byte, error) {
	zr, err := getZlibReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer zlibReaderPool.Put(zr)

	var out bytes.Buffer
	out.Grow(min(limit, payloadPrealloc))
	if _, err := out.ReadFrom(io.LimitReader(zr, int64(limit))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out.Bytes(), nil
}

// deflate compresses raw as a zlib stream at the given level.
func deflate(raw []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := getZlibWriter(&out, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	putZlibWriter(zw, level)
	return out.Bytes(), nil
}
