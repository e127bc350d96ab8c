package main

import "fmt"

// typedChunk is a chunk resolved to its kind. Exactly one of the concrete
// types below implements it for any given chunk.
type typedChunk interface {
	chunkType() ChunkType
}

type headerChunk struct{ Header Header }

type paletteChunk struct{ Palette Palette }

type dataChunk struct{ chunk *Chunk }

type endChunk struct{}

// opaqueChunk is any type the codec does not interpret.
type opaqueChunk struct{ chunk *Chunk }

func (headerChunk) chunkType() ChunkType { return TypeIHDR }
func (paletteChunk) chunkType() ChunkType { return TypePLTE }
func (dataChunk) chunkType() ChunkType { return TypeIDAT }
func (endChunk) chunkType() ChunkType { return TypeIEND }
func (o opaqueChunk) chunkType() ChunkType { return o.chunk.Type }

// classify resolves c by its tag and checks the kind's shape. Header and
// palette payloads are decoded into values and released from c; data and
// opaque chunks keep their payload for the caller.
func classify(c *Chunk) (typedChunk, error) {
	switch c.Type {
	case TypeIHDR:
		h, err := parseHeader(c.take())
		if err != nil {
			return nil, chunkErr(c, err)
		}
		return headerChunk{Header: h}, nil
	case TypePLTE:
		p, err := parsePalette(c.take())
		if err != nil {
			return nil, chunkErr(c, err)
		}
		return paletteChunk{Palette: p}, nil
	case TypeIDAT:
		return dataChunk{chunk: c}, nil
	case TypeIEND:
		if c.Length != 0 || c.Data != nil {
			return nil, chunkErr(c, fmt.Errorf("%w: %d byte payload", ErrInvalidTerminator, c.Length))
		}
		return endChunk{}, nil
	default:
		return opaqueChunk{chunk: c}, nil
	}
}
