package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chunkTypes lists the chunk types of an encoded stream in wire order.
func chunkTypes(t *testing.T, stream []byte) []string {
	t.Helper()
	if !bytes.HasPrefix(stream, signature[:]) {
		t.Fatalf("stream does not start with the signature")
	}
	cr := newChunkReader(bytes.NewReader(stream[len(signature):]), 0)
	var types []string
	for {
		c, err := cr.readChunk()
		if err == io.EOF {
			return types
		}
		if err != nil {
			t.Fatalf("readChunk: %v", err)
		}
		if err := VerifyCRC(c.Type, c.Data, c.CRC); err != nil {
			t.Fatalf("chunk %s: %v", c.Type, err)
		}
		types = append(types, c.Type.String())
	}
}

func TestEncoder_ChunkOrder(t *testing.T) {
	img := makeTestImage(t, 4, 4)
	pal, err := PaletteOf(img)
	if err != nil {
		t.Fatalf("PaletteOf: %v", err)
	}

	for _, tc := range []struct {
		name string
		pal  Palette
		want string
	}{
		{"rgba", nil, "IHDR IDAT IEND"},
		{"palette", pal, "IHDR PLTE IDAT IEND"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := Encode(img, tc.pal)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := strings.Join(chunkTypes(t, enc), " "); got != tc.want {
				t.Fatalf("chunks = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncoder_SplitsDataChunks(t *testing.T) {
	img := makeTestImage(t, 40, 40)
	e := NewEncoder(EncoderOptions{Level: 0, MaxDataChunkSize: 100})

	enc, err := e.Encode(img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	types := chunkTypes(t, enc)
	idats := 0
	for _, typ := range types {
		if typ == "IDAT" {
			idats++
		}
	}
	// 40 rows of 161 bytes stored uncompressed cannot fit in one 100-byte chunk
	if idats < 2 {
		t.Fatalf("got %d IDAT chunks in %v", idats, types)
	}

	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !dec.Equal(img) {
		t.Fatalf("decoded pixels differ from source")
	}
}

func TestEncoder_CompressionLevels(t *testing.T) {
	img := makeTestImage(t, 16, 16)
	for level := minCompressionLevel; level <= maxCompressionLevel; level++ {
		enc, err := NewEncoder(EncoderOptions{Level: level}).Encode(img, nil)
		if err != nil {
			t.Fatalf("level %d: Encode: %v", level, err)
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("level %d: Decode: %v", level, err)
		}
		if !dec.Equal(img) {
			t.Fatalf("level %d: decoded pixels differ", level)
		}
	}

	if _, err := NewEncoder(EncoderOptions{Level: 42}).Encode(img, nil); !errors.Is(err, ErrCompression) {
		t.Fatalf("Encode error = %v, want ErrCompression", err)
	}
}

func TestEncoder_Rejects(t *testing.T) {
	img := makeTestImage(t, 2, 2)
	broken := makeTestImage(t, 2, 2)
	broken.Pix = broken.Pix[:3]

	tests := []struct {
		name    string
		img     *Image
		pal     Palette
		wantErr error
	}{
		{"nil image", nil, nil, ErrInvalidImage},
		{"zero image", &Image{}, nil, ErrInvalidImage},
		{"short pixel buffer", broken, nil, ErrInvalidImage},
		{"oversized palette", img, make(Palette, 257), ErrInvalidPalette},
		{"color not in palette", img, Palette{{0, 0, 0}}, ErrColorNotInPalette},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeTo(&buf, tt.img, tt.pal)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("EncodeTo error = %v, want %v", err, tt.wantErr)
			}
			if buf.Len() != 0 {
				t.Fatalf("EncodeTo wrote %d bytes before failing", buf.Len())
			}
		})
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestEncoder_WriteErrorPropagates(t *testing.T) {
	ioErr := errors.New("disk full")
	err := EncodeTo(failingWriter{err: ioErr}, makeTestImage(t, 2, 2), nil)
	if !errors.Is(err, ioErr) {
		t.Fatalf("EncodeTo error = %v, want wrapped %v", err, ioErr)
	}
}

func TestEncoder_CustomChecksum(t *testing.T) {
	zero := func(uint32, []byte) uint32 { return 0 }
	enc, err := NewEncoder(EncoderOptions{Checksum: zero, Level: DefaultCompressionLevel}).Encode(makeTestImage(t, 2, 2), nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := Decode(enc); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Decode error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := NewDecoder(DecoderOptions{Verify: VerifyWith(zero)}).Decode(enc); err != nil {
		t.Fatalf("Decode with matching checksum: %v", err)
	}
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	img := makeTestImage(t, 7, 3)

	if err := EncodeFile(path, img, nil); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	dec, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if !dec.Equal(img) {
		t.Fatalf("decoded pixels differ from source")
	}

	// a failed encode leaves neither the target nor a temporary file behind
	failed := filepath.Join(dir, "failed.png")
	if err := EncodeFile(failed, img, Palette{{1, 1, 1}}); !errors.Is(err, ErrColorNotInPalette) {
		t.Fatalf("EncodeFile error = %v, want ErrColorNotInPalette", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.png" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory holds %v, want only out.png", names)
	}
}

func TestSplitData(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	tests := []struct {
		size int
		want []int
	}{
		{0, []int{7}},
		{-1, []int{7}},
		{7, []int{7}},
		{100, []int{7}},
		{3, []int{3, 3, 1}},
		{1, []int{1, 1, 1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		parts := splitData(data, tt.size)
		if len(parts) != len(tt.want) {
			t.Fatalf("splitData(%d) = %d parts, want %d", tt.size, len(parts), len(tt.want))
		}
		var joined []byte
		for i, p := range parts {
			if len(p) != tt.want[i] {
				t.Fatalf("splitData(%d) part %d has %d bytes, want %d", tt.size, i, len(p), tt.want[i])
			}
			joined = append(joined, p...)
		}
		if !bytes.Equal(joined, data) {
			t.Fatalf("splitData(%d) parts join to %v", tt.size, joined)
		}
	}
}

func TestEncoder_ZeroOptionsStore(t *testing.T) {
	img, err := NewImage(64, 64)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	rawSize := 64 * (1 + 64*4)

	stored, err := NewEncoder(EncoderOptions{}).Encode(img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(stored) <= rawSize {
		t.Fatalf("zero options wrote %d bytes, want stored data above %d", len(stored), rawSize)
	}

	compressed, err := NewEncoder(DefaultEncoderOptions()).Encode(img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(compressed) >= rawSize/10 {
		t.Fatalf("default options wrote %d bytes for a blank image", len(compressed))
	}
}
