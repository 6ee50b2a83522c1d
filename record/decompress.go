package record

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18} // frame format, little endian
)

// Decompress returns a reader that transparently decompresses r if it starts
// with the gzip or LZ4 frame magic bytes. Otherwise the data is returned as is.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(lz4Magic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return gz, nil
	case bytes.HasPrefix(magic, lz4Magic):
		return lz4.NewReader(br), nil
	default:
		return br, nil
	}
}
