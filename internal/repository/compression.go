package repository

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Compression is the container format of a dataset file
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{0x42, 0x5a, 0x68}                   // "BZh"
	xzMagic    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00} // "\xfd7zXZ\x00"
)

// detectCompression sniffs the magic bytes at the head of r without
// consuming them.
func detectCompression(r *bufio.Reader) Compression {
	head, _ := r.Peek(len(xzMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(head, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(head, xzMagic):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// openDecompressed opens path and transparently decompresses gzip, bzip2
// and xz content. The caller must close the result.
func openDecompressed(path string) (io.ReadCloser, Compression, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CompressionNone, err
	}

	br := bufio.NewReader(f)
	kind := detectCompression(br)

	var r io.Reader
	switch kind {
	case CompressionGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, kind, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		r = gz
	case CompressionBzip2:
		r = bzip2.NewReader(br)
	case CompressionXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, kind, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xr
	default:
		r = br
	}
	return &decompressingReadCloser{reader: r, file: f}, kind, nil
}

type decompressingReadCloser struct {
	reader io.Reader
	file   *os.File
}

func (d *decompressingReadCloser) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decompressingReadCloser) Close() error {
	if closer, ok := d.reader.(io.Closer); ok {
		closer.Close()
	}
	return d.file.Close()
}
