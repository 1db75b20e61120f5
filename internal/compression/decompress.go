// Package compression reads and writes compressed document snapshots.
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/iconform/internal/security"
	"github.com/ulikunitz/xz"
)

// Format identifies a snapshot compression format.
type Format string

const (
	FormatNone  Format = ""
	FormatGzip  Format = "gzip"
	FormatXz    Format = "xz"
	FormatBzip2 Format = "bzip2"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	bzip2Magic = []byte("BZh")
)

// Detect identifies the compression of data from its magic bytes, falling
// back to the extension of name.
func Detect(data []byte, name string) Format {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return FormatXz
	case bytes.HasPrefix(data, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(data, bzip2Magic):
		return FormatBzip2
	}
	return FormatFromName(name)
}

// FormatFromName maps a file extension to a compression format.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xz":
		return FormatXz
	case ".gz":
		return FormatGzip
	case ".bz2":
		return FormatBzip2
	default:
		return FormatNone
	}
}

// Decompress returns the uncompressed contents of data. Uncompressed input
// is returned unchanged.
func Decompress(data []byte, name string) ([]byte, error) {
	var r io.Reader
	switch Detect(data, name) {
	case FormatNone:
		return data, nil
	case FormatGzip:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case FormatXz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	case FormatBzip2:
		r = bzip2.NewReader(bytes.NewReader(data))
	}

	out, err := io.ReadAll(security.NewLimitedReader(r, security.MaxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
	}
	return out, nil
}

// Compress encodes data in the format implied by name's extension.
// bzip2 output is not supported.
func Compress(data []byte, name string) ([]byte, error) {
	var buf bytes.Buffer
	switch FormatFromName(name) {
	case FormatNone:
		return data, nil
	case FormatGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to gzip %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to gzip %s: %w", name, err)
		}
	case FormatXz:
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to xz %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to xz %s: %w", name, err)
		}
	case FormatBzip2:
		return nil, fmt.Errorf("writing bzip2 snapshots is not supported: %s", name)
	}
	return buf.Bytes(), nil
}
