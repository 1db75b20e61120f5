package memdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/jmylchreest/iconform/internal/compression"
)

// Decode reads a JSON snapshot and builds a document from it.
func Decode(r io.Reader) (*Document, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return New(&snap)
}

// Encode writes the document as an indented JSON snapshot.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file, which may be gzip, xz or bzip2 compressed.
func Load(path string) (*Document, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	data, err := compression.Decompress(raw, path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes the document to path, compressing by extension.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return err
	}
	data, err := compression.Compress(buf.Bytes(), path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - document files are user readable
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// readFile maps path read-only and copies it out, falling back to a plain
// read where mapping fails (empty files, special filesystems).
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 - document path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("snapshot %s is empty", path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		data, readErr := os.ReadFile(path) // #nosec G304 - document path is supplied by the user
		if readErr != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", readErr)
		}
		return data, nil
	}
	defer m.Unmap()

	return bytes.Clone(m), nil
}
