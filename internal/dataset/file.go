package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic is the 4-byte signature opening every dataset file.
//
// File layout (little-endian):
//
//	magic: "AXD\n"
//	rows:  uint32
//	cols:  uint32
//	data:  rows*cols float32, row-major
const Magic = "AXD\n"

var (
	// ErrInvalidMagic is returned when a file does not start with Magic.
	ErrInvalidMagic = errors.New("dataset: invalid magic")

	// ErrSizeMismatch is returned when the payload length disagrees with
	// the header.
	ErrSizeMismatch = errors.New("dataset: payload size does not match header")
)

// Load reads a dataset file.
func Load(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("dataset: load %s: %w", path, err)
	}
	return m, nil
}

// Read decodes a dataset from r. The stream must end right after the data.
func Read(r io.Reader) (*Memory, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic[:])
	}

	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("failed to read dimensions: %w", err)
	}

	rows, cols := int(dims[0]), int(dims[1])
	data := make([]float32, rows*cols)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: header says %dx%d", ErrSizeMismatch, rows, cols)
		}
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing bytes after %dx%d values", ErrSizeMismatch, rows, cols)
	}

	return New(rows, cols, data)
}

// Save writes ds to path, replacing any existing file.
func Save(path string, ds Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := Write(w, ds); err != nil {
		f.Close()
		return fmt.Errorf("dataset: save %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("dataset: flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dataset: close %s: %w", path, err)
	}
	return nil
}

// Write encodes ds to w.
func Write(w io.Writer, ds Dataset) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return fmt.Errorf("failed to write magic: %w", err)
	}
	dims := [2]uint32{uint32(ds.Rows()), uint32(ds.Cols())}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return fmt.Errorf("failed to write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, ds.Data()); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}
