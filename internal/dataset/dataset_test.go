package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/axon/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesLength(t *testing.T) {
	_, err := New(2, 3, make([]float32, 5))
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))

	m, err := New(2, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, m.Row(1))
}

func TestGenerate(t *testing.T) {
	n := 0
	m, err := Generate(4, 2, GeneratorFunc(func(row []float32) {
		row[0] = float32(n)
		row[1] = float32(n * n)
		n++
	}))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{0, 0, 1, 1, 2, 4, 3, 9}, m.Data())
}

func TestSaveLoad(t *testing.T) {
	m, err := New(2, 2, []float32{1.5, -2, 0, 3.25})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "train.axd")
	require.NoError(t, Save(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 12+4*4)
	assert.Equal(t, Magic, string(raw[:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(raw[4:8]))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, 2, got.Cols())
	assert.Equal(t, m.Data(), got.Data())
}

func TestRead_InvalidMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("AXE\n\x00\x00\x00\x00\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestRead_SizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	m, err := New(1, 2, []float32{1, 2})
	require.NoError(t, err)
	require.NoError(t, Write(&buf, m))
	full := buf.Bytes()

	_, err = Read(bytes.NewReader(full[:len(full)-1]))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = Read(bytes.NewReader(append(append([]byte{}, full...), 0)))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.axd"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
