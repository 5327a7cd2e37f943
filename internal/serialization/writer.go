package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/axon/internal/ir"
	"google.golang.org/protobuf/encoding/protowire"
)

// Params is a trained parameter buffer together with the parameter names
// of the module it belongs to.
type Params struct {
	Values []float32
	Names  []ir.NamedSlot
}

// EncodeModule returns the complete file contents for m.
func EncodeModule(m *ir.Module) []byte {
	var p []byte
	p = appendVarintField(p, fieldModuleInputs, uint64(m.NumInputs()))
	p = appendVarintField(p, fieldModuleParams, uint64(m.NumParams()))
	for i := 0; i < m.Len(); i++ {
		p = protowire.AppendTag(p, fieldModuleNode, protowire.BytesType)
		p = protowire.AppendBytes(p, appendNode(nil, m.Node(i)))
	}
	return frame(KindModule, p)
}

// appendNode encodes n. Zero-valued fields are omitted.
func appendNode(b []byte, n ir.Node) []byte {
	b = appendVarintField(b, fieldNodeKind, uint64(n.Kind))
	b = appendVarintField(b, fieldNodeA, uint64(n.A))
	b = appendVarintField(b, fieldNodeB, uint64(n.B))
	b = appendVarintField(b, fieldNodeSlot, uint64(n.Slot))
	if bits := math.Float32bits(n.Value); bits != 0 {
		b = protowire.AppendTag(b, fieldNodeValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, bits)
	}
	if n.Name != "" {
		b = protowire.AppendTag(b, fieldNodeName, protowire.BytesType)
		b = protowire.AppendString(b, n.Name)
	}
	return b
}

// EncodeParams returns the complete file contents for p.
func EncodeParams(p Params) []byte {
	var b []byte
	if len(p.Values) > 0 {
		b = protowire.AppendTag(b, fieldParamsValues, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(4*len(p.Values)))
		for _, v := range p.Values {
			b = protowire.AppendFixed32(b, math.Float32bits(v))
		}
	}
	for _, ns := range p.Names {
		var e []byte
		e = protowire.AppendTag(e, fieldNamedSlotName, protowire.BytesType)
		e = protowire.AppendString(e, ns.Name)
		e = appendVarintField(e, fieldNamedSlotSlot, uint64(ns.Slot))
		b = protowire.AppendTag(b, fieldParamsNames, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return frame(KindParams, b)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// frame wraps payload in the fixed header and the checksum trailer.
func frame(kind PayloadKind, payload []byte) []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(payload)+ChecksumSize)
	copy(out, MagicBytes)
	binary.LittleEndian.PutUint32(out[4:], FormatVersion)
	binary.LittleEndian.PutUint32(out[8:], uint32(kind))
	out = append(out, payload...)
	sum := ComputeChecksum(out)
	return append(out, sum[:]...)
}

// WriteModule writes m to w.
func WriteModule(w io.Writer, m *ir.Module) error {
	if _, err := w.Write(EncodeModule(m)); err != nil {
		return fmt.Errorf("failed to write module: %w", err)
	}
	return nil
}

// WriteParams writes p to w.
func WriteParams(w io.Writer, p Params) error {
	if _, err := w.Write(EncodeParams(p)); err != nil {
		return fmt.Errorf("failed to write params: %w", err)
	}
	return nil
}

// SaveModule writes m to a file at path.
func SaveModule(path string, m *ir.Module) error {
	return saveFile(path, EncodeModule(m))
}

// SaveParams writes p to a file at path.
func SaveParams(path string, p Params) error {
	return saveFile(path, EncodeParams(p))
}

func saveFile(path string, data []byte) error {
	//nolint:gosec // G306: artifacts are meant to be readable by other tools
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}
