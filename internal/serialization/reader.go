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

// DecodeModule parses the complete file contents of a module file. The
// decoded node list is validated by ir.New; its errors are wrapped.
func DecodeModule(data []byte) (*ir.Module, error) {
	payload, err := unframe(data, KindModule)
	if err != nil {
		return nil, err
	}

	var inputs, params uint64
	var nodes []ir.Node
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, malformed("module", n)
		}
		payload = payload[n:]

		switch {
		case num == fieldModuleInputs && typ == protowire.VarintType:
			inputs, n = protowire.ConsumeVarint(payload)
		case num == fieldModuleParams && typ == protowire.VarintType:
			params, n = protowire.ConsumeVarint(payload)
		case num == fieldModuleNode && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(payload)
			if n < 0 {
				break
			}
			if err := validateCount("nodes", len(nodes)+1, MaxNodes); err != nil {
				return nil, err
			}
			node, err := decodeNode(raw)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", len(nodes), err)
			}
			nodes = append(nodes, node)
		default:
			n = protowire.ConsumeFieldValue(num, typ, payload)
		}
		if n < 0 {
			return nil, malformed("module", n)
		}
		payload = payload[n:]
	}

	if err := validateIndex("num_inputs", inputs); err != nil {
		return nil, err
	}
	if err := validateIndex("num_params", params); err != nil {
		return nil, err
	}
	m, err := ir.New(nodes, int(inputs), int(params))
	if err != nil {
		return nil, fmt.Errorf("invalid module: %w", err)
	}
	return m, nil
}

func decodeNode(b []byte) (ir.Node, error) {
	var node ir.Node
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return node, malformed("node", n)
		}
		b = b[n:]

		var v uint64
		switch {
		case typ == protowire.VarintType && num >= fieldNodeKind && num <= fieldNodeSlot:
			v, n = protowire.ConsumeVarint(b)
			if n < 0 {
				break
			}
			if err := setNodeField(&node, num, v); err != nil {
				return node, err
			}
		case num == fieldNodeValue && typ == protowire.Fixed32Type:
			var bits uint32
			bits, n = protowire.ConsumeFixed32(b)
			node.Value = math.Float32frombits(bits)
		case num == fieldNodeName && typ == protowire.BytesType:
			node.Name, n = protowire.ConsumeString(b)
			if err := validateName("name", node.Name); err != nil {
				return node, err
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return node, malformed("node", n)
		}
		b = b[n:]
	}
	return node, nil
}

func setNodeField(node *ir.Node, num protowire.Number, v uint64) error {
	if num == fieldNodeKind {
		if v > math.MaxUint8 {
			return &ValidationError{Type: "unknown_kind", Field: "kind", Details: fmt.Sprintf("%d", v)}
		}
		node.Kind = ir.Kind(v)
		return nil
	}

	var field string
	var dst *int
	switch num {
	case fieldNodeA:
		field, dst = "a", &node.A
	case fieldNodeB:
		field, dst = "b", &node.B
	default:
		field, dst = "slot", &node.Slot
	}
	if err := validateIndex(field, v); err != nil {
		return err
	}
	*dst = int(v)
	return nil
}

// DecodeParams parses the complete file contents of a parameter file.
// Values may be packed or unpacked.
func DecodeParams(data []byte) (*Params, error) {
	payload, err := unframe(data, KindParams)
	if err != nil {
		return nil, err
	}

	p := &Params{}
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, malformed("params", n)
		}
		payload = payload[n:]

		switch {
		case num == fieldParamsValues && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(payload)
			if n < 0 {
				break
			}
			if len(raw)%4 != 0 {
				return nil, fmt.Errorf("%w: values: packed length %d is not a multiple of 4", ErrMalformed, len(raw))
			}
			if err := validateCount("values", len(p.Values)+len(raw)/4, MaxParams); err != nil {
				return nil, err
			}
			for len(raw) > 0 {
				bits, _ := protowire.ConsumeFixed32(raw)
				p.Values = append(p.Values, math.Float32frombits(bits))
				raw = raw[4:]
			}
		case num == fieldParamsValues && typ == protowire.Fixed32Type:
			var bits uint32
			bits, n = protowire.ConsumeFixed32(payload)
			if n >= 0 {
				if err := validateCount("values", len(p.Values)+1, MaxParams); err != nil {
					return nil, err
				}
				p.Values = append(p.Values, math.Float32frombits(bits))
			}
		case num == fieldParamsNames && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(payload)
			if n < 0 {
				break
			}
			ns, err := decodeNamedSlot(raw)
			if err != nil {
				return nil, err
			}
			p.Names = append(p.Names, ns)
		default:
			n = protowire.ConsumeFieldValue(num, typ, payload)
		}
		if n < 0 {
			return nil, malformed("params", n)
		}
		payload = payload[n:]
	}
	return p, nil
}

func decodeNamedSlot(b []byte) (ir.NamedSlot, error) {
	var ns ir.NamedSlot
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ns, malformed("named slot", n)
		}
		b = b[n:]

		switch {
		case num == fieldNamedSlotName && typ == protowire.BytesType:
			ns.Name, n = protowire.ConsumeString(b)
			if err := validateName("name", ns.Name); err != nil {
				return ns, err
			}
		case num == fieldNamedSlotSlot && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if err := validateIndex("slot", v); err != nil {
				return ns, err
			}
			ns.Slot = int(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return ns, malformed("named slot", n)
		}
		b = b[n:]
	}
	return ns, nil
}

// unframe checks the header and the checksum and returns the payload.
func unframe(data []byte, want PayloadKind) ([]byte, error) {
	if len(data) < HeaderSize+ChecksumSize {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d bytes required)", ErrTruncated, len(data), HeaderSize+ChecksumSize)
	}
	if string(data[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	body := data[:len(data)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], data[len(body):])
	if err := ValidateChecksum(ComputeChecksum(body), stored); err != nil {
		return nil, err
	}

	if k := PayloadKind(binary.LittleEndian.Uint32(data[8:])); k != want {
		return nil, fmt.Errorf("%w: file holds %s, want %s", ErrWrongPayload, k, want)
	}
	return body[HeaderSize:], nil
}

func malformed(msg string, n int) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformed, msg, protowire.ParseError(n))
}

// ReadModule reads a module file from r.
func ReadModule(r io.Reader) (*ir.Module, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeModule(data)
}

// ReadParams reads a parameter file from r.
func ReadParams(r io.Reader) (*Params, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeParams(data)
}

// LoadModule reads a module file from path.
func LoadModule(path string) (*ir.Module, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := DecodeModule(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadParams reads a parameter file from path.
func LoadParams(path string) (*Params, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := DecodeParams(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, &ValidationError{Type: "file_too_large", Details: fmt.Sprintf("more than %d bytes", MaxFileSize)}
	}
	return data, nil
}

func loadFile(path string) ([]byte, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readAll(f)
}
