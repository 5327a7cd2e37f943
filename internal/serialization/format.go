package serialization

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Format constants.
const (
	MagicBytes    = "AXON"
	FormatVersion = 1
	HeaderSize    = 12 // magic + version + payload kind
	ChecksumSize  = 32 // SHA-256 trailer
)

// PayloadKind identifies what a file holds.
type PayloadKind uint32

// Payload kinds.
const (
	KindModule PayloadKind = 1
	KindParams PayloadKind = 2
)

// String returns the lowercase name of k.
func (k PayloadKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindParams:
		return "params"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Module message:
//
//	message Module {
//	  uint64 num_inputs = 1;
//	  uint64 num_params = 2;
//	  repeated Node nodes = 3;
//	}
const (
	fieldModuleInputs protowire.Number = 1
	fieldModuleParams protowire.Number = 2
	fieldModuleNode   protowire.Number = 3
)

// Node message:
//
//	message Node {
//	  uint32 kind = 1;
//	  uint64 a = 2;
//	  uint64 b = 3;
//	  uint64 slot = 4;
//	  fixed32 value = 5; // float32 bits
//	  string name = 6;
//	}
const (
	fieldNodeKind  protowire.Number = 1
	fieldNodeA     protowire.Number = 2
	fieldNodeB     protowire.Number = 3
	fieldNodeSlot  protowire.Number = 4
	fieldNodeValue protowire.Number = 5
	fieldNodeName  protowire.Number = 6
)

// Params message:
//
//	message Params {
//	  repeated fixed32 values = 1 [packed = true]; // float32 bits
//	  repeated NamedSlot names = 2;
//	}
//
//	message NamedSlot {
//	  string name = 1;
//	  uint64 slot = 2;
//	}
const (
	fieldParamsValues protowire.Number = 1
	fieldParamsNames  protowire.Number = 2

	fieldNamedSlotName protowire.Number = 1
	fieldNamedSlotSlot protowire.Number = 2
)
