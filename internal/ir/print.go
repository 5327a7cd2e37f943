package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a one-line-per-node listing of m to w:
//
//	v0 = param 0 "m"
//	v1 = input 0
//	v2 = mul v0 v1
//	output 0 <- v2
func Fprint(w io.Writer, m *Module) error {
	for i, n := range m.nodes {
		if _, err := fmt.Fprintln(w, formatNode(i, n)); err != nil {
			return err
		}
	}
	return nil
}

// String returns the Fprint listing of m.
func (m *Module) String() string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

func formatNode(i int, n Node) string {
	switch {
	case n.Kind == Input:
		return fmt.Sprintf("v%d = input %d", i, n.Slot)
	case n.Kind == Param && n.Name != "":
		return fmt.Sprintf("v%d = param %d %q", i, n.Slot, n.Name)
	case n.Kind == Param:
		return fmt.Sprintf("v%d = param %d", i, n.Slot)
	case n.Kind == Const:
		return fmt.Sprintf("v%d = const %g", i, n.Value)
	case n.Kind.IsUnary():
		return fmt.Sprintf("v%d = %s v%d", i, n.Kind, n.A)
	case n.Kind.IsBinary():
		return fmt.Sprintf("v%d = %s v%d v%d", i, n.Kind, n.A, n.B)
	case n.Kind == Output:
		return fmt.Sprintf("output %d <- v%d", n.Slot, n.A)
	case n.Kind == GradAccumulate:
		return fmt.Sprintf("grad %d += v%d", n.Slot, n.A)
	default:
		return fmt.Sprintf("v%d = %s", i, n.Kind)
	}
}
