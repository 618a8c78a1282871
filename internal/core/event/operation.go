package event

import (
	"fmt"
	"strings"
)

// Operation is an arithmetic operator applied to a numeric target.
type Operation uint8

const (
	OpSet Operation = iota
	OpAdd
	OpMultiply
)

func (op Operation) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpAdd:
		return "add"
	case OpMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// ParseOperation accepts "set", "add" and "multiply" (case-insensitive).
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "set", "":
		return OpSet, nil
	case "add":
		return OpAdd, nil
	case "multiply", "mul":
		return OpMultiply, nil
	}
	return OpSet, fmt.Errorf("unknown operation %q", s)
}

// Apply returns target after applying op with value.
func (op Operation) Apply(target, value float64) float64 {
	switch op {
	case OpAdd:
		return target + value
	case OpMultiply:
		return target * value
	default:
		return value
	}
}

func (op Operation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
