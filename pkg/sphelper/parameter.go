package sphelper

import (
	"fmt"
	"strings"
)

// Direction describes how a parameter moves between caller and procedure.
type Direction int

const (
	DirectionInput       Direction = iota // Value flows into the procedure
	DirectionOutput                       // Value is produced by the procedure
	DirectionInputOutput                  // Value flows both ways
	DirectionReturnValue                  // Procedure return status
)

// String returns a human-readable string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "Input"
	case DirectionOutput:
		return "Output"
	case DirectionInputOutput:
		return "InputOutput"
	case DirectionReturnValue:
		return "ReturnValue"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// IsValid returns true if the Direction is a valid, defined value.
func (d Direction) IsValid() bool {
	return d >= DirectionInput && d <= DirectionReturnValue
}

// IsOutput reports whether the procedure writes a value back through this parameter.
func (d Direction) IsOutput() bool {
	return d == DirectionOutput || d == DirectionInputOutput || d == DirectionReturnValue
}

// MarshalText encodes the direction by name so stored shapes stay readable.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("cannot marshal direction %d: %w", int(d), ErrInvalidArgument)
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection converts the textual form produced by String (case-insensitive)
// and the common catalog spellings (IN, OUT, INOUT) back to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INPUT", "IN":
		return DirectionInput, nil
	case "OUTPUT", "OUT":
		return DirectionOutput, nil
	case "INPUTOUTPUT", "INOUT", "IN OUT":
		return DirectionInputOutput, nil
	case "RETURNVALUE", "RETURN":
		return DirectionReturnValue, nil
	default:
		return DirectionInput, fmt.Errorf("unknown parameter direction %q: %w", s, ErrInvalidArgument)
	}
}

// Parameter describes one bound parameter of a stored procedure or command.
//
// A nil Value is the "no value" sentinel. Cached parameter sets always carry
// nil values: they describe shape, never a particular invocation.
type Parameter struct {
	Name      string    `json:"name" yaml:"name"`
	Direction Direction `json:"direction" yaml:"direction"`
	DataType  string    `json:"dataType,omitempty" yaml:"data_type,omitempty"`

	// Size is the declared maximum length; -1 means unbounded (MAX).
	Size      int   `json:"size,omitempty" yaml:"size,omitempty"`
	Precision uint8 `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     uint8 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable  bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	// Position is the 1-based declaration order; 0 for the return value.
	Position int `json:"position" yaml:"position"`

	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// Clone returns an independent copy of p. Byte slice values are copied so the
// clone never aliases the original's backing array.
func (p *Parameter) Clone() *Parameter {
	if p == nil {
		return nil
	}
	c := *p
	if b, ok := p.Value.([]byte); ok {
		c.Value = append([]byte(nil), b...)
	}
	return &c
}

// BareName returns the parameter name without a provider prefix (@, :, ?).
func (p *Parameter) BareName() string {
	return NormalizeParameterName(p.Name)
}

// NormalizeParameterName strips provider-specific prefixes from a parameter name.
func NormalizeParameterName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "@:?$")
}

// CloneParameters deep-copies a parameter set. A nil input yields nil.
func CloneParameters(params []*Parameter) []*Parameter {
	if params == nil {
		return nil
	}
	out := make([]*Parameter, len(params))
	for i, p := range params {
		out[i] = p.Clone()
	}
	return out
}

// ResetValues sets every parameter's value to the no-value sentinel.
func ResetValues(params []*Parameter) {
	for _, p := range params {
		if p != nil {
			p.Value = nil
		}
	}
}

// ValidateParameterSet checks that the set has no nil entries, every direction
// is defined, and names are unique (case-insensitive, prefixes ignored).
func ValidateParameterSet(params []*Parameter) error {
	seen := make(map[string]int, len(params))
	for i, p := range params {
		if p == nil {
			return fmt.Errorf("parameter %d is nil: %w", i, ErrInvalidArgument)
		}
		if !p.Direction.IsValid() {
			return fmt.Errorf("parameter %q has invalid direction %v: %w", p.Name, p.Direction, ErrInvalidArgument)
		}
		key := strings.ToLower(p.BareName())
		if key == "" {
			continue
		}
		if j, dup := seen[key]; dup {
			return fmt.Errorf("parameter %q at position %d duplicates position %d: %w", p.Name, i, j, ErrInvalidArgument)
		}
		seen[key] = i
	}
	return nil
}

// FindParameter returns the parameter matching name (case-insensitive,
// prefixes ignored), or nil.
func FindParameter(params []*Parameter, name string) *Parameter {
	want := strings.ToLower(NormalizeParameterName(name))
	for _, p := range params {
		if p != nil && strings.ToLower(p.BareName()) == want {
			return p
		}
	}
	return nil
}
