package soap

import (
	"fmt"
	"strconv"
	"strings"
)

// Cast selects the conversion applied to a matched node's text.
type Cast int

// Supported casts.
const (
	CastNone Cast = iota
	CastDateTime
	CastDateOnly
	CastInt
	CastBool
)

var castNames = [...]string{
	CastNone:     "none",
	CastDateTime: "datetime",
	CastDateOnly: "date_only_naive",
	CastInt:      "int",
	CastBool:     "bool",
}

// castFuncs is indexed by Cast. Every conversion yields exactly one value per
// matched node.
var castFuncs = [...]func(string) (any, error){
	CastNone: func(s string) (any, error) { return s, nil },
	CastDateTime: func(s string) (any, error) {
		return ParseTimestamp(s)
	},
	CastDateOnly: func(s string) (any, error) {
		return ParseDateOnly(s)
	},
	CastInt: func(s string) (any, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	},
	// Anything other than "true" is false, including malformed text.
	CastBool: func(s string) (any, error) {
		return strings.EqualFold(s, "true"), nil
	},
}

// ParseCast maps a cast name to a Cast. Aliases used by existing field maps
// are accepted alongside the canonical names.
func ParseCast(s string) (Cast, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "string":
		return CastNone, nil
	case "datetime":
		return CastDateTime, nil
	case "date_only_naive", "date_only", "date":
		return CastDateOnly, nil
	case "int", "integer":
		return CastInt, nil
	case "bool", "boolean":
		return CastBool, nil
	default:
		return CastNone, fmt.Errorf("unknown cast %q", s)
	}
}

// String returns the canonical cast name.
func (c Cast) String() string {
	if c < 0 || int(c) >= len(castNames) {
		return "Cast(" + strconv.Itoa(int(c)) + ")"
	}
	return castNames[c]
}

// Valid reports whether c is one of the defined casts.
func (c Cast) Valid() bool {
	return c >= 0 && int(c) < len(castFuncs)
}

// Apply converts s according to c.
func (c Cast) Apply(s string) (any, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown cast %d", int(c))
	}
	return castFuncs[c](s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Cast) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown cast %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cast) UnmarshalText(b []byte) error {
	v, err := ParseCast(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
