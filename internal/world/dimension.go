package world

import (
	"fmt"
	"strings"

	"github.com/danghamo/mlg/internal/domain/shared"
)

// Dimension is one of the parallel world layers.
type Dimension int

const (
	Overworld Dimension = iota
	Nether
	End
)

type dimensionInfo struct {
	name    string
	subpath string
}

// dimensions is ordered; restores walk it front to back.
var dimensions = []dimensionInfo{
	Overworld: {name: "overworld", subpath: "."},
	Nether:    {name: "nether", subpath: "DIM-1"},
	End:       {name: "end", subpath: "DIM1"},
}

// Dimensions returns every known dimension in restore order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensions))
	for i := range dimensions {
		out[i] = Dimension(i)
	}
	return out
}

// IsValid checks if the dimension is known
func (d Dimension) IsValid() bool {
	return d >= 0 && int(d) < len(dimensions)
}

// Subpath returns the dimension's directory relative to the world root.
func (d Dimension) Subpath() string {
	if !d.IsValid() {
		return ""
	}
	return dimensions[d].subpath
}

// String returns string representation
func (d Dimension) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensions[d].name
}

// ParseDimension accepts a dimension name or its directory name.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range dimensions {
		if s == info.name || s == strings.ToLower(info.subpath) {
			return Dimension(i), nil
		}
	}
	switch s {
	case "the_nether", "minecraft:the_nether":
		return Nether, nil
	case "the_end", "minecraft:the_end":
		return End, nil
	case "minecraft:overworld":
		return Overworld, nil
	}
	return 0, shared.NewDomainErrorf(shared.ErrCodeUnknownDimension, "unknown dimension %q", s)
}
