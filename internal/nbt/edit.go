package nbt

import (
	"fmt"
	"strings"
)

// PathError reports where a tree did not have the expected shape.
type PathError struct {
	// Path is the chain of keys walked so far, including the offending one.
	Path   []string
	Reason string
}

func (e *PathError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: root %s", ErrMalformed, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrMalformed, strings.Join(e.Path, "."), e.Reason)
}

func (e *PathError) Unwrap() error { return ErrMalformed }

// WithUpdatedLeaves returns a copy of tree in which the compound reached by
// path has updates applied (see Compound.With). Only the compounds along
// path are rebuilt; every other subtree is shared with the input, which is
// never modified. The tree and every path segment must be compounds,
// otherwise a *PathError wrapping ErrMalformed is returned.
func WithUpdatedLeaves(tree Tag, path []string, updates ...Entry) (*Compound, error) {
	return rebuild(tree, path, 0, updates)
}

func rebuild(node Tag, path []string, depth int, updates []Entry) (*Compound, error) {
	c, ok := node.(*Compound)
	if !ok || c == nil {
		return nil, &PathError{Path: path[:depth], Reason: describe(node)}
	}
	if depth == len(path) {
		return c.With(updates...), nil
	}

	key := path[depth]
	child, ok := c.Get(key)
	if !ok {
		return nil, &PathError{Path: path[:depth+1], Reason: "is missing"}
	}
	edited, err := rebuild(child, path, depth+1, updates)
	if err != nil {
		return nil, err
	}
	return c.With(Entry{Name: key, Value: edited}), nil
}

// Lookup follows path through nested compounds and returns the tag at its end.
func Lookup(tree Tag, path ...string) (Tag, error) {
	node := tree
	for i, key := range path {
		c, ok := node.(*Compound)
		if !ok || c == nil {
			return nil, &PathError{Path: path[:i], Reason: describe(node)}
		}
		node, ok = c.Get(key)
		if !ok {
			return nil, &PathError{Path: path[:i+1], Reason: "is missing"}
		}
	}
	return node, nil
}

func describe(node Tag) string {
	if node == nil {
		return "is empty"
	}
	return fmt.Sprintf("is %s, not a compound", node.Type())
}
