package nbt

import (
	"iter"
)

// Entry is one named field of a compound.
type Entry struct {
	Name  string
	Value Tag
}

// Compound is an ordered map from name to tag. Field order is kept exactly
// as read so a file can be written back byte for byte.
type Compound struct {
	entries []Entry
	index   map[string]int
}

func (*Compound) Type() TagType { return TagCompound }

// NewCompound builds a compound from entries in order. A repeated name
// replaces the earlier value without moving it.
func NewCompound(entries ...Entry) *Compound {
	c := &Compound{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		c.put(e)
	}
	return c
}

func (c *Compound) put(e Entry) {
	if i, ok := c.index[e.Name]; ok {
		c.entries[i].Value = e.Value
		return
	}
	c.index[e.Name] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Len returns the number of fields
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Get returns the field called name.
func (c *Compound) Get(name string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i].Value, true
}

// Keys returns field names in stored order.
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Name
	}
	return keys
}

// All iterates fields in stored order.
func (c *Compound) All() iter.Seq2[string, Tag] {
	return func(yield func(string, Tag) bool) {
		if c == nil {
			return
		}
		for _, e := range c.entries {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// With returns a new compound with updates applied: existing names keep
// their position, new names are appended in the order given. The receiver is
// left untouched and every other field value is shared, not copied.
func (c *Compound) With(updates ...Entry) *Compound {
	n := c.Len()
	out := &Compound{
		entries: make([]Entry, n, n+len(updates)),
		index:   make(map[string]int, n+len(updates)),
	}
	if c != nil {
		copy(out.entries, c.entries)
		for k, v := range c.index {
			out.index[k] = v
		}
	}
	for _, u := range updates {
		out.put(u)
	}
	return out
}
