package nbt

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelWithSiblings() *Root {
	fields := []Entry{{"SpawnX", Int(0)}, {"SpawnY", Int(0)}, {"SpawnZ", Int(0)}}
	for i := 0; i < 10; i++ {
		fields = append(fields, Entry{fmt.Sprintf("Field%02d", i), Long(int64(i) * 1000)})
	}
	// put the spawn fields in the middle so in-place replacement is visible
	fields[1], fields[5] = fields[5], fields[1]

	return &Root{Tag: NewCompound(
		Entry{"Version", NewCompound(Entry{"Id", Int(3465)})},
		Entry{"Data", NewCompound(fields...)},
		Entry{"Trailer", String("kept")},
	)}
}

func TestWithUpdatedLeaves_PreservesSiblingsAndOrder(t *testing.T) {
	root := levelWithSiblings()
	var before bytes.Buffer
	require.NoError(t, WriteRoot(&before, root))

	edited, err := WithUpdatedLeaves(root.Tag, []string{"Data"},
		Entry{"SpawnX", Int(55)},
		Entry{"SpawnY", Int(64)},
		Entry{"SpawnZ", Int(88)},
	)
	require.NoError(t, err)

	// input untouched
	var after bytes.Buffer
	require.NoError(t, WriteRoot(&after, root))
	assert.Equal(t, before.Bytes(), after.Bytes())

	origData := root.Compound().Keys()
	assert.Equal(t, origData, edited.Keys())

	oldData, _ := Lookup(root.Tag, "Data")
	newData, err := Lookup(edited, "Data")
	require.NoError(t, err)
	assert.Equal(t, oldData.(*Compound).Keys(), newData.(*Compound).Keys())

	for name, oldValue := range oldData.(*Compound).All() {
		newValue, _ := newData.(*Compound).Get(name)
		switch name {
		case "SpawnX":
			assert.Equal(t, Int(55), newValue)
		case "SpawnY":
			assert.Equal(t, Int(64), newValue)
		case "SpawnZ":
			assert.Equal(t, Int(88), newValue)
		default:
			assert.Equal(t, oldValue, newValue, name)
		}
	}

	// untouched subtrees are shared, not copied
	oldVersion, _ := root.Compound().Get("Version")
	newVersion, _ := edited.Get("Version")
	assert.Same(t, oldVersion.(*Compound), newVersion.(*Compound))
}

func TestWithUpdatedLeaves_AppendsNewKeys(t *testing.T) {
	tree := NewCompound(Entry{"Data", NewCompound(Entry{"a", Int(1)}, Entry{"b", Int(2)})})

	edited, err := WithUpdatedLeaves(tree, []string{"Data"}, Entry{"c", Int(3)}, Entry{"a", Int(10)})
	require.NoError(t, err)

	data, err := Lookup(edited, "Data")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, data.(*Compound).Keys())
	a, _ := data.(*Compound).Get("a")
	assert.Equal(t, Int(10), a)
}

func TestWithUpdatedLeaves_EmptyPathEditsRoot(t *testing.T) {
	tree := NewCompound(Entry{"x", Int(1)})

	edited, err := WithUpdatedLeaves(tree, nil, Entry{"x", Int(2)})
	require.NoError(t, err)

	x, _ := edited.Get("x")
	assert.Equal(t, Int(2), x)
	x, _ = tree.Get("x")
	assert.Equal(t, Int(1), x)
}

func TestWithUpdatedLeaves_DeepPath(t *testing.T) {
	tree := NewCompound(
		Entry{"a", NewCompound(
			Entry{"b", NewCompound(Entry{"leaf", Int(0)}, Entry{"other", Int(7)})},
			Entry{"sibling", String("s")},
		)},
	)

	edited, err := WithUpdatedLeaves(tree, []string{"a", "b"}, Entry{"leaf", Int(9)})
	require.NoError(t, err)

	leaf, err := Lookup(edited, "a", "b", "leaf")
	require.NoError(t, err)
	assert.Equal(t, Int(9), leaf)

	other, err := Lookup(edited, "a", "b", "other")
	require.NoError(t, err)
	assert.Equal(t, Int(7), other)

	sibling, err := Lookup(edited, "a", "sibling")
	require.NoError(t, err)
	assert.Equal(t, String("s"), sibling)
}

func TestWithUpdatedLeaves_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		tree     Tag
		path     []string
		wantPath []string
	}{
		{"root not compound", Int(1), []string{"Data"}, []string{}},
		{"nil root", nil, []string{"Data"}, []string{}},
		{"missing segment", NewCompound(Entry{"Other", NewCompound()}), []string{"Data"}, []string{"Data"}},
		{"segment not compound", NewCompound(Entry{"Data", String("oops")}), []string{"Data"}, []string{"Data"}},
		{"deep missing", NewCompound(Entry{"Data", NewCompound()}), []string{"Data", "Player"}, []string{"Data", "Player"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WithUpdatedLeaves(tt.tree, tt.path, Entry{"SpawnX", Int(1)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			var pe *PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantPath, pe.Path)
		})
	}
}

func TestCompound_NewCompoundDuplicateKeepsPosition(t *testing.T) {
	c := NewCompound(Entry{"a", Int(1)}, Entry{"b", Int(2)}, Entry{"a", Int(3)})
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	a, _ := c.Get("a")
	assert.Equal(t, Int(3), a)
	assert.Equal(t, 2, c.Len())
}

func TestCompound_NilIsEmpty(t *testing.T) {
	var c *Compound
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("x")
	assert.False(t, ok)

	grown := c.With(Entry{"x", Int(1)})
	assert.Equal(t, []string{"x"}, grown.Keys())
}
