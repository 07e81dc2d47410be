package nbt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawBuilder writes NBT by hand so tests do not depend on the encoder.
type rawBuilder struct{ bytes.Buffer }

func (b *rawBuilder) named(t TagType, name string) *rawBuilder {
	b.WriteByte(byte(t))
	_ = binary.Write(b, binary.BigEndian, uint16(len(name)))
	b.WriteString(name)
	return b
}

func (b *rawBuilder) int32(v int32) *rawBuilder {
	_ = binary.Write(b, binary.BigEndian, v)
	return b
}

func (b *rawBuilder) int64(v int64) *rawBuilder {
	_ = binary.Write(b, binary.BigEndian, v)
	return b
}

func (b *rawBuilder) end() *rawBuilder {
	b.WriteByte(byte(TagEnd))
	return b
}

func sampleLevel() []byte {
	b := &rawBuilder{}
	b.named(TagCompound, "")
	b.named(TagCompound, "Data")
	b.named(TagInt, "SpawnX").int32(0)
	b.named(TagInt, "SpawnY").int32(0)
	b.named(TagInt, "SpawnZ").int32(0)
	b.named(TagString, "LevelName")
	_ = binary.Write(b, binary.BigEndian, uint16(5))
	b.WriteString("world")
	b.named(TagLong, "RandomSeed").int64(-42)
	b.named(TagList, "ServerBrands")
	b.WriteByte(byte(TagString))
	b.int32(1)
	_ = binary.Write(b, binary.BigEndian, uint16(7))
	b.WriteString("vanilla")
	b.end()
	b.named(TagIntArray, "Marker").int32(2).int32(7).int32(-7)
	b.end()
	return b.Bytes()
}

func TestReadRoot_Structure(t *testing.T) {
	root, err := ReadRoot(bytes.NewReader(sampleLevel()))
	require.NoError(t, err)
	assert.Equal(t, "", root.Name)

	top := root.Compound()
	require.NotNil(t, top)
	assert.Equal(t, []string{"Data", "Marker"}, top.Keys())

	data, err := Lookup(root.Tag, "Data")
	require.NoError(t, err)
	dc := data.(*Compound)
	assert.Equal(t, []string{"SpawnX", "SpawnY", "SpawnZ", "LevelName", "RandomSeed", "ServerBrands"}, dc.Keys())

	seed, _ := dc.Get("RandomSeed")
	assert.Equal(t, Long(-42), seed)

	brands, _ := dc.Get("ServerBrands")
	assert.Equal(t, &List{Elem: TagString, Items: []Tag{String("vanilla")}}, brands)

	marker, _ := top.Get("Marker")
	assert.Equal(t, IntArray{7, -7}, marker)
}

func TestWriteRoot_ByteExactRoundTrip(t *testing.T) {
	in := sampleLevel()
	root, err := ReadRoot(bytes.NewReader(in))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteRoot(&out, root))
	assert.Equal(t, in, out.Bytes())
}

func TestWriteRoot_AllScalarTypes(t *testing.T) {
	root := &Root{Name: "root", Tag: NewCompound(
		Entry{"b", Byte(-1)},
		Entry{"s", Short(-300)},
		Entry{"i", Int(1 << 20)},
		Entry{"l", Long(-1 << 40)},
		Entry{"f", Float(1.5)},
		Entry{"d", Double(-2.25)},
		Entry{"str", String("héllo")},
		Entry{"ba", ByteArray{1, 2, 3}},
		Entry{"ia", IntArray{}},
		Entry{"la", LongArray{1, -1}},
		Entry{"empty", &List{Elem: TagEnd, Items: []Tag{}}},
		Entry{"nested", &List{Elem: TagCompound, Items: []Tag{NewCompound(Entry{"x", Int(1)})}}},
	)}

	var buf bytes.Buffer
	require.NoError(t, WriteRoot(&buf, root))

	back, err := ReadRoot(&buf)
	require.NoError(t, err)
	assert.Equal(t, root.Name, back.Name)
	assert.Equal(t, root.Compound().Keys(), back.Compound().Keys())
	for name, want := range root.Compound().All() {
		got, ok := back.Compound().Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestReadRoot_Malformed(t *testing.T) {
	full := sampleLevel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"root end", []byte{0}},
		{"unknown type", []byte{99, 0, 0}},
		{"truncated", full[:len(full)-5]},
		{"negative length", (&rawBuilder{}).named(TagCompound, "").named(TagByteArray, "x").int32(-1).Bytes()},
		{"end list with items", append((&rawBuilder{}).named(TagList, "").Bytes(), 0, 0, 0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRoot(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReadRoot_DuplicateField(t *testing.T) {
	b := &rawBuilder{}
	b.named(TagCompound, "")
	b.named(TagInt, "a").int32(1)
	b.named(TagInt, "a").int32(2)
	b.end()

	_, err := ReadRoot(bytes.NewReader(b.Bytes()))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWriteRoot_RejectsMixedList(t *testing.T) {
	root := &Root{Tag: NewCompound(Entry{"l", &List{Elem: TagInt, Items: []Tag{Int(1), Long(2)}}})}
	err := WriteRoot(&bytes.Buffer{}, root)
	assert.ErrorIs(t, err, ErrMalformed)
}
