// Package nbt reads and writes Named Binary Tag trees and edits them without
// disturbing fields it was not asked to change.
//
// Every tag type has a fixed payload layout; a compound is a run of named
// tags closed by TagEnd, a list is an element type, a count and that many
// unnamed payloads. All integers are big-endian.
package nbt

import (
	"fmt"
)

// TagType is the one-byte type id that precedes every named tag.
type TagType byte

const (
	TagEnd       TagType = iota //  0: no payload, no name
	TagByte                     //  1: int8
	TagShort                    //  2: int16
	TagInt                      //  3: int32
	TagLong                     //  4: int64
	TagFloat                    //  5: float32
	TagDouble                   //  6: float64
	TagByteArray                //  7: int32 length, then bytes
	TagString                   //  8: uint16 length, then bytes
	TagList                     //  9: element type, int32 length, then payloads
	TagCompound                 // 10: named tags until TagEnd
	TagIntArray                 // 11: int32 length, then int32s
	TagLongArray                // 12: int32 length, then int64s
)

var tagNames = map[TagType]string{
	TagEnd:       "TAG_End",
	TagByte:      "TAG_Byte",
	TagShort:     "TAG_Short",
	TagInt:       "TAG_Int",
	TagLong:      "TAG_Long",
	TagFloat:     "TAG_Float",
	TagDouble:    "TAG_Double",
	TagByteArray: "TAG_Byte_Array",
	TagString:    "TAG_String",
	TagList:      "TAG_List",
	TagCompound:  "TAG_Compound",
	TagIntArray:  "TAG_Int_Array",
	TagLongArray: "TAG_Long_Array",
}

func (t TagType) String() string {
	name, ok := tagNames[t]
	if !ok {
		name = "Unknown"
	}
	return fmt.Sprintf("%s (0x%02x)", name, byte(t))
}

// IsValid reports whether t is a type this package can decode.
func (t TagType) IsValid() bool {
	return t <= TagLongArray
}

// Tag is any decoded payload. Values are treated as immutable once read.
type Tag interface {
	Type() TagType
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	String    string
	ByteArray []byte
	IntArray  []int32
	LongArray []int64
)

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (String) Type() TagType    { return TagString }
func (ByteArray) Type() TagType { return TagByteArray }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }

// List is a homogeneous sequence of unnamed tags. An empty list may carry
// TagEnd as its element type.
type List struct {
	Elem  TagType
	Items []Tag
}

func (*List) Type() TagType { return TagList }

// Root is a whole file: the outermost tag and its (usually empty) name.
type Root struct {
	Name string
	Tag  Tag
}

// Compound returns the root tag as a compound, or nil if it is something else.
func (r *Root) Compound() *Compound {
	if r == nil {
		return nil
	}
	c, _ := r.Tag.(*Compound)
	return c
}
