// Package region decodes the location table at the start of region files to
// find out which chunk slots hold data. Chunk payloads are never read.
package region

import (
	"encoding/binary"
	"iter"

	"github.com/danghamo/mlg/internal/domain/shared"
)

const (
	// SectorSize is the allocation unit of a region file.
	SectorSize = 4096
	// HeaderSize is the length of the location table.
	HeaderSize = shared.RegionSlots * 4
)

// Location is one entry of the location table.
type Location struct {
	// Offset is the first sector of the chunk, counted from the file start.
	Offset uint32
	// Sectors is the number of sectors the chunk occupies.
	Sectors uint8
}

// Present reports whether the slot holds a chunk.
func (l Location) Present() bool {
	return l.Offset != 0
}

// ParseLocation splits a raw table entry into offset (upper 24 bits) and
// sector count (lower 8 bits).
func ParseLocation(raw uint32) Location {
	return Location{Offset: raw >> 8, Sectors: uint8(raw)}
}

// Header is a decoded location table, indexed by LocalChunkPos.Index.
type Header [shared.RegionSlots]Location

// DecodeHeader decodes a location table. buf must hold at least HeaderSize
// bytes; shorter input decodes as an empty table.
func DecodeHeader(buf []byte) Header {
	var h Header
	if len(buf) < HeaderSize {
		return h
	}
	for i := range h {
		h[i] = ParseLocation(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return h
}

// At returns the entry for a slot.
func (h *Header) At(pos shared.LocalChunkPos) Location {
	return h[pos.Index()]
}

// Present iterates populated slots in header order.
func (h *Header) Present() iter.Seq[shared.LocalChunkPos] {
	return func(yield func(shared.LocalChunkPos) bool) {
		for i, loc := range h {
			if !loc.Present() {
				continue
			}
			if !yield(shared.LocalFromIndex(i)) {
				return
			}
		}
	}
}

// Count returns the number of populated slots.
func (h *Header) Count() int {
	n := 0
	for _, loc := range h {
		if loc.Present() {
			n++
		}
	}
	return n
}
