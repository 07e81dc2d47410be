package region

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/pkg/logger"
)

func headerWith(entries map[int]uint32) []byte {
	buf := make([]byte, HeaderSize)
	for i, v := range entries {
		binary.BigEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

func TestDecodeHeader_SingleEntry(t *testing.T) {
	h := DecodeHeader(headerWith(map[int]uint32{0: 0, 1: 0x00000105}))

	assert.Equal(t, []shared.LocalChunkPos{{X: 1, Z: 0}}, slices.Collect(h.Present()))
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, Location{Offset: 1, Sectors: 5}, h.At(shared.LocalChunkPos{X: 1, Z: 0}))
}

func TestDecodeHeader_CountOnlyIsAbsent(t *testing.T) {
	// a sector count without an offset does not make a slot present
	h := DecodeHeader(headerWith(map[int]uint32{3: 0x000000ff}))
	assert.Empty(t, slices.Collect(h.Present()))
}

func TestDecodeHeader_SlotMapping(t *testing.T) {
	h := DecodeHeader(headerWith(map[int]uint32{
		32:   0x00000201,
		33:   0x00000301,
		1023: 0xffffff01,
	}))

	assert.Equal(t, []shared.LocalChunkPos{{X: 0, Z: 1}, {X: 1, Z: 1}, {X: 31, Z: 31}}, slices.Collect(h.Present()))
	assert.Equal(t, uint32(0xffffff), h.At(shared.LocalChunkPos{X: 31, Z: 31}).Offset)
}

func TestDecodeHeader_ShortBuffer(t *testing.T) {
	h := DecodeHeader(make([]byte, HeaderSize-1))
	assert.Zero(t, h.Count())
}

func TestScanner_Chunks(t *testing.T) {
	dir := t.TempDir()
	s := NewScanner(dir, "", logger.NewNop())

	pos := shared.RegionPos{X: -1, Z: 2}
	assert.Equal(t, filepath.Join(dir, "r.-1.2.mca"), s.Path(pos))

	data := append(headerWith(map[int]uint32{1: 0x105, 64: 0x201}), make([]byte, SectorSize)...)
	require.NoError(t, os.WriteFile(s.Path(pos), data, 0o644))

	chunks := s.Chunks(pos)
	want := []shared.LocalChunkPos{{X: 1, Z: 0}, {X: 0, Z: 2}}
	assert.Equal(t, want, slices.Collect(chunks))
	// restartable
	assert.Equal(t, want, slices.Collect(chunks))

	// early stop
	var first []shared.LocalChunkPos
	for c := range chunks {
		first = append(first, c)
		break
	}
	assert.Equal(t, want[:1], first)
}

func TestScanner_MissingAndShortFiles(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScanner(dir, "mca", logger.Wrap(zap.New(core)))

	assert.Empty(t, slices.Collect(s.Chunks(shared.RegionPos{})))

	short := shared.RegionPos{X: 1}
	require.NoError(t, os.WriteFile(s.Path(short), headerWith(map[int]uint32{0: 0x201})[:100], 0o644))
	assert.Empty(t, slices.Collect(s.Chunks(short)))

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), "absence is not worth a warning")
}

func TestScanner_UnreadableFileWarns(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewScanner(dir, "mca", logger.Wrap(zap.New(core)))

	pos := shared.RegionPos{X: 3, Z: 3}
	require.NoError(t, os.Mkdir(s.Path(pos), 0o755))

	assert.Empty(t, slices.Collect(s.Chunks(pos)))

	entries := logs.FilterMessageSnippet("assuming it contains no chunks").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, s.Path(pos), entries[0].ContextMap()["path"])
}

func TestScanner_Locate(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScanner(dir, "mca", logger.Wrap(zap.New(core)))

	// region (-1,0), slot (31,1) holds world chunk (-1,1)
	region := shared.RegionPos{X: -1, Z: 0}
	slot := shared.LocalChunkPos{X: 31, Z: 1}
	require.NoError(t, os.WriteFile(s.Path(region), headerWith(map[int]uint32{slot.Index(): 0x302}), 0o644))

	loc := s.Locate(shared.ChunkPos{X: -1, Z: 1})
	assert.True(t, loc.Present())
	assert.Equal(t, Location{Offset: 3, Sectors: 2}, loc)

	assert.False(t, s.Locate(shared.ChunkPos{X: -2, Z: 1}).Present())
	assert.False(t, s.Locate(shared.ChunkPos{X: 0, Z: 0}).Present(), "region file missing")

	read := logs.FilterMessage("Read region header").All()
	require.NotEmpty(t, read)
	assert.EqualValues(t, 1, read[0].ContextMap()["chunks"])
}
