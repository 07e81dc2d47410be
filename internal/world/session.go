// Package world edits a world save directory in a way that can be rolled back.
package world

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/backup"
	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/nbt"
	"github.com/danghamo/mlg/internal/region"
	"github.com/danghamo/mlg/internal/spawngrid"
	"github.com/danghamo/mlg/pkg/logger"
)

const (
	levelFile  = "level.dat"
	chunksFile = "data/chunks.dat"
	regionDir  = "region"

	forcedDataKey = "data"
	forcedKey     = "Forced"
	levelDataKey  = "Data"
)

// Options tune how a session treats the files it tracks.
type Options struct {
	BackupSuffix    string
	RegionExtension string
	StaleBackup     backup.ConflictPolicy
	VerifyCopies    bool
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		BackupSuffix:    backup.DefaultSuffix,
		RegionExtension: region.DefaultExtension,
		StaleBackup:     backup.ConflictFail,
		VerifyCopies:    true,
	}
}

// Option modifies Options.
type Option func(*Options)

func WithBackupSuffix(suffix string) Option {
	return func(o *Options) { o.BackupSuffix = suffix }
}

func WithRegionExtension(ext string) Option {
	return func(o *Options) { o.RegionExtension = ext }
}

func WithStaleBackupPolicy(p backup.ConflictPolicy) Option {
	return func(o *Options) { o.StaleBackup = p }
}

func WithVerifyCopies(verify bool) Option {
	return func(o *Options) { o.VerifyCopies = verify }
}

// TrackedFile describes one file a session may modify.
type TrackedFile struct {
	Role       string `json:"role"`
	Path       string `json:"path"`
	BackupPath string `json:"backup_path"`
	BackedUp   bool   `json:"backed_up"`
}

// Session holds the backups for one world directory. Every mutation backs up
// its target first, and ResetChanges undoes everything since Open. A session
// must not be used from more than one goroutine, and nothing stops another
// process from touching the same files.
type Session struct {
	root string
	opts Options
	log  *logger.Logger

	level    *backup.Handler
	chunks   []*backup.Handler // indexed by Dimension
	scanners []*region.Scanner // indexed by Dimension
}

// Open starts a session on the world at root. Leftover backups from an
// unfinished session are handled by the StaleBackup policy; with the default
// policy they make Open fail with shared.ErrBackupConflict.
func Open(root string, log *logger.Logger, opts ...Option) (*Session, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, shared.ErrIOf(err, "open world", root)
	}
	if !info.IsDir() {
		return nil, shared.ErrIOf(errors.New("not a directory"), "open world", root)
	}

	s := &Session{
		root: root,
		opts: o,
		log:  log.WithComponent("world").WithField("world", root),
	}

	handlerOpts := []backup.Option{
		backup.WithSuffix(o.BackupSuffix),
		backup.WithConflictPolicy(o.StaleBackup),
		backup.WithVerify(o.VerifyCopies),
	}

	var errs []error
	s.level, err = backup.NewHandler("level", filepath.Join(root, levelFile), log, handlerOpts...)
	if err != nil {
		errs = append(errs, err)
	}
	for _, dim := range Dimensions() {
		h, err := backup.NewHandler("chunks/"+dim.String(), s.chunksPath(dim), log, handlerOpts...)
		if err != nil {
			errs = append(errs, err)
		}
		s.chunks = append(s.chunks, h)
		s.scanners = append(s.scanners, region.NewScanner(s.regionDir(dim), o.RegionExtension, log))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	s.log.Debug("World session opened")
	return s, nil
}

func (s *Session) levelPath() string {
	return filepath.Join(s.root, levelFile)
}

func (s *Session) chunksPath(dim Dimension) string {
	return filepath.Join(s.root, dim.Subpath(), chunksFile)
}

func (s *Session) regionDir(dim Dimension) string {
	return filepath.Join(s.root, dim.Subpath(), regionDir)
}

func (s *Session) handlers() []*backup.Handler {
	return append([]*backup.Handler{s.level}, s.chunks...)
}

// TrackedFiles lists the files this session may modify, in restore order.
func (s *Session) TrackedFiles() []TrackedFile {
	return lo.Map(s.handlers(), func(h *backup.Handler, _ int) TrackedFile {
		return TrackedFile{Role: h.Role(), Path: h.Path(), BackupPath: h.BackupPath(), BackedUp: h.BackedUp()}
	})
}

func checkDimension(dim Dimension) error {
	if !dim.IsValid() {
		return shared.NewDomainErrorf(shared.ErrCodeUnknownDimension, "unknown dimension %d", int(dim))
	}
	return nil
}

// SetForcedChunks replaces the force-loaded chunk list of a dimension. The
// whole chunks.dat file is rewritten.
func (s *Session) SetForcedChunks(chunks []shared.ChunkPos, dim Dimension) error {
	if err := checkDimension(dim); err != nil {
		return err
	}
	h := s.chunks[dim]
	if err := h.Backup(); err != nil {
		return err
	}

	packed := lo.Map(chunks, func(c shared.ChunkPos, _ int) int64 { return c.Pack() })
	root := &nbt.Root{Tag: nbt.NewCompound(
		nbt.Entry{Name: forcedDataKey, Value: nbt.NewCompound(
			nbt.Entry{Name: forcedKey, Value: nbt.LongArray(packed)},
		)},
	)}

	path := h.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return shared.ErrIOf(err, "mkdir", filepath.Dir(path))
	}
	if err := s.writeTree(path, root, nbt.CompressionGzip, 0o644); err != nil {
		return err
	}

	s.log.Info("Set forced chunks",
		zap.Stringer("dimension", dim),
		zap.Int("count", len(chunks)),
	)
	return nil
}

// ForcedChunks reads back the force-loaded chunk list of a dimension. A
// missing chunks.dat means no chunks are forced.
func (s *Session) ForcedChunks(dim Dimension) ([]shared.ChunkPos, error) {
	if err := checkDimension(dim); err != nil {
		return nil, err
	}
	path := s.chunksPath(dim)
	root, _, err := s.readTree(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tag, err := nbt.Lookup(root.Tag, forcedDataKey, forcedKey)
	if err != nil {
		return nil, shared.ErrMalformedMetadata(err, path)
	}
	packed, ok := tag.(nbt.LongArray)
	if !ok {
		return nil, shared.ErrMalformedMetadata(fmt.Errorf("%s is %s", forcedKey, tag.Type()), path)
	}
	return lo.Map([]int64(packed), func(v int64, _ int) shared.ChunkPos { return shared.UnpackChunkPos(v) }), nil
}

// SetSpawnChunk moves the world spawn into the given chunk.
func (s *Session) SetSpawnChunk(chunk shared.ChunkPos) error {
	return s.SetSpawn(chunk.SpawnPoint())
}

// SetSpawn sets the world spawn to an absolute block position. Only the
// three spawn fields of level.dat change; everything else is written back as
// it was read, in the same container format.
func (s *Session) SetSpawn(pos shared.BlockPos) error {
	if err := s.level.Backup(); err != nil {
		return err
	}
	s.log.Debug("Setting spawn", zap.Stringer("spawn", pos))

	path := s.levelPath()
	root, comp, err := s.readTree(path)
	if err != nil {
		return err
	}
	s.log.Debug("Read level data", zap.Strings("fields", root.Compound().Keys()))

	edited, err := nbt.WithUpdatedLeaves(root.Tag, []string{levelDataKey},
		nbt.Entry{Name: "SpawnX", Value: nbt.Int(pos.X)},
		nbt.Entry{Name: "SpawnY", Value: nbt.Int(pos.Y)},
		nbt.Entry{Name: "SpawnZ", Value: nbt.Int(pos.Z)},
	)
	if err != nil {
		return shared.ErrMalformedMetadata(err, path)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := s.writeTree(path, &nbt.Root{Name: root.Name, Tag: edited}, comp, perm); err != nil {
		return err
	}

	s.log.Info("Set spawn", zap.Stringer("spawn", pos))
	return nil
}

// Spawn reads the current world spawn from level.dat.
func (s *Session) Spawn() (shared.BlockPos, error) {
	path := s.levelPath()
	root, _, err := s.readTree(path)
	if err != nil {
		return shared.BlockPos{}, err
	}

	var xyz [3]int32
	for i, key := range []string{"SpawnX", "SpawnY", "SpawnZ"} {
		tag, err := nbt.Lookup(root.Tag, levelDataKey, key)
		if err != nil {
			return shared.BlockPos{}, shared.ErrMalformedMetadata(err, path)
		}
		v, ok := tag.(nbt.Int)
		if !ok {
			return shared.BlockPos{}, shared.ErrMalformedMetadata(fmt.Errorf("%s is %s", key, tag.Type()), path)
		}
		xyz[i] = int32(v)
	}
	return shared.NewBlockPos(xyz[0], xyz[1], xyz[2]), nil
}

// AvailableChunks lists the populated chunk slots of a region file, in
// coordinates local to that region. Missing or unreadable files yield an
// empty sequence; unreadable ones are logged.
func (s *Session) AvailableChunks(pos shared.RegionPos, dim Dimension) iter.Seq[shared.LocalChunkPos] {
	if err := checkDimension(dim); err != nil {
		s.log.Warn("Ignoring region query", zap.Error(err))
		return func(func(shared.LocalChunkPos) bool) {}
	}
	return s.scanners[dim].Chunks(pos)
}

// ChunkInfo tells where a world chunk is stored and whether its region file
// holds data for it.
type ChunkInfo struct {
	Chunk   shared.ChunkPos      `json:"chunk"`
	Region  shared.RegionPos     `json:"region"`
	Local   shared.LocalChunkPos `json:"local"`
	File    string               `json:"file"`
	Present bool                 `json:"present"`
	Sectors uint8                `json:"sectors"`
}

// LocateChunk resolves a world chunk to its region file and slot. Unreadable
// region files count as empty, as in AvailableChunks.
func (s *Session) LocateChunk(chunk shared.ChunkPos, dim Dimension) (ChunkInfo, error) {
	if err := checkDimension(dim); err != nil {
		return ChunkInfo{}, err
	}
	sc := s.scanners[dim]
	loc := sc.Locate(chunk)
	return ChunkInfo{
		Chunk:   chunk,
		Region:  chunk.Region(),
		Local:   chunk.Local(),
		File:    sc.Path(chunk.Region()),
		Present: loc.Present(),
		Sectors: loc.Sectors,
	}, nil
}

// AvailableWorldChunks is AvailableChunks with every slot converted back to
// world chunk coordinates.
func (s *Session) AvailableWorldChunks(pos shared.RegionPos, dim Dimension) []shared.ChunkPos {
	var out []shared.ChunkPos
	for local := range s.AvailableChunks(pos, dim) {
		out = append(out, local.World(pos))
	}
	return out
}

// AvailableChunksList is AvailableChunks collected into a slice.
func (s *Session) AvailableChunksList(regionX, regionZ int32, dim Dimension) []shared.LocalChunkPos {
	return slices.Collect(s.AvailableChunks(shared.NewRegionPos(regionX, regionZ), dim))
}

// GenerateSpawnpoints returns spawn chunks covering a rectangle of chunks.
// See spawngrid.Generate.
func GenerateSpawnpoints(startX, startZ, width, height, increment int) ([]shared.ChunkPos, error) {
	return spawngrid.Generate(startX, startZ, width, height, increment)
}

// ResetChanges restores every tracked file, level.dat first. A failure does
// not stop the remaining restores; all failures are returned together.
func (s *Session) ResetChanges() error {
	var errs []error
	for _, h := range s.handlers() {
		if err := h.Restore(); err != nil {
			s.log.Error("Failed to restore file", zap.String("path", h.Path()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		s.log.Info("World changes reset")
		return nil
	}
	return shared.WrapDomainError(errors.Join(errs...), shared.ErrCodeRestoreFailed,
		fmt.Sprintf("%d of %d files could not be restored", len(errs), len(s.handlers())))
}

func (s *Session) readTree(path string) (*nbt.Root, nbt.Compression, error) {
	root, comp, err := nbt.ReadFile(path)
	switch {
	case err == nil:
		return root, comp, nil
	case errors.Is(err, nbt.ErrMalformed):
		return nil, comp, shared.ErrMalformedMetadata(err, path)
	default:
		return nil, comp, shared.ErrIOf(err, "read", path)
	}
}

func (s *Session) writeTree(path string, root *nbt.Root, comp nbt.Compression, perm os.FileMode) error {
	_, err := backup.WriteAtomic(path, perm, func(w io.Writer) error {
		return nbt.Encode(w, root, comp)
	}, false)
	return err
}
