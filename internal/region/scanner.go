package region

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/pkg/logger"
)

// DefaultExtension is the file extension of anvil region files.
const DefaultExtension = "mca"

// Scanner lists populated chunk slots of the region files in one directory.
type Scanner struct {
	dir string
	ext string
	log *logger.Logger
}

// NewScanner creates a scanner for the region files in dir. An empty ext
// selects DefaultExtension.
func NewScanner(dir, ext string, log *logger.Logger) *Scanner {
	if ext == "" {
		ext = DefaultExtension
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scanner{dir: dir, ext: ext, log: log.WithComponent("region")}
}

// Path returns the file name for a region.
func (s *Scanner) Path(pos shared.RegionPos) string {
	return filepath.Join(s.dir, pos.FileName(s.ext))
}

// ReadHeader reads the location table of one region. A missing file or one
// shorter than a full table yields an empty header; other failures are
// returned.
func (s *Scanner) ReadHeader(pos shared.RegionPos) (Header, error) {
	f, err := os.Open(s.Path(pos))
	if errors.Is(err, fs.ErrNotExist) {
		return Header{}, nil
	}
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil
		}
		return Header{}, err
	}
	return DecodeHeader(buf), nil
}

// Chunks returns the populated slots of a region as a lazy sequence. The
// file is read each time the sequence is iterated. Read failures are logged
// as warnings and produce an empty sequence.
func (s *Scanner) Chunks(pos shared.RegionPos) iter.Seq[shared.LocalChunkPos] {
	return func(yield func(shared.LocalChunkPos) bool) {
		h, ok := s.header(pos)
		if !ok {
			return
		}
		for c := range h.Present() {
			if !yield(c) {
				return
			}
		}
	}
}

// Locate returns the location table entry of a world chunk. An unreadable
// region file is logged and reported as an empty slot.
func (s *Scanner) Locate(chunk shared.ChunkPos) Location {
	h, ok := s.header(chunk.Region())
	if !ok {
		return Location{}
	}
	return h.At(chunk.Local())
}

func (s *Scanner) header(pos shared.RegionPos) (Header, bool) {
	h, err := s.ReadHeader(pos)
	if err != nil {
		s.log.Warn("Could not read region file, assuming it contains no chunks",
			zap.String("path", s.Path(pos)),
			zap.Error(err),
		)
		return Header{}, false
	}
	s.log.Debug("Read region header",
		zap.String("path", s.Path(pos)),
		zap.Int("chunks", h.Count()),
	)
	return h, true
}
