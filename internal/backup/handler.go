// Package backup keeps a pristine copy of a world file for the lifetime of an
// editing session so every change can be rolled back.
package backup

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/filehash"
	"github.com/danghamo/mlg/pkg/logger"
)

// DefaultSuffix is appended to a file's name to form its backup path.
const DefaultSuffix = ".mlg-backup"

// absentSuffix marks a file that did not exist when it was backed up.
const absentSuffix = ".absent"

// ConflictPolicy decides what happens when a backup from an unfinished
// session is found while constructing a handler.
type ConflictPolicy string

const (
	ConflictFail    ConflictPolicy = "fail"
	ConflictResume  ConflictPolicy = "resume"
	ConflictDiscard ConflictPolicy = "discard"
)

// IsValid checks if the policy is one of the known values
func (p ConflictPolicy) IsValid() bool {
	return p == ConflictFail || p == ConflictResume || p == ConflictDiscard
}

type options struct {
	suffix string
	policy ConflictPolicy
	verify bool
}

// Option configures a Handler.
type Option func(*options)

// WithSuffix changes the backup file suffix.
func WithSuffix(suffix string) Option {
	return func(o *options) {
		if suffix != "" {
			o.suffix = suffix
		}
	}
}

// WithConflictPolicy sets how stale backups are treated.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.policy = p
		}
	}
}

// WithVerify enables re-hashing every copy before it is renamed into place.
func WithVerify(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

// Handler backs up and restores a single file. It is not safe for concurrent use.
type Handler struct {
	role       string
	path       string
	backupPath string
	absentPath string

	backedUp bool
	existed  bool
	digest   filehash.Digest
	// createdDir is the outermost directory Backup had to create for an
	// absent file, or empty.
	createdDir string

	opts options
	log  *logger.Logger
}

// NewHandler creates a handler for path. A leftover backup artifact is
// resolved according to the conflict policy; with ConflictFail it yields an
// error matching shared.ErrBackupConflict.
func NewHandler(role, path string, log *logger.Logger, opts ...Option) (*Handler, error) {
	o := options{suffix: DefaultSuffix, policy: ConflictFail, verify: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.policy.IsValid() {
		return nil, shared.ErrInvalidArgumentf("unknown stale backup policy %q", o.policy)
	}
	if log == nil {
		log = logger.NewNop()
	}

	h := &Handler{
		role:       role,
		path:       path,
		backupPath: path + o.suffix,
		absentPath: path + o.suffix + absentSuffix,
		opts:       o,
		log:        log.WithComponent("backup").WithField("role", role).WithPath(path),
	}

	hasBackup, err := exists(h.backupPath)
	if err != nil {
		return nil, shared.ErrIOf(err, "stat", h.backupPath)
	}
	hasMarker, err := exists(h.absentPath)
	if err != nil {
		return nil, shared.ErrIOf(err, "stat", h.absentPath)
	}
	if !hasBackup && !hasMarker {
		return h, nil
	}

	switch o.policy {
	case ConflictResume:
		if err := h.resume(hasBackup); err != nil {
			return nil, err
		}
		h.log.Info("Resuming backup from unfinished session", zap.Bool("file_existed", h.existed))
	case ConflictDiscard:
		if err := removeIfExists(h.backupPath); err != nil {
			return nil, shared.ErrIOf(err, "remove", h.backupPath)
		}
		if err := removeIfExists(h.absentPath); err != nil {
			return nil, shared.ErrIOf(err, "remove", h.absentPath)
		}
		h.log.Warn("Discarded backup from unfinished session")
	default:
		stale := h.backupPath
		if !hasBackup {
			stale = h.absentPath
		}
		return nil, shared.NewDomainErrorf(shared.ErrCodeBackupConflict,
			"backup artifact %s from an unfinished session exists; restore or remove it first", stale)
	}

	return h, nil
}

// resume adopts the artifacts left by an unfinished session.
func (h *Handler) resume(hasBackup bool) error {
	h.backedUp = true
	h.existed = hasBackup
	if hasBackup {
		digest, err := filehash.Sum(h.backupPath)
		if err != nil {
			return shared.ErrIOf(err, "hash", h.backupPath)
		}
		h.digest = digest
		return nil
	}
	created, err := readMarker(h.absentPath)
	if err != nil {
		return shared.ErrIOf(err, "read", h.absentPath)
	}
	h.createdDir = created
	return nil
}

// Role returns the logical name of the tracked file
func (h *Handler) Role() string { return h.role }

// Path returns the live file path
func (h *Handler) Path() string { return h.path }

// BackupPath returns where the pristine copy is kept
func (h *Handler) BackupPath() string { return h.backupPath }

// BackedUp reports whether a backup is held for this session
func (h *Handler) BackedUp() bool { return h.backedUp }

// Backup copies the live file aside unless that already happened this
// session. A missing live file is recorded so Restore removes whatever gets
// created in its place.
func (h *Handler) Backup() error {
	if h.backedUp {
		return nil
	}

	info, err := os.Stat(h.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		parent := filepath.Dir(h.path)
		created, err := outermostMissing(parent)
		if err != nil {
			return shared.ErrIOf(err, "stat", parent)
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return shared.ErrIOf(err, "mkdir", parent)
		}
		if err := writeMarker(h.absentPath, created); err != nil {
			return err
		}
		h.backedUp = true
		h.existed = false
		h.createdDir = created
		h.log.Debug("File absent at backup time", zap.String("created_dir", created))
		return nil
	case err != nil:
		return shared.ErrIOf(err, "stat", h.path)
	case info.IsDir():
		return shared.ErrIOf(errors.New("is a directory"), "backup", h.path)
	}

	digest, err := copyAtomic(h.path, h.backupPath, info.Mode().Perm(), h.opts.verify)
	if err != nil {
		return err
	}

	h.backedUp = true
	h.existed = true
	h.digest = digest
	h.log.Debug("Backed up file", zap.String("backup", h.backupPath), zap.String("digest", string(digest)))
	return nil
}

// Restore puts the pristine copy back and forgets the backup. It does nothing
// when no backup is held.
func (h *Handler) Restore() error {
	if !h.backedUp {
		return nil
	}

	if h.existed {
		current, err := filehash.Sum(h.backupPath)
		if err != nil {
			return shared.ErrIOf(err, "hash", h.backupPath)
		}
		if current != h.digest {
			return shared.NewDomainErrorf(shared.ErrCodeBackupCorrupted,
				"backup %s changed since it was taken (hash %s, expected %s)", h.backupPath, current, h.digest)
		}

		perm := os.FileMode(0o644)
		if info, err := os.Stat(h.backupPath); err == nil {
			perm = info.Mode().Perm()
		}
		if _, err := copyAtomic(h.backupPath, h.path, perm, h.opts.verify); err != nil {
			return err
		}
		if err := removeIfExists(h.backupPath); err != nil {
			return shared.ErrIOf(err, "remove", h.backupPath)
		}
	} else {
		if err := removeIfExists(h.path); err != nil {
			return shared.ErrIOf(err, "remove", h.path)
		}
		if err := removeIfExists(h.absentPath); err != nil {
			return shared.ErrIOf(err, "remove", h.absentPath)
		}
		h.removeCreatedDirs()
	}

	h.backedUp = false
	h.digest = ""
	h.createdDir = ""
	h.log.Info("Restored file", zap.Bool("file_existed", h.existed))
	return nil
}

// removeCreatedDirs removes the directories Backup created, innermost first.
// Directories that are no longer empty are kept.
func (h *Handler) removeCreatedDirs() {
	if h.createdDir == "" {
		return
	}
	for dir := filepath.Dir(h.path); within(dir, h.createdDir); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			h.log.Debug("Keeping directory", zap.String("dir", dir), zap.Error(err))
			return
		}
	}
}

func within(dir, root string) bool {
	return dir == root || strings.HasPrefix(dir, root+string(filepath.Separator))
}

// outermostMissing returns the highest ancestor of dir, dir included, that
// does not exist yet, or "" when dir exists.
func outermostMissing(dir string) (string, error) {
	missing := ""
	for {
		ok, err := exists(dir)
		if err != nil {
			return "", err
		}
		if ok {
			return missing, nil
		}
		missing = dir
		parent := filepath.Dir(dir)
		if parent == dir {
			return missing, nil
		}
		dir = parent
	}
}

// writeMarker records an absent file. The marker holds the created
// directory relative to the marker's own directory.
func writeMarker(path, createdDir string) error {
	rel := ""
	if createdDir != "" {
		r, err := filepath.Rel(filepath.Dir(path), createdDir)
		if err != nil {
			return shared.ErrIOf(err, "marker", path)
		}
		rel = filepath.ToSlash(r)
	}
	_, err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, rel)
		return err
	}, false)
	return err
}

func readMarker(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	rel := strings.TrimSpace(string(b))
	if rel == "" {
		return "", nil
	}
	return filepath.Clean(filepath.Join(filepath.Dir(path), filepath.FromSlash(rel))), nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
