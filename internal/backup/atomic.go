package backup

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/filehash"
)

// tempPath returns a unique sibling of dst so the final rename never crosses
// a filesystem boundary.
func tempPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-"+uuid.NewString())
}

// copyAtomic copies src over dst through a temporary file and a rename, so dst
// is either the old content or the complete new content. It returns the
// digest of the copied bytes.
func copyAtomic(src, dst string, perm os.FileMode, verify bool) (filehash.Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", shared.ErrIOf(err, "open", src)
	}
	defer in.Close()

	return WriteAtomic(dst, perm, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}, verify)
}

// WriteAtomic writes dst by calling fill with a temporary file and renaming
// it into place once fill, fsync and close all succeed. With verify set the
// temporary file is re-read and must hash to the digest of what fill wrote.
func WriteAtomic(dst string, perm os.FileMode, fill func(io.Writer) error, verify bool) (filehash.Digest, error) {
	tmp := tempPath(dst)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return "", shared.ErrIOf(err, "create", tmp)
	}

	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	h := filehash.New()
	if err := fill(io.MultiWriter(f, h)); err != nil {
		return "", shared.ErrIOf(err, "write", tmp)
	}
	if err := f.Sync(); err != nil {
		return "", shared.ErrIOf(err, "sync", tmp)
	}
	if err := f.Close(); err != nil {
		return "", shared.ErrIOf(err, "close", tmp)
	}
	digest := filehash.FromHash(h)

	if verify {
		onDisk, err := filehash.Sum(tmp)
		if err != nil {
			_ = os.Remove(tmp)
			committed = true
			return "", shared.ErrIOf(err, "verify", tmp)
		}
		if onDisk != digest {
			_ = os.Remove(tmp)
			committed = true
			return "", shared.NewDomainErrorf(shared.ErrCodeBackupCorrupted,
				"copy of %s hashed to %s, expected %s", dst, onDisk, digest)
		}
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		committed = true
		return "", shared.ErrIOf(err, "rename", dst)
	}
	committed = true
	syncDir(filepath.Dir(dst))
	return digest, nil
}

// syncDir flushes a directory entry after a rename. Not every platform
// supports it, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
