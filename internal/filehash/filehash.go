// Package filehash fingerprints files so copies can be checked against their source.
package filehash

import (
	"encoding/hex"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Digest is a hex-encoded BLAKE2b-256 sum.
type Digest string

// New returns the hash used for all digests in this package.
func New() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	return h
}

// Sum hashes the file at path.
func Sum(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return SumReader(f)
}

// SumReader hashes everything read from r.
func SumReader(r io.Reader) (Digest, error) {
	h := New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return FromHash(h), nil
}

// FromHash formats the current state of h.
func FromHash(h hash.Hash) Digest {
	return Digest(hex.EncodeToString(h.Sum(nil)))
}
