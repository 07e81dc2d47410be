package nbt

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression is the container a tree is stored in on disk.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// DetectCompression inspects the first two bytes of a file.
func DetectCompression(head []byte) Compression {
	if len(head) < 2 {
		return CompressionNone
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		return CompressionGzip
	}
	// zlib: CM=8 in the low nibble and the header checksum divides by 31
	if head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return CompressionZlib
	}
	return CompressionNone
}

// Decode reads a tree in any supported container and reports which one it was.
func Decode(r io.Reader) (*Root, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && len(head) == 0 {
		return nil, CompressionNone, eofIsMalformed(err)
	}

	comp := DetectCompression(head)
	var src io.Reader = br
	switch comp {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, comp, fmt.Errorf("%w: gzip header: %w", ErrMalformed, err)
		}
		defer zr.Close()
		src = zr
	case CompressionZlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, comp, fmt.Errorf("%w: zlib header: %w", ErrMalformed, err)
		}
		defer zr.Close()
		src = zr
	}

	root, err := ReadRoot(src)
	if err != nil {
		return nil, comp, err
	}
	return root, comp, nil
}

// Encode writes root to w wrapped in the given container.
func Encode(w io.Writer, root *Root, comp Compression) error {
	switch comp {
	case CompressionNone:
		return WriteRoot(w, root)
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		if err := WriteRoot(zw, root); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	case CompressionZlib:
		zw := zlib.NewWriter(w)
		if err := WriteRoot(zw, root); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("unknown compression %s", comp)
	}
}

// ReadFile decodes the tree stored at path.
func ReadFile(path string) (*Root, Compression, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CompressionNone, err
	}
	defer f.Close()
	return Decode(f)
}
