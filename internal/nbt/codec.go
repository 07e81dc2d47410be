package nbt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformed is matched by every decode failure caused by the bytes
// themselves rather than by the underlying reader.
var ErrMalformed = errors.New("malformed tree")

const (
	// maxDepth bounds compound/list nesting.
	maxDepth = 512
	// maxArrayLen bounds the element count of a single array or list.
	maxArrayLen = 1 << 26
)

// ReadRoot decodes a single named tag from r. The stream must already be
// decompressed; see Decode for container handling.
func ReadRoot(r io.Reader) (*Root, error) {
	d := decoder{r: bufio.NewReader(r)}

	t, err := d.readType()
	if err != nil {
		return nil, err
	}
	if t == TagEnd {
		return nil, fmt.Errorf("%w: root is TAG_End", ErrMalformed)
	}
	name, err := d.readString()
	if err != nil {
		return nil, err
	}
	tag, err := d.readPayload(t, 0)
	if err != nil {
		return nil, fmt.Errorf("reading root %q: %w", name, err)
	}
	return &Root{Name: name, Tag: tag}, nil
}

// WriteRoot encodes root to w.
func WriteRoot(w io.Writer, root *Root) error {
	if root == nil || root.Tag == nil {
		return fmt.Errorf("%w: nothing to write", ErrMalformed)
	}
	bw := bufio.NewWriter(w)
	e := encoder{w: bw}
	if err := e.writeNamed(root.Name, root.Tag, 0); err != nil {
		return err
	}
	return bw.Flush()
}

type decoder struct {
	r   *bufio.Reader
	buf [8]byte
}

func (d *decoder) full(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return nil, eofIsMalformed(err)
	}
	return d.buf[:n], nil
}

func (d *decoder) readType() (TagType, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, eofIsMalformed(err)
	}
	t := TagType(b)
	if !t.IsValid() {
		return 0, fmt.Errorf("%w: unknown tag type %d", ErrMalformed, b)
	}
	return t, nil
}

func (d *decoder) readString() (string, error) {
	b, err := d.full(2)
	if err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(b))
	if n == 0 {
		return "", nil
	}
	s := make([]byte, n)
	if _, err := io.ReadFull(d.r, s); err != nil {
		return "", eofIsMalformed(err)
	}
	return string(s), nil
}

func (d *decoder) readLen() (int, error) {
	b, err := d.full(4)
	if err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(b))
	if n < 0 || n > maxArrayLen {
		return 0, fmt.Errorf("%w: invalid length %d", ErrMalformed, n)
	}
	return int(n), nil
}

func (d *decoder) readPayload(t TagType, depth int) (Tag, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}

	switch t {
	case TagByte:
		b, err := d.full(1)
		if err != nil {
			return nil, err
		}
		return Byte(int8(b[0])), nil
	case TagShort:
		b, err := d.full(2)
		if err != nil {
			return nil, err
		}
		return Short(int16(binary.BigEndian.Uint16(b))), nil
	case TagInt:
		b, err := d.full(4)
		if err != nil {
			return nil, err
		}
		return Int(int32(binary.BigEndian.Uint32(b))), nil
	case TagLong:
		b, err := d.full(8)
		if err != nil {
			return nil, err
		}
		return Long(int64(binary.BigEndian.Uint64(b))), nil
	case TagFloat:
		b, err := d.full(4)
		if err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case TagDouble:
		b, err := d.full(8)
		if err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	case TagString:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case TagByteArray:
		n, err := d.readLen()
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		if _, err := io.ReadFull(d.r, out); err != nil {
			return nil, eofIsMalformed(err)
		}
		return ByteArray(out), nil
	case TagIntArray:
		n, err := d.readLen()
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		if err := binary.Read(d.r, binary.BigEndian, out); err != nil {
			return nil, eofIsMalformed(err)
		}
		return IntArray(out), nil
	case TagLongArray:
		n, err := d.readLen()
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		if err := binary.Read(d.r, binary.BigEndian, out); err != nil {
			return nil, eofIsMalformed(err)
		}
		return LongArray(out), nil
	case TagList:
		elem, err := d.readType()
		if err != nil {
			return nil, err
		}
		n, err := d.readLen()
		if err != nil {
			return nil, err
		}
		if elem == TagEnd && n > 0 {
			return nil, fmt.Errorf("%w: list of %d TAG_End elements", ErrMalformed, n)
		}
		items := make([]Tag, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			item, err := d.readPayload(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			items = append(items, item)
		}
		return &List{Elem: elem, Items: items}, nil
	case TagCompound:
		c := NewCompound()
		for {
			ct, err := d.readType()
			if err != nil {
				return nil, err
			}
			if ct == TagEnd {
				return c, nil
			}
			name, err := d.readString()
			if err != nil {
				return nil, err
			}
			v, err := d.readPayload(ct, depth+1)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			if _, dup := c.Get(name); dup {
				return nil, fmt.Errorf("%w: duplicate field %q", ErrMalformed, name)
			}
			c.put(Entry{Name: name, Value: v})
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %s", ErrMalformed, t)
	}
}

func eofIsMalformed(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
	}
	return err
}

type encoder struct {
	w   *bufio.Writer
	buf [8]byte
}

func (e *encoder) write(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func (e *encoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes is too long", ErrMalformed, len(s))
	}
	binary.BigEndian.PutUint16(e.buf[:2], uint16(len(s)))
	if err := e.write(e.buf[:2]); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

func (e *encoder) writeLen(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: %d elements is too many", ErrMalformed, n)
	}
	binary.BigEndian.PutUint32(e.buf[:4], uint32(n))
	return e.write(e.buf[:4])
}

func (e *encoder) writeNamed(name string, t Tag, depth int) error {
	if err := e.w.WriteByte(byte(t.Type())); err != nil {
		return err
	}
	if err := e.writeString(name); err != nil {
		return err
	}
	return e.writePayload(t, depth)
}

func (e *encoder) writePayload(t Tag, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}

	switch v := t.(type) {
	case Byte:
		return e.w.WriteByte(byte(v))
	case Short:
		binary.BigEndian.PutUint16(e.buf[:2], uint16(v))
		return e.write(e.buf[:2])
	case Int:
		binary.BigEndian.PutUint32(e.buf[:4], uint32(v))
		return e.write(e.buf[:4])
	case Long:
		binary.BigEndian.PutUint64(e.buf[:8], uint64(v))
		return e.write(e.buf[:8])
	case Float:
		binary.BigEndian.PutUint32(e.buf[:4], math.Float32bits(float32(v)))
		return e.write(e.buf[:4])
	case Double:
		binary.BigEndian.PutUint64(e.buf[:8], math.Float64bits(float64(v)))
		return e.write(e.buf[:8])
	case String:
		return e.writeString(string(v))
	case ByteArray:
		if err := e.writeLen(len(v)); err != nil {
			return err
		}
		return e.write(v)
	case IntArray:
		if err := e.writeLen(len(v)); err != nil {
			return err
		}
		return binary.Write(e.w, binary.BigEndian, []int32(v))
	case LongArray:
		if err := e.writeLen(len(v)); err != nil {
			return err
		}
		return binary.Write(e.w, binary.BigEndian, []int64(v))
	case *List:
		elem := v.Elem
		if !elem.IsValid() {
			return fmt.Errorf("%w: list of %s", ErrMalformed, elem)
		}
		if err := e.w.WriteByte(byte(elem)); err != nil {
			return err
		}
		if err := e.writeLen(len(v.Items)); err != nil {
			return err
		}
		for i, item := range v.Items {
			if item == nil || item.Type() != elem {
				return fmt.Errorf("%w: list element %d is not %s", ErrMalformed, i, elem)
			}
			if err := e.writePayload(item, depth+1); err != nil {
				return err
			}
		}
		return nil
	case *Compound:
		for name, child := range v.All() {
			if child == nil {
				return fmt.Errorf("%w: field %q has no value", ErrMalformed, name)
			}
			if err := e.writeNamed(name, child, depth+1); err != nil {
				return err
			}
		}
		return e.w.WriteByte(byte(TagEnd))
	default:
		return fmt.Errorf("%w: cannot encode %T", ErrMalformed, t)
	}
}
