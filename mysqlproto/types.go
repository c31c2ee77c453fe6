package mysqlproto

import "fmt"

// Builder accumulates a single packet payload using the wire protocol's
// primitive encodings. The zero value is ready to use.
type Builder struct {
	buf []byte
}

// Bytes returns the accumulated payload.
func (b *Builder) Bytes() []byte { return b.buf }

// WriteByte appends a single raw byte. The error is always nil; the
// signature matches io.ByteWriter.
func (b *Builder) WriteByte(v byte) error {
	b.buf = append(b.buf, v)
	return nil
}

// WriteBytes appends raw bytes verbatim.
func (b *Builder) WriteBytes(p []byte) { b.buf = append(b.buf, p...) }

// WriteFixedInt appends a little-endian fixed-width integer of the given
// byte width (1, 2, 3, 4, 6, or 8).
func (b *Builder) WriteFixedInt(v uint64, width int) {
	for i := 0; i < width; i++ {
		b.buf = append(b.buf, byte(v>>(8*uint(i))))
	}
}

// WriteLenEncInt appends a length-encoded integer.
func (b *Builder) WriteLenEncInt(v uint64) {
	switch {
	case v < 0xfb:
		b.buf = append(b.buf, byte(v))
	case v <= 0xffff:
		b.buf = append(b.buf, 0xfc)
		b.WriteFixedInt(v, 2)
	case v <= 0xffffff:
		b.buf = append(b.buf, 0xfd)
		b.WriteFixedInt(v, 3)
	default:
		b.buf = append(b.buf, 0xfe)
		b.WriteFixedInt(v, 8)
	}
}

// WriteLenEncString appends a length-encoded string.
func (b *Builder) WriteLenEncString(s string) {
	b.WriteLenEncInt(uint64(len(s)))
	b.buf = append(b.buf, s...)
}

// WriteLenEncStringNull appends the SQL-NULL marker for a row value.
func (b *Builder) WriteLenEncStringNull() {
	b.buf = append(b.buf, NullLengthEncoded)
}

// WriteNulString appends a null-terminated string.
func (b *Builder) WriteNulString(s string) {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
}

// Decoder reads primitive values out of a packet payload, left to right.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps a packet payload for sequential decoding.
func NewDecoder(payload []byte) *Decoder {
	return &Decoder{buf: payload}
}

// Remaining returns the bytes not yet consumed.
func (d *Decoder) Remaining() []byte { return d.buf[d.pos:] }

// Len reports how many bytes are left.
func (d *Decoder) Len() int { return len(d.buf) - d.pos }

// ReadByte consumes and returns one raw byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("read byte: short packet")
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

// ReadBytes consumes and returns n raw bytes.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("read %d bytes: short packet", n)
	}
	v := d.buf[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

// ReadFixedInt consumes a little-endian fixed-width integer.
func (d *Decoder) ReadFixedInt(width int) (uint64, error) {
	b, err := d.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v, nil
}

// ReadLenEncInt consumes a length-encoded integer.
func (d *Decoder) ReadLenEncInt() (uint64, bool, error) {
	lead, err := d.ReadByte()
	if err != nil {
		return 0, false, err
	}
	switch {
	case lead < 0xfb:
		return uint64(lead), false, nil
	case lead == NullLengthEncoded:
		return 0, true, nil
	case lead == 0xfc:
		v, err := d.ReadFixedInt(2)
		return v, false, err
	case lead == 0xfd:
		v, err := d.ReadFixedInt(3)
		return v, false, err
	default: // 0xfe
		v, err := d.ReadFixedInt(8)
		return v, false, err
	}
}

// ReadLenEncString consumes a length-encoded string.
func (d *Decoder) ReadLenEncString() (string, bool, error) {
	n, isNull, err := d.ReadLenEncInt()
	if err != nil || isNull {
		return "", isNull, err
	}
	b, err := d.ReadBytes(int(n))
	if err != nil {
		return "", false, err
	}
	return string(b), false, nil
}

// ReadNulString consumes a null-terminated string.
func (d *Decoder) ReadNulString() (string, error) {
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("read null-terminated string: no terminator found")
}

// ReadRestAsString returns everything left in the payload as a string,
// such as the trailing message text of an ERR packet.
func (d *Decoder) ReadRestAsString() string {
	s := string(d.buf[d.pos:])
	d.pos = len(d.buf)
	return s
}
