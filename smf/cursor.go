package smf

// maxVLQBytes caps variable-length quantities at 28 bits.
const maxVLQBytes = 4

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 1<<28 - 1

// Cursor reads a byte slice front to back with one byte of lookahead.
type Cursor struct {
	data []byte
	pos  int
	base int // absolute offset of data[0]
}

// NewCursor creates a cursor positioned at the start of data
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the absolute position of the next unread byte
func (c *Cursor) Offset() int {
	return c.base + c.pos
}

// Remaining returns how many bytes are left
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Sub splits off the next n bytes (fewer if the data runs out) as their own
// cursor and moves this cursor past them. Offsets stay absolute.
func (c *Cursor) Sub(n int) (sub *Cursor, short bool) {
	if n < 0 || n > c.Remaining() {
		n = c.Remaining()
		short = true
	}
	sub = &Cursor{data: c.data[c.pos : c.pos+n], base: c.Offset()}
	c.pos += n
	return sub, short
}

// Peek returns the next byte without consuming it
func (c *Cursor) Peek() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, c.eos()
	}
	return c.data[c.pos], nil
}

// Advance consumes one byte
func (c *Cursor) Advance() (byte, error) {
	b, err := c.Peek()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

// RewindOne steps back over the byte last consumed by Advance.
// Running-status detection is the only caller.
func (c *Cursor) RewindOne() {
	if c.pos > 0 {
		c.pos--
	}
}

// ReadU8 reads one byte
func (c *Cursor) ReadU8() (uint8, error) {
	return c.Advance()
}

// ReadU16 reads a big-endian uint16
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadU32 reads a big-endian uint32
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// ReadBytes returns the next n bytes. The slice aliases the cursor's data.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, c.eos()
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip discards n bytes
func (c *Cursor) Skip(n int) error {
	_, err := c.ReadBytes(n)
	return err
}

// ReadVLQ decodes a variable-length quantity: 7 bits per byte, most
// significant group first, continuing while the top bit is set.
func (c *Cursor) ReadVLQ() (uint32, error) {
	start := c.Offset()
	var v uint32
	for i := 0; i < maxVLQBytes; i++ {
		b, err := c.Advance()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, &ParseError{Kind: MalformedVLQ, Offset: start, Track: -1}
}

func (c *Cursor) eos() error {
	return &ParseError{Kind: UnexpectedEndOfStream, Offset: c.Offset(), Track: -1}
}

// EncodeVLQ is the inverse of ReadVLQ. Values above MaxVLQ are truncated to 28 bits.
func EncodeVLQ(v uint32) []byte {
	v &= MaxVLQ
	buf := []byte{byte(v & 0x7F)}
	for v >>= 7; v > 0; v >>= 7 {
		buf = append([]byte{byte(v&0x7F) | 0x80}, buf...)
	}
	return buf
}
