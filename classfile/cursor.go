package classfile

import (
	"encoding/binary"
	"fmt"
)

// cursor reads big-endian primitives from an immutable buffer. The first
// failure is kept in err and every later read is a no-op returning zero, so
// callers can read a run of fields and check err once.
type cursor struct {
	data []byte
	pos  int
	err  error
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

// need records ErrUnexpectedEOF when fewer than n bytes are left. The position
// is left where it was.
func (c *cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if n < 0 || c.remaining() < n {
		c.err = &DecodeError{
			Err: ErrUnexpectedEOF,
			Pos: c.pos,
			Msg: fmt.Sprintf("need %d bytes, have %d", n, c.remaining()),
		}
		return false
	}
	return true
}

func (c *cursor) readU1() uint8 {
	if !c.need(1) {
		return 0
	}
	v := c.data[c.pos]
	c.pos++
	return v
}

func (c *cursor) readU2() uint16 {
	if !c.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) readU4() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v
}

// readBytes returns a copy so decoded values never alias the caller's buffer.
func (c *cursor) readBytes(n int) []byte {
	if !c.need(n) {
		return nil
	}
	buf := make([]byte, n)
	copy(buf, c.data[c.pos:c.pos+n])
	c.pos += n
	return buf
}

// sub carves the next n bytes into a child cursor whose offsets are still
// reported relative to the whole class file.
func (c *cursor) sub(n int) *cursor {
	start := c.pos
	if !c.need(n) {
		return nil
	}
	c.pos += n
	return &cursor{data: c.data[:start+n], pos: start}
}
