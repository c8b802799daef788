package pcmsg

import "encoding/binary"

// headerSize is the fixed 32-bit header word: version (byte 0), type
// (byte 1), and two bytes of reserved padding.
const headerSize = 4

// seqSize is the width of the seq field that immediately follows the header.
const seqSize = 4

// Size returns the number of bytes Write needs to encode m.
func (m *Message) Size() int {
	n := headerSize + seqSize
	if m.typ.hasInstanceMap() {
		n += instanceMapSize(m.instMap)
	}
	return n
}

// Write encodes m into buf starting at off and returns the offset just past
// the encoded message. It returns 0, leaving buf untouched, if buf does not
// have m.Size() bytes available starting at off.
func (m *Message) Write(buf []byte, off int) int {
	if len(buf)-off < m.Size() {
		return 0
	}

	header := uint32(m.version) | uint32(m.typ)<<8
	binary.LittleEndian.PutUint32(buf[off:], header)
	off += headerSize

	binary.LittleEndian.PutUint32(buf[off:], m.seq)
	off += seqSize

	if m.typ.hasInstanceMap() {
		off = encodeInstanceMap(buf, off, m.instMap)
	}
	return off
}

// Read decodes a message from buf starting at off into m, replacing m's
// prior contents (any previously held instance map is released before the
// new one is allocated, so repeated decoding of the same buffer into the
// same Message is idempotent). It returns the offset just past the decoded
// message, or 0 on failure: insufficient bytes, an unsupported version, or
// a type outside {STATE, INSTALL, USER}.
func (m *Message) Read(buf []byte, off int) int {
	if len(buf)-off < headerSize+seqSize {
		return 0
	}

	header := binary.LittleEndian.Uint32(buf[off:])
	version := uint8(header)
	typ := Type(header >> 8)

	if version != wireVersion {
		return 0
	}
	if typ <= TypeNone || typ > TypeUser {
		return 0
	}

	newOff := off + headerSize
	seq := binary.LittleEndian.Uint32(buf[newOff:])
	newOff += seqSize

	var instMap map[MemberUUID]PInst
	if typ.hasInstanceMap() {
		decoded, afterMap, ok := decodeInstanceMap(buf, newOff)
		if !ok {
			return 0
		}
		instMap = decoded
		newOff = afterMap
	}

	m.version = version
	m.typ = typ
	m.seq = seq
	m.instMap = instMap
	return newOff
}
