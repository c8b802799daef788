package pcmsg

import (
	"bytes"
	"encoding/binary"
	"sort"
)

const (
	uuidSize    = 16
	viewIDSize  = uuidSize + 8 // UUID + int64 Seq
	pinstSize   = 4 + viewIDSize + 8
	entrySize   = uuidSize + pinstSize
	mapLenSize  = 4
)

// sortedKeys returns m's keys in ascending byte order, for a deterministic
// wire encoding (map iteration order in Go is randomized).
func sortedKeys(m map[MemberUUID]PInst) []MemberUUID {
	keys := make([]MemberUUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

func encodePInst(buf []byte, off int, p PInst) int {
	binary.LittleEndian.PutUint32(buf[off:], p.LastSeq)
	off += 4
	copy(buf[off:], p.LastPrim.UUID[:])
	off += uuidSize
	binary.LittleEndian.PutUint64(buf[off:], uint64(p.LastPrim.Seq))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], p.ToSeq)
	off += 8
	return off
}

func decodePInst(buf []byte, off int) (PInst, int) {
	var p PInst
	p.LastSeq = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	copy(p.LastPrim.UUID[:], buf[off:off+uuidSize])
	off += uuidSize
	p.LastPrim.Seq = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.ToSeq = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	return p, off
}

// instanceMapSize returns the number of bytes encodeInstanceMap needs to
// write m, including its length prefix.
func instanceMapSize(m map[MemberUUID]PInst) int {
	return mapLenSize + len(m)*entrySize
}

// encodeInstanceMap writes the length-prefixed, sorted-by-key instance map
// to buf starting at off. The caller must have already checked that buf has
// at least instanceMapSize(m) bytes remaining past off.
func encodeInstanceMap(buf []byte, off int, m map[MemberUUID]PInst) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(m)))
	off += mapLenSize
	for _, id := range sortedKeys(m) {
		copy(buf[off:], id[:])
		off += uuidSize
		off = encodePInst(buf, off, m[id])
	}
	return off
}

// decodeInstanceMap reads a length-prefixed instance map from buf starting
// at off. It reports ok == false on truncation, without partially applying
// any state to the caller.
func decodeInstanceMap(buf []byte, off int) (m map[MemberUUID]PInst, newOff int, ok bool) {
	if len(buf)-off < mapLenSize {
		return nil, 0, false
	}
	count := int(binary.LittleEndian.Uint32(buf[off:]))
	off += mapLenSize

	need := count * entrySize
	if need < 0 || len(buf)-off < need {
		return nil, 0, false
	}

	out := make(map[MemberUUID]PInst, count)
	for i := 0; i < count; i++ {
		var id MemberUUID
		copy(id[:], buf[off:off+uuidSize])
		off += uuidSize
		var p PInst
		p, off = decodePInst(buf, off)
		out[id] = p
	}
	return out, off, true
}
