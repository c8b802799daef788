package pcmsg

// wireVersion is the only version this codec accepts, both to encode and
// to decode. A future protocol bump would add a second accepted value here.
const wireVersion uint8 = 0

// Message is the primary-component membership/state-exchange message.
// The zero value is not usable directly; build one with NewStateMessage,
// NewInstallMessage, NewUserMessage, or by decoding with Read.
type Message struct {
	version uint8
	typ     Type
	seq     uint32
	instMap map[MemberUUID]PInst
}

// NewStateMessage returns a STATE message with an empty, non-nil instance
// map ready to be populated.
func NewStateMessage(seq uint32) *Message {
	return &Message{version: wireVersion, typ: TypeState, seq: seq, instMap: map[MemberUUID]PInst{}}
}

// NewInstallMessage returns an INSTALL message with an empty, non-nil
// instance map ready to be populated.
func NewInstallMessage(seq uint32) *Message {
	return &Message{version: wireVersion, typ: TypeInstall, seq: seq, instMap: map[MemberUUID]PInst{}}
}

// NewUserMessage returns a USER message, which never carries an instance
// map. The seq parameter is accepted but discarded: a USER message is
// always constructed with seq == 0. This mirrors the upstream constructor's
// behavior exactly rather than silently fixing what may or may not be a
// bug; callers must not rely on their seq argument surviving.
func NewUserMessage(_ uint32) *Message {
	return &Message{version: wireVersion, typ: TypeUser, seq: 0}
}

// Version returns the message's protocol version.
func (m *Message) Version() uint8 { return m.version }

// Kind returns the message's type.
func (m *Message) Kind() Type { return m.typ }

// Seq returns the message's sequence field.
func (m *Message) Seq() uint32 { return m.seq }

// InstanceMap returns the message's instance map, or nil if it carries
// none (i.e. it is a USER message, or a zero-valued Message).
func (m *Message) InstanceMap() map[MemberUUID]PInst { return m.instMap }

// SetInstance sets id's record in the instance map. It panics if the
// message's type does not carry an instance map, since that would silently
// desync the message from what Size/Write would actually encode.
func (m *Message) SetInstance(id MemberUUID, inst PInst) {
	if !m.typ.hasInstanceMap() {
		panic("pcmsg: SetInstance on a message type with no instance map")
	}
	m.instMap[id] = inst
}

// Copy returns a deep clone: the instance map, if present, is duplicated so
// mutating the copy never affects the original.
func (m *Message) Copy() *Message {
	clone := &Message{version: m.version, typ: m.typ, seq: m.seq}
	if m.instMap != nil {
		clone.instMap = make(map[MemberUUID]PInst, len(m.instMap))
		for k, v := range m.instMap {
			clone.instMap[k] = v
		}
	}
	return clone
}

// Equals reports whether m and o carry the same version, type, seq, and
// instance map contents. Asymmetric instance-map presence (one message
// carries a map and the other does not) is not a valid "not equal" outcome:
// per the wire contract every STATE/INSTALL message must carry a map and
// every NONE/USER message must not, so a mismatch here means one of the two
// messages was built or decoded incorrectly. That is a programming error,
// not a data inequality, so it panics instead of returning false.
func (m *Message) Equals(o *Message) bool {
	if m.version != o.version || m.typ != o.typ || m.seq != o.seq {
		return false
	}
	if (m.instMap == nil) != (o.instMap == nil) {
		panic("pcmsg: asymmetric instance map presence between otherwise-matching messages")
	}
	if m.instMap == nil {
		return true
	}
	if len(m.instMap) != len(o.instMap) {
		return false
	}
	for k, v := range m.instMap {
		ov, ok := o.instMap[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
