package ist

// Protocol version gates. VerPeerCertCheck is the version at and after which
// the receiver's TLS handshake enforces presentation of a peer certificate;
// versions below it shipped with a sender that sometimes connected without
// one, so the check is skipped for compatibility. VerRelaxedRange is the
// version at and after which a range with First > Last is interpreted as
// "nothing to transfer" instead of a protocol error.
const (
	VerPeerCertCheck uint8 = 7
	VerRelaxedRange  uint8 = 4

	// CurrentVersion is the version this implementation speaks.
	CurrentVersion uint8 = 7
)
