package types

// Fingerprint is the hex SHA-256 digest of a trimmed scanned identifier.
// It is the primary key of the attendee store.
type Fingerprint string

// FingerprintLen is the length of a hex-encoded SHA-256 digest.
const FingerprintLen = 64

// Valid reports whether f looks like a lowercase hex SHA-256 digest.
func (f Fingerprint) Valid() bool {
	if len(f) != FingerprintLen {
		return false
	}
	for i := 0; i < len(f); i++ {
		c := f[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Short returns a log-safe prefix of f.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// AttendeeRecord is the stored admission state for one fingerprint.
// CheckedIn only ever moves from false to true.
type AttendeeRecord struct {
	ID        Fingerprint `json:"id"`
	CheckedIn bool        `json:"checked_in"`
}
