package session

// CurrentSchemaVersion is the encoding version written by Encode. Decode
// accepts only versions it knows how to read.
const CurrentSchemaVersion = 1

// Session is the single, static shape of a persisted session record. The
// claims fields (UserID, Username, Email) are an embedded copy of the user's
// identity at login time, not a live reference; an authenticated session must
// carry all three.
type Session struct {
	SessionID     string
	Authenticated bool

	// Claims.
	UserID   string
	Username string
	Email    string

	CreatedAt int64
	ExpiresAt int64

	SchemaVersion uint8
}
