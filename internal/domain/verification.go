package domain

// PendingChallenge is the ephemeral record behind an outstanding code
// challenge. At most one exists per user; issuing a new challenge replaces it.
// Challenges live only in memory and do not survive a restart.
type PendingChallenge struct {
	UserID      string
	Code        string // 6-digit numeric string, 100000-999999
	OriginGuild string // guild where the verify control was pressed
}

// VerificationState is a user's position in the verification protocol.
// Verified is terminal; this subsystem never removes a user from it.
type VerificationState int

const (
	StateUnverified VerificationState = iota
	StatePending
	StateVerified
)

func (s VerificationState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateVerified:
		return "verified"
	default:
		return "unverified"
	}
}
