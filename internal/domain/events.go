package domain

// Inbound events delivered by the chat-platform gateway. The gateway is
// expected to hand these over well-formed and already resolved to plain IDs.

// Event is implemented by every inbound gateway event.
type Event interface {
	isEvent()
}

// AdminSetup records a guild's verified-member role and asks for the verify
// control to be installed in a channel. Invoker must hold administrator
// privilege in the guild.
type AdminSetup struct {
	GuildID   string `validate:"required"`
	ChannelID string `validate:"required"`
	RoleID    string `validate:"required"`
	InvokerID string `validate:"required"`
}

// VerifyPressed is the user-initiated trigger that starts (or, for an already
// verified user, re-confirms) the code challenge.
type VerifyPressed struct {
	UserID  string `validate:"required"`
	GuildID string `validate:"required"`
}

// DirectMessage is a message received by the bot. Only private one-to-one
// messages from real users participate in code matching; the gateway reports
// channel kind and authorship so the handler can discard the rest.
type DirectMessage struct {
	UserID  string
	Text    string
	Direct  bool // true when sent in a private one-to-one channel
	FromBot bool
}

// MemberJoined fires when a user joins a guild the bot is in.
type MemberJoined struct {
	UserID  string `validate:"required"`
	GuildID string `validate:"required"`
}

func (AdminSetup) isEvent()    {}
func (VerifyPressed) isEvent() {}
func (DirectMessage) isEvent() {}
func (MemberJoined) isEvent()  {}
