package gateway

import "context"

// Ports onto the chat-platform collaborator. The concrete client (session,
// event delivery, command registration) lives outside this module; the
// verification core only depends on these capabilities.

// Control describes the interactive verify control installed in a public
// channel alongside a message.
type Control struct {
	ID    string
	Label string
}

// RoleManager grants and inspects roles on the platform.
type RoleManager interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	// IsMember reports whether the user currently belongs to the guild.
	IsMember(ctx context.Context, guildID, userID string) (bool, error)
}

// Messenger delivers messages to users and channels.
type Messenger interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
	PostPublicMessage(ctx context.Context, channelID, content string, control *Control) error
}

// Permissions answers privilege questions about guild members.
type Permissions interface {
	IsAdministrator(ctx context.Context, guildID, userID string) (bool, error)
}
