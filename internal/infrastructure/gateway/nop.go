package gateway

import (
	"context"
	"fmt"
	"log/slog"
)

// Nop satisfies every gateway port without a platform connection. It lets the
// process start (liveness, metrics, store healing) when no platform binding
// is wired, mirroring the graceful-fallback handling of other optional
// collaborators.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) GrantRole(_ context.Context, guildID, userID, roleID string) error {
	return fmt.Errorf("no gateway connected: cannot grant role %s to %s in %s", roleID, userID, guildID)
}

func (Nop) HasRole(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (Nop) IsMember(context.Context, string, string) (bool, error) {
	return false, nil
}

func (Nop) SendDirectMessage(_ context.Context, userID, _ string) error {
	return fmt.Errorf("no gateway connected: cannot message user %s", userID)
}

func (Nop) PostPublicMessage(_ context.Context, channelID, _ string, _ *Control) error {
	slog.Warn("no gateway connected, dropping public message", "channel_id", channelID)
	return nil
}

func (Nop) IsAdministrator(context.Context, string, string) (bool, error) {
	return false, nil
}
