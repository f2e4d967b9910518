package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rolegate/internal/application/registry"
	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/gateway"
	"github.com/rolegate/internal/infrastructure/webhook"
	"github.com/rolegate/internal/metrics"
	"github.com/rolegate/internal/pkg/id"
	"github.com/rolegate/internal/pkg/validate"
)

// ControlVerify identifies the public verify control installed by setup.
const ControlVerify = "verify_button"

// User-facing acknowledgment texts. The gateway binding relays these as
// ephemeral replies or direct messages.
const (
	msgSetupDone       = "Verify control installed. Members can now start verification there."
	msgSetupDenied     = "You need administrator privilege to run setup."
	msgVerifyPrompt    = "Press the button below to start verification. Verification is required to join the community."
	msgCodeSent        = "A verification code was sent to your direct messages."
	msgCodeDMFailed    = "Could not send you a direct message. Enable direct messages and press verify again."
	msgAlreadyVerified = "You are already verified."
	msgRoleReapplied   = "You are already verified. Your role has been re-applied."
	msgVerified        = "Verification complete! Your role has been granted."
	msgCodeMismatch    = "That code does not match. Reply again with the code from your verification message."
)

func msgIncident(ref string) string {
	return fmt.Sprintf("Something went wrong (reference %s). Please contact an administrator.", ref)
}

// Service drives the verification protocol: issuing challenges, matching
// replies, moving users to verified and fanning the role out across guilds.
type Service struct {
	reg     *registry.Registry
	roles   gateway.RoleManager
	msgr    gateway.Messenger
	perms   gateway.Permissions
	notify  webhook.Notifier
	metrics *metrics.Metrics

	fanoutLimit   int
	grantAttempts int
}

// Deps wires a Service. FanoutConcurrency and GrantAttempts fall back to
// sensible defaults when zero.
type Deps struct {
	Registry          *registry.Registry
	Roles             gateway.RoleManager
	Messenger         gateway.Messenger
	Permissions       gateway.Permissions
	Notifier          webhook.Notifier
	Metrics           *metrics.Metrics
	FanoutConcurrency int
	GrantAttempts     int
}

func NewService(d Deps) *Service {
	if d.FanoutConcurrency <= 0 {
		d.FanoutConcurrency = 4
	}
	if d.GrantAttempts <= 0 {
		d.GrantAttempts = 2
	}
	return &Service{
		reg:           d.Registry,
		roles:         d.Roles,
		msgr:          d.Messenger,
		perms:         d.Permissions,
		notify:        d.Notifier,
		metrics:       d.Metrics,
		fanoutLimit:   d.FanoutConcurrency,
		grantAttempts: d.GrantAttempts,
	}
}

// HandleAdminSetup records the guild's verified-member role and installs the
// verify control in the named channel. The returned text is the ephemeral
// acknowledgment for the invoker; a non-nil error classifies the failure.
func (s *Service) HandleAdminSetup(ctx context.Context, ev domain.AdminSetup) (string, error) {
	if err := validate.Struct(ev); err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	admin, err := s.perms.IsAdministrator(ctx, ev.GuildID, ev.InvokerID)
	if err != nil {
		ref := id.NewIncident()
		slog.Error("administrator check failed", "incident", ref, "guild_id", ev.GuildID, "user_id", ev.InvokerID, "err", err)
		return msgIncident(ref), fmt.Errorf("check administrator: %w", err)
	}
	if !admin {
		return msgSetupDenied, domain.ErrPermission
	}

	if err := s.reg.SetGuildRole(ev.GuildID, ev.RoleID); err != nil {
		ref := id.NewIncident()
		slog.Error("persist guild role failed", "incident", ref, "guild_id", ev.GuildID, "err", err)
		s.notify.Notify(ctx, fmt.Sprintf("setup failed [%s] guild=%s: %v", ref, ev.GuildID, err))
		return msgIncident(ref), err
	}
	s.notify.Notify(ctx, fmt.Sprintf("setup ran: guild=%s role=%s", ev.GuildID, ev.RoleID))

	control := &gateway.Control{ID: ControlVerify, Label: "Verify"}
	if err := s.msgr.PostPublicMessage(ctx, ev.ChannelID, msgVerifyPrompt, control); err != nil {
		slog.Warn("verify control install failed", "channel_id", ev.ChannelID, "err", err)
		return "Role saved, but the verify control could not be posted to the channel.",
			fmt.Errorf("install verify control: %w", domain.ErrDelivery)
	}
	slog.Info("verify control installed", "guild_id", ev.GuildID, "channel_id", ev.ChannelID, "role_id", ev.RoleID)
	return msgSetupDone, nil
}

// HandleVerifyPressed starts the code challenge for an unverified user, or
// re-confirms (and re-applies the guild's role if missing) for a verified one.
// Re-pressing never issues a second code to a verified user.
func (s *Service) HandleVerifyPressed(ctx context.Context, ev domain.VerifyPressed) (string, error) {
	if err := validate.Struct(ev); err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if s.reg.IsVerified(ev.UserID) {
		return s.reconfirm(ctx, ev)
	}

	code, err := s.reg.IssueChallenge(ev.UserID, ev.GuildID)
	if err != nil {
		ref := id.NewIncident()
		slog.Error("challenge issue failed", "incident", ref, "user_id", ev.UserID, "err", err)
		return msgIncident(ref), err
	}
	text := fmt.Sprintf("Your verification code is **%s**. Reply to this message with the code.", code)
	if err := s.msgr.SendDirectMessage(ctx, ev.UserID, text); err != nil {
		// The challenge stays live; pressing verify again simply reissues.
		slog.Warn("code delivery failed", "user_id", ev.UserID, "err", err)
		return msgCodeDMFailed, fmt.Errorf("send code: %w", domain.ErrDelivery)
	}
	s.metrics.IncChallengeIssued()
	slog.Info("challenge issued", "user_id", ev.UserID, "guild_id", ev.GuildID)
	return msgCodeSent, nil
}

// reconfirm handles a verify press by an already-verified user: re-grant the
// pressed guild's role when it is configured and missing, otherwise just
// acknowledge.
func (s *Service) reconfirm(ctx context.Context, ev domain.VerifyPressed) (string, error) {
	roleID, ok := s.reg.GuildRole(ev.GuildID)
	if !ok {
		return msgAlreadyVerified, nil
	}
	has, err := s.roles.HasRole(ctx, ev.GuildID, ev.UserID, roleID)
	if err != nil {
		slog.Warn("role check failed", "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		return msgAlreadyVerified, nil
	}
	if has {
		return msgAlreadyVerified, nil
	}
	if err := s.grantWithRetry(ctx, ev.GuildID, ev.UserID, roleID); err != nil {
		ref := id.NewIncident()
		slog.Error("role re-apply failed", "incident", ref, "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		s.notify.Notify(ctx, fmt.Sprintf("role re-apply failed [%s] guild=%s user=%s: %v", ref, ev.GuildID, ev.UserID, err))
		return msgIncident(ref), fmt.Errorf("re-apply role: %w", domain.ErrDelivery)
	}
	slog.Info("role re-applied", "guild_id", ev.GuildID, "user_id", ev.UserID)
	return msgRoleReapplied, nil
}

// HandleDirectMessage matches a private reply against the sender's pending
// challenge. A match consumes the challenge, marks the user verified and fans
// the role out across every configured guild; per-guild failures are reported
// to the operator channel but the verification itself still succeeds.
func (s *Service) HandleDirectMessage(ctx context.Context, ev domain.DirectMessage) error {
	if !ev.Direct || ev.FromBot {
		return nil
	}
	switch s.reg.MatchChallenge(ev.UserID, ev.Text) {
	case registry.MatchNone:
		return nil
	case registry.MatchWrong:
		if err := s.msgr.SendDirectMessage(ctx, ev.UserID, msgCodeMismatch); err != nil {
			slog.Warn("mismatch reply delivery failed", "user_id", ev.UserID, "err", err)
		}
		return nil
	}

	if err := s.reg.SetVerified(ev.UserID); err != nil {
		// The user is verified in memory; the next successful save flushes
		// the set. Report the persistence failure instead of failing the
		// verification.
		ref := id.NewIncident()
		slog.Error("persist verification failed", "incident", ref, "user_id", ev.UserID, "err", err)
		s.notify.Notify(ctx, fmt.Sprintf("persist verification failed [%s] user=%s: %v", ref, ev.UserID, err))
	}
	s.metrics.IncVerificationCompleted()
	slog.Info("user verified", "user_id", ev.UserID)

	for _, out := range s.Propagate(ctx, ev.UserID) {
		if out.Err == nil {
			continue
		}
		ref := id.NewIncident()
		slog.Error("fan-out grant failed", "incident", ref, "guild_id", out.GuildID, "user_id", ev.UserID, "err", out.Err)
		s.notify.Notify(ctx, fmt.Sprintf("role grant failed [%s] guild=%s user=%s: %v", ref, out.GuildID, ev.UserID, out.Err))
	}

	if err := s.msgr.SendDirectMessage(ctx, ev.UserID, msgVerified); err != nil {
		slog.Warn("success reply delivery failed", "user_id", ev.UserID, "err", err)
	}
	s.notify.Notify(ctx, fmt.Sprintf("user %s completed verification", ev.UserID))
	return nil
}

// HandleMemberJoined re-provisions the verified role when a verified user
// joins a guild that has one configured. Unverified users and unconfigured
// guilds are skipped silently.
func (s *Service) HandleMemberJoined(ctx context.Context, ev domain.MemberJoined) error {
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if !s.reg.IsVerified(ev.UserID) {
		return nil
	}
	roleID, ok := s.reg.GuildRole(ev.GuildID)
	if !ok {
		return nil
	}
	if err := s.grantWithRetry(ctx, ev.GuildID, ev.UserID, roleID); err != nil {
		ref := id.NewIncident()
		slog.Error("re-grant on join failed", "incident", ref, "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		s.notify.Notify(ctx, fmt.Sprintf("re-grant on join failed [%s] guild=%s user=%s: %v", ref, ev.GuildID, ev.UserID, err))
		return fmt.Errorf("re-grant on join: %w", domain.ErrDelivery)
	}
	slog.Info("verified role re-granted on join", "guild_id", ev.GuildID, "user_id", ev.UserID)
	return nil
}
