package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rolegate/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Outcome records one guild's grant attempt during fan-out.
type Outcome struct {
	GuildID string
	RoleID  string
	Granted bool
	Skipped bool // user is not a member, or membership could not be checked
	Err     error
}

// Propagate applies the user's verified role across every guild with a
// configured role. Guilds are handled independently and concurrently: one
// guild's failure never prevents or delays the attempts on the others, and
// nothing is rolled back on partial failure.
func (s *Service) Propagate(ctx context.Context, userID string) []Outcome {
	cfg := s.reg.GuildRoles()
	outcomes := make([]Outcome, 0, len(cfg))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.fanoutLimit)
	for guildID, roleID := range cfg {
		guildID, roleID := guildID, roleID
		g.Go(func() error {
			out := s.grantOne(ctx, guildID, userID, roleID)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			// Failures live in the outcome, never in the group error, so the
			// group cannot short-circuit remaining guilds.
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Service) grantOne(ctx context.Context, guildID, userID, roleID string) Outcome {
	out := Outcome{GuildID: guildID, RoleID: roleID}
	member, err := s.roles.IsMember(ctx, guildID, userID)
	if err != nil {
		out.Skipped = true
		out.Err = fmt.Errorf("membership check in guild %s: %w", guildID, err)
		s.metrics.IncRoleGrant(metrics.OutcomeSkipped)
		return out
	}
	if !member {
		out.Skipped = true
		s.metrics.IncRoleGrant(metrics.OutcomeSkipped)
		return out
	}
	if err := s.grantWithRetry(ctx, guildID, userID, roleID); err != nil {
		out.Err = err
		return out
	}
	out.Granted = true
	return out
}

// grantWithRetry attempts the grant a bounded number of times. Retries are
// per guild and never cascade into other guilds' attempts.
func (s *Service) grantWithRetry(ctx context.Context, guildID, userID, roleID string) error {
	var err error
	for attempt := 0; attempt < s.grantAttempts; attempt++ {
		if err = s.roles.GrantRole(ctx, guildID, userID, roleID); err == nil {
			s.metrics.IncRoleGrant(metrics.OutcomeGranted)
			return nil
		}
	}
	s.metrics.IncRoleGrant(metrics.OutcomeFailed)
	return fmt.Errorf("grant role %s in guild %s: %w", roleID, guildID, err)
}
