package registry

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/rolegate/internal/domain"
)

// Persistence is the slice of the encrypted record store the registry mirrors
// its durable state into. Loads are tolerant (missing files mean first run);
// saves report errors.
type Persistence interface {
	LoadSet(path string) map[string]struct{}
	SaveSet(path string, set map[string]struct{}) error
	LoadMap(path string) map[string]string
	SaveMap(path string, m map[string]string) error
}

// MatchResult is the outcome of matching a direct-message reply against a
// user's pending challenge.
type MatchResult int

const (
	// MatchNone: no pending challenge exists for the user.
	MatchNone MatchResult = iota
	// MatchWrong: a challenge exists but the reply does not contain its code.
	MatchWrong
	// MatchConsumed: the reply matched and the challenge was consumed.
	MatchConsumed
)

// Registry is the authoritative in-memory verification state: the verified
// set, the guild→role map and the live pending challenges. Durable mutations
// are mirrored synchronously to the store before returning, so persisted
// state never lags the in-memory state by more than the event being handled.
//
// A single mutex serializes all access; cross-user contention is negligible
// at chat-event volume and a global lock removes whole classes of races
// (double-issued codes, lost setup updates).
type Registry struct {
	mu    sync.Mutex
	store Persistence

	verifiedPath string
	rolesPath    string

	verified   map[string]struct{}
	guildRoles map[string]string
	pending    map[string]domain.PendingChallenge
}

// New loads the persisted state through the store (healing legacy records as
// it goes) and returns a ready registry.
func New(store Persistence, verifiedPath, rolesPath string) *Registry {
	return &Registry{
		store:        store,
		verifiedPath: verifiedPath,
		rolesPath:    rolesPath,
		verified:     store.LoadSet(verifiedPath),
		guildRoles:   store.LoadMap(rolesPath),
		pending:      make(map[string]domain.PendingChallenge),
	}
}

// IsVerified reports whether the user ever completed the code challenge.
func (r *Registry) IsVerified(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.verified[userID]
	return ok
}

// SetVerified adds the user to the verified set and persists it. Idempotent:
// a second call for the same user changes nothing and writes nothing.
func (r *Registry) SetVerified(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verified[userID]; ok {
		return nil
	}
	r.verified[userID] = struct{}{}
	if err := r.store.SaveSet(r.verifiedPath, r.verified); err != nil {
		return fmt.Errorf("persist verified set: %w", err)
	}
	return nil
}

// SetGuildRole records the role granted on verification in a guild,
// overwriting any previous mapping, and persists the map.
func (r *Registry) SetGuildRole(guildID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guildRoles[guildID] = roleID
	if err := r.store.SaveMap(r.rolesPath, r.guildRoles); err != nil {
		return fmt.Errorf("persist guild roles: %w", err)
	}
	return nil
}

// GuildRole returns the configured role for a guild.
func (r *Registry) GuildRole(guildID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roleID, ok := r.guildRoles[guildID]
	return roleID, ok
}

// GuildRoles returns a snapshot of the full guild→role map for fan-out.
func (r *Registry) GuildRoles() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]string, len(r.guildRoles))
	for g, role := range r.guildRoles {
		snapshot[g] = role
	}
	return snapshot
}

// IssueChallenge generates a uniformly random 6-digit code for the user,
// silently replacing any prior unmatched challenge. Challenges are in-memory
// only and carry the guild the verify control was pressed in.
func (r *Registry) IssueChallenge(userID, guildID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := strconv.FormatInt(n.Int64()+100000, 10)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = domain.PendingChallenge{
		UserID:      userID,
		Code:        code,
		OriginGuild: guildID,
	}
	return code, nil
}

// MatchChallenge matches a reply against the user's pending challenge. The
// code only needs to appear somewhere in the text, so a full sentence around
// it still matches. A match consumes the challenge within the same critical
// section, so concurrent replies cannot both succeed.
func (r *Registry) MatchChallenge(userID, text string) MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.pending[userID]
	if !ok {
		return MatchNone
	}
	if !strings.Contains(text, ch.Code) {
		return MatchWrong
	}
	delete(r.pending, userID)
	return MatchConsumed
}

// State reports the user's position in the verification protocol.
func (r *Registry) State(userID string) domain.VerificationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verified[userID]; ok {
		return domain.StateVerified
	}
	if _, ok := r.pending[userID]; ok {
		return domain.StatePending
	}
	return domain.StateUnverified
}

// Counts returns registry sizes for the status endpoint.
func (r *Registry) Counts() (verified, guilds, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.verified), len(r.guildRoles), len(r.pending)
}
