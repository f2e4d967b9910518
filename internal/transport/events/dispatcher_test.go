package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rolegate/internal/application/registry"
	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/gateway"
	"github.com/rolegate/internal/infrastructure/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
	maps map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		sets: make(map[string]map[string]struct{}),
		maps: make(map[string]map[string]string),
	}
}

func (f *memStore) LoadSet(path string) map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{})
	for k := range f.sets[path] {
		out[k] = struct{}{}
	}
	return out
}
func (f *memStore) SaveSet(path string, set map[string]struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string]struct{}, len(set))
	for k := range set {
		cp[k] = struct{}{}
	}
	f.sets[path] = cp
	return nil
}
func (f *memStore) LoadMap(path string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.maps[path] {
		out[k] = v
	}
	return out
}
func (f *memStore) SaveMap(path string, m map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	f.maps[path] = cp
	return nil
}

func newDispatcher() (*Dispatcher, *registry.Registry) {
	reg := registry.New(newMemStore(), "verified_users.json", "guild_roles.json")
	gw := gateway.NewNop()
	svc := verify.NewService(verify.Deps{
		Registry:    reg,
		Roles:       gw,
		Messenger:   gw,
		Permissions: gw,
		Notifier:    webhook.NewNotifier("", nil),
	})
	return NewDispatcher(svc), reg
}

func TestSubmit_DeliversAck(t *testing.T) {
	d, _ := newDispatcher()

	acks := make(chan string, 1)
	// Nop gateway cannot DM, so the verify press acks with the DM failure text.
	d.Submit(context.Background(), domain.VerifyPressed{UserID: "u1", GuildID: "g1"}, func(text string) {
		acks <- text
	})

	select {
	case ack := <-acks:
		assert.NotEmpty(t, ack)
	case <-time.After(5 * time.Second):
		t.Fatal("no acknowledgment delivered")
	}
}

func TestSubmit_ConcurrentEventsForDifferentUsers(t *testing.T) {
	d, reg := newDispatcher()

	for _, user := range []string{"u1", "u2", "u3", "u4"} {
		d.Submit(context.Background(), domain.VerifyPressed{UserID: user, GuildID: "g1"}, nil)
	}
	d.Wait()

	for _, user := range []string{"u1", "u2", "u3", "u4"} {
		assert.Equal(t, domain.StatePending, reg.State(user), "user %s", user)
	}
}

func TestSubmit_UnknownEventDoesNotPanic(t *testing.T) {
	d, _ := newDispatcher()
	d.Submit(context.Background(), nil, nil)
	d.Wait()
}

func TestWait_FlushesInFlightHandlers(t *testing.T) {
	d, reg := newDispatcher()

	d.Submit(context.Background(), domain.VerifyPressed{UserID: "u1", GuildID: "g1"}, nil)
	d.Wait()

	require.Equal(t, domain.StatePending, reg.State("u1"))
}
