package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rolegate/internal/pkg/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *Store {
	return New(cipher.New("test-secret"), nil)
}

func TestLoadSet_MissingFileIsFirstRun(t *testing.T) {
	s := newStore()
	set := s.LoadSet(filepath.Join(t.TempDir(), "verified_users.json"))
	assert.Empty(t, set)
}

func TestLoadSet_UnparseableFileIsEmpty(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o600))
	assert.Empty(t, s.LoadSet(path))
}

func TestSetRoundTrip(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")
	set := map[string]struct{}{"111": {}, "222": {}, "333": {}}

	require.NoError(t, s.SaveSet(path, set))
	assert.Equal(t, set, s.LoadSet(path))
}

func TestSaveSet_OnDiskValuesAreCiphertext(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")
	require.NoError(t, s.SaveSet(path, map[string]struct{}{"941264731185809431": {}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []string
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.NotContains(t, records[0], "941264731185809431")
	assert.Contains(t, records[0], ":")
}

func TestLoadSet_HealsLegacyPlaintext(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")

	// A store written before encryption existed: raw IDs in the array.
	legacy, _ := json.Marshal([]string{"alice", "bob"})
	require.NoError(t, os.WriteFile(path, legacy, 0o600))

	set := s.LoadSet(path)
	assert.Equal(t, map[string]struct{}{"alice": {}, "bob": {}}, set)

	// The next save persists them encrypted and they still round-trip.
	require.NoError(t, s.SaveSet(path, set))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "alice")
	assert.Equal(t, set, s.LoadSet(path))
}

func TestLoadSet_MixedLegacyAndEncrypted(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")
	enc, err := cipher.New("test-secret").Encrypt("carol")
	require.NoError(t, err)
	mixed, _ := json.Marshal([]string{"alice", enc})
	require.NoError(t, os.WriteFile(path, mixed, 0o600))

	assert.Equal(t, map[string]struct{}{"alice": {}, "carol": {}}, s.LoadSet(path))
}

func TestMapRoundTrip(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "guild_roles.json")
	m := map[string]string{"guild-1": "role-1", "guild-2": "role-2"}

	require.NoError(t, s.SaveMap(path, m))
	assert.Equal(t, m, s.LoadMap(path))
}

func TestLoadMap_HealsKeyAndValueIndependently(t *testing.T) {
	c := cipher.New("test-secret")
	s := New(c, nil)
	path := filepath.Join(t.TempDir(), "guild_roles.json")

	encKey, err := c.Encrypt("guild-enc")
	require.NoError(t, err)
	legacy, _ := json.Marshal(map[string]string{
		"guild-plain": "role-plain", // both legacy
		encKey:        "role-mixed", // encrypted key, plaintext value
	})
	require.NoError(t, os.WriteFile(path, legacy, 0o600))

	m := s.LoadMap(path)
	assert.Equal(t, map[string]string{
		"guild-plain": "role-plain",
		"guild-enc":   "role-mixed",
	}, m)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newStore()
	dir := t.TempDir()
	require.NoError(t, s.SaveSet(filepath.Join(dir, "verified_users.json"), map[string]struct{}{"u": {}}))
	require.NoError(t, s.SaveMap(filepath.Join(dir, "guild_roles.json"), map[string]string{"g": "r"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "leftover temp file %s", e.Name())
	}
	assert.Len(t, entries, 2)
}

func TestSave_ReplacesDoNotAppend(t *testing.T) {
	s := newStore()
	path := filepath.Join(t.TempDir(), "verified_users.json")
	require.NoError(t, s.SaveSet(path, map[string]struct{}{"a": {}, "b": {}}))
	require.NoError(t, s.SaveSet(path, map[string]struct{}{"a": {}}))
	assert.Equal(t, map[string]struct{}{"a": {}}, s.LoadSet(path))
}
