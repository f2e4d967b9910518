package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rolegate/internal/metrics"
	"github.com/rolegate/internal/pkg/cipher"
)

// Store persists a set of identifiers and a key→value mapping as whole-file
// JSON documents in which every string is ciphertext. Plaintext never reaches
// stable storage through this type.
//
// Single-process, single-writer model: callers serialize Save* themselves
// (the registry holds its own lock around every mutation).
type Store struct {
	cipher  *cipher.Cipher
	metrics *metrics.Metrics
}

func New(c *cipher.Cipher, m *metrics.Metrics) *Store {
	return &Store{cipher: c, metrics: m}
}

// LoadSet reads a JSON array of encrypted strings. A missing or unparseable
// file is a first run, not an error: the result is an empty set.
func (s *Store) LoadSet(path string) map[string]struct{} {
	set := make(map[string]struct{})
	data, err := os.ReadFile(path)
	if err != nil {
		return set
	}
	var records []string
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("set file unparseable, starting empty", "path", path, "err", err)
		return set
	}
	for _, raw := range records {
		plain, recovered := s.decode(raw)
		if recovered {
			s.noteRecovered(path)
		}
		set[plain] = struct{}{}
	}
	return set
}

// SaveSet re-encrypts every member with a fresh IV and atomically replaces
// the file.
func (s *Store) SaveSet(path string, set map[string]struct{}) error {
	records := make([]string, 0, len(set))
	for member := range set {
		enc, err := s.cipher.Encrypt(member)
		if err != nil {
			return fmt.Errorf("encrypt set member: %w", err)
		}
		records = append(records, enc)
	}
	return writeJSONAtomic(path, records)
}

// LoadMap reads a JSON object of encrypted keys to encrypted values. Missing
// or unparseable files yield an empty map. Key and value heal independently.
func (s *Store) LoadMap(path string) map[string]string {
	m := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	var records map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("map file unparseable, starting empty", "path", path, "err", err)
		return m
	}
	for rawK, rawV := range records {
		k, recoveredK := s.decode(rawK)
		v, recoveredV := s.decode(rawV)
		if recoveredK || recoveredV {
			s.noteRecovered(path)
		}
		m[k] = v
	}
	return m
}

// SaveMap re-encrypts every entry with fresh IVs and atomically replaces the
// file.
func (s *Store) SaveMap(path string, m map[string]string) error {
	records := make(map[string]string, len(m))
	for k, v := range m {
		encK, err := s.cipher.Encrypt(k)
		if err != nil {
			return fmt.Errorf("encrypt map key: %w", err)
		}
		encV, err := s.cipher.Encrypt(v)
		if err != nil {
			return fmt.Errorf("encrypt map value: %w", err)
		}
		records[encK] = encV
	}
	return writeJSONAtomic(path, records)
}

// decode returns the plaintext for one stored value and reports whether the
// value had to be recovered. A record that fails to decrypt is treated as
// legacy plaintext: it is re-encrypted and the fresh record decrypted, so the
// returned string has been through the cipher's round trip either way and the
// next Save persists it properly encrypted. This never fails past this point.
func (s *Store) decode(raw string) (plain string, recovered bool) {
	if plain, err := s.cipher.Decrypt(raw); err == nil {
		return plain, false
	}
	enc, err := s.cipher.Encrypt(raw)
	if err != nil {
		// Encrypt only fails when the process cannot draw randomness; keep
		// the raw value rather than dropping the record.
		slog.Error("recovery re-encrypt failed, keeping raw value", "err", err)
		return raw, true
	}
	plain, err = s.cipher.Decrypt(enc)
	if err != nil {
		slog.Error("recovery round trip failed, keeping raw value", "err", err)
		return raw, true
	}
	return plain, true
}

func (s *Store) noteRecovered(path string) {
	file := filepath.Base(path)
	slog.Info("recovered legacy plaintext record", "file", file)
	s.metrics.IncRecoveredRecord(file)
}

// writeJSONAtomic writes v as indented JSON via a temp file in the same
// directory followed by a rename, so a crash mid-write leaves the previous
// file intact.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
