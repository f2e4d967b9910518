package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusEnvelope is the registry snapshot served on /status.
type StatusEnvelope struct {
	VerifiedUsers     int `json:"verified_users"`
	ConfiguredGuilds  int `json:"configured_guilds"`
	PendingChallenges int `json:"pending_challenges"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
