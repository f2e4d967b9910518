package handler

import (
	"net/http"

	"github.com/rolegate/internal/application/registry"
)

// StatusHandler serves liveness and registry snapshot endpoints.
type StatusHandler struct {
	reg *registry.Registry
}

func NewStatusHandler(reg *registry.Registry) *StatusHandler {
	return &StatusHandler{reg: reg}
}

// Alive is the liveness probe hosting platforms poll to keep the bot awake.
func (h *StatusHandler) Alive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "bot is alive"})
}

// Status reports registry sizes. Counts only; identifiers never leave the
// process through this surface.
func (h *StatusHandler) Status(w http.ResponseWriter, _ *http.Request) {
	verified, guilds, pending := h.reg.Counts()
	writeJSON(w, http.StatusOK, StatusEnvelope{
		VerifiedUsers:     verified,
		ConfiguredGuilds:  guilds,
		PendingChallenges: pending,
	})
}
