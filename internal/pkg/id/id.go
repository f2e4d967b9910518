package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewIncident returns a short reference shared between an operator report and
// the matching user-facing failure message, so "quote this code to an admin"
// can be tied back to a log line. The E prefix plus the ULID's random tail
// keeps it short enough to read aloud while staying collision-free.
func NewIncident() string {
	return "E" + ulid.MustNew(ulid.Now(), rand.Reader).String()[16:]
}
