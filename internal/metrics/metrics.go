package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Role-grant outcome labels.
const (
	OutcomeGranted = "granted"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics provides observability for the verification core. All recording
// methods are nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	// Challenges issued via the verify control
	ChallengesIssued prometheus.Counter

	// Users that completed the code challenge
	VerificationsCompleted prometheus.Counter

	// Role grant attempts by outcome (granted / failed / skipped)
	RoleGrants *prometheus.CounterVec

	// Store entries recovered as legacy plaintext on load, by file
	RecoveredRecords *prometheus.CounterVec

	// Operator notifications dropped by the webhook throttle
	NotificationsDropped prometheus.Counter
}

// New registers all verification-core metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolegate_challenges_issued_total",
			Help: "Verification code challenges issued",
		}),
		VerificationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolegate_verifications_completed_total",
			Help: "Users that completed the code challenge",
		}),
		RoleGrants: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolegate_role_grants_total",
			Help: "Role grant attempts by outcome",
		}, []string{"outcome"}),
		RecoveredRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolegate_store_recovered_records_total",
			Help: "Store entries recovered as legacy plaintext on load",
		}, []string{"file"}),
		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolegate_notifications_dropped_total",
			Help: "Operator notifications dropped by the webhook throttle",
		}),
	}
}

// IncChallengeIssued records one issued code challenge.
func (m *Metrics) IncChallengeIssued() {
	if m != nil {
		m.ChallengesIssued.Inc()
	}
}

// IncVerificationCompleted records one completed verification.
func (m *Metrics) IncVerificationCompleted() {
	if m != nil {
		m.VerificationsCompleted.Inc()
	}
}

// IncRoleGrant records one role grant attempt outcome.
func (m *Metrics) IncRoleGrant(outcome string) {
	if m != nil {
		m.RoleGrants.WithLabelValues(outcome).Inc()
	}
}

// IncRecoveredRecord records one store entry healed from legacy plaintext.
func (m *Metrics) IncRecoveredRecord(file string) {
	if m != nil {
		m.RecoveredRecords.WithLabelValues(file).Inc()
	}
}

// IncNotificationDropped records one throttled operator notification.
func (m *Metrics) IncNotificationDropped() {
	if m != nil {
		m.NotificationsDropped.Inc()
	}
}
