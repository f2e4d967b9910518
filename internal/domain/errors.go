package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so callers can classify a failure without inspecting
// message text or leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrPermission    = errors.New("administrator privilege required")
	ErrDelivery      = errors.New("delivery failed")
	ErrNotConfigured = errors.New("no role configured")
)
