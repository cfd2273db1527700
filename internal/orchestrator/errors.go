package orchestrator

import (
	"errors"
)

// The only two errors the orchestrator surfaces to callers. Tier-specific
// failures stay internal and are only logged.
var (
	// ErrNotConfigured means no provider endpoint is configured at all. A
	// configuration problem, not transient; retrying will not help.
	ErrNotConfigured = errors.New("sun outlook engine is not configured")

	// ErrTemporarilyUnavailable means every tier was tried and failed for
	// transient reasons. Safe to retry later.
	ErrTemporarilyUnavailable = errors.New("sun outlook temporarily unavailable")
)

// errNoCandidate marks a tier that ran but produced no matching data, which
// advances the machine like any other tier failure.
var errNoCandidate = errors.New("no candidate data in tier")

// errTierSkipped marks a tier whose endpoint is not configured.
var errTierSkipped = errors.New("tier not configured")
