package orchestrator

// State is one tier of the provider-failover state machine. Failover order and
// per-state side effects are fixed by the transition table below.
type State int

const (
	StatePrimary State = iota
	StateLegacyFallback
	StateCacheFallback
	StateStaticSnapshotFallback
	StateSynthesizedFallback
	StateFailed
)

var stateNames = map[State]string{
	StatePrimary:                "primary",
	StateLegacyFallback:         "legacy_fallback",
	StateCacheFallback:          "cache_fallback",
	StateStaticSnapshotFallback: "static_snapshot_fallback",
	StateSynthesizedFallback:    "synthesized_fallback",
	StateFailed:                 "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// transitions is the failover order. There is no retry loop: a tier fails once
// and the machine advances.
var transitions = map[State]State{
	StatePrimary:                StateLegacyFallback,
	StateLegacyFallback:         StateCacheFallback,
	StateCacheFallback:          StateStaticSnapshotFallback,
	StateStaticSnapshotFallback: StateSynthesizedFallback,
	StateSynthesizedFallback:    StateFailed,
	StateFailed:                 StateFailed,
}

// Next returns the tier tried after s fails.
func (s State) Next() State {
	return transitions[s]
}
