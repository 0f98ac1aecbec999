// Package devtools observes a runtime's track/trigger/drain activity and
// exposes it over a live websocket dashboard, a SQLite session log, and an
// HTML report generated from that log — adapted from a metrics/alerts
// dashboard shape to reactivity events.
package devtools

import "time"

// EventKind discriminates the Event envelope.
type EventKind string

const (
	EventTrack          EventKind = "track"
	EventTrigger        EventKind = "trigger"
	EventDrainStart     EventKind = "drain_start"
	EventDrain          EventKind = "drain"
	EventRecursionLimit EventKind = "recursion_limit"
)

// Event is the single JSON shape broadcast to dashboard clients and
// persisted to the session log; only the fields relevant to Kind are
// populated.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`

	EffectID int64  `json:"effect_id,omitempty"`
	Target   string `json:"target,omitempty"`
	Key      string `json:"key,omitempty"`
	Op       string `json:"op,omitempty"`

	// DrainJobs/DrainCallbacks are only set on EventDrain, summarizing how
	// much work the just-finished drain did.
	DrainJobs      int `json:"drain_jobs,omitempty"`
	DrainCallbacks int `json:"drain_callbacks,omitempty"`

	// Owner labels the job/callback owner an EventRecursionLimit event
	// concerns; other kinds leave it empty.
	Owner string `json:"owner,omitempty"`
}
