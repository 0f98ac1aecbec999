package devtools

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

// TestEvent_JSON_Golden pins the canonical wire shape of Event the way
// harness.RunWithGolden pins a scenario's canonical trace JSON: the
// websocket client and the SQLite session log both depend on this shape
// staying stable across refactors.
func TestEvent_JSON_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))

	cases := []struct {
		name string
		ev   Event
	}{
		{
			name: "track",
			ev: Event{
				Timestamp: time.Date(2026, 8, 3, 10, 15, 30, 123000000, time.UTC),
				Kind:      EventTrack,
				EffectID:  7,
				Target:    "*reactor.Signal[int]",
				Key:       "value",
				Op:        "get",
			},
		},
		{
			name: "drain",
			ev: Event{
				Timestamp:      time.Date(2026, 8, 3, 10, 15, 31, 0, time.UTC),
				Kind:           EventDrain,
				DrainJobs:      3,
				DrainCallbacks: 1,
			},
		},
		{
			name: "drain_start",
			ev: Event{
				Timestamp: time.Date(2026, 8, 3, 10, 15, 30, 0, time.UTC),
				Kind:      EventDrainStart,
			},
		},
		{
			name: "recursion_limit",
			ev: Event{
				Timestamp: time.Date(2026, 8, 3, 10, 15, 32, 0, time.UTC),
				Kind:      EventRecursionLimit,
				Op:        "job",
				Owner:     "effect:42",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.Marshal(tc.ev)
			if err != nil {
				t.Fatal(err)
			}
			g.Assert(t, "event_"+tc.name, out)
		})
	}
}
