package reactive

// tracker holds the LIFO stacks that implement dependency tracking:
// which effect is "active" (reads inside its raw function get recorded),
// and whether tracking is currently enabled at all (paused by
// Graph.RunUntracked and Graph.PauseTracking).
type tracker struct {
	shouldTrack bool
	trackStack  []bool

	effectStack  []*Effect
	activeEffect *Effect
}

func newTracker() tracker {
	return tracker{shouldTrack: true}
}

func (t *tracker) pauseTracking() {
	t.trackStack = append(t.trackStack, t.shouldTrack)
	t.shouldTrack = false
}

func (t *tracker) enableTracking() {
	t.trackStack = append(t.trackStack, t.shouldTrack)
	t.shouldTrack = true
}

func (t *tracker) resetTracking() {
	n := len(t.trackStack)
	if n == 0 {
		t.shouldTrack = true
		return
	}
	t.shouldTrack = t.trackStack[n-1]
	t.trackStack = t.trackStack[:n-1]
}

func (t *tracker) onStack(e *Effect) bool {
	for _, x := range t.effectStack {
		if x == e {
			return true
		}
	}
	return false
}

func (t *tracker) push(e *Effect) {
	t.effectStack = append(t.effectStack, e)
	t.activeEffect = e
}

func (t *tracker) pop() {
	n := len(t.effectStack) - 1
	t.effectStack = t.effectStack[:n]
	if n > 0 {
		t.activeEffect = t.effectStack[n-1]
	} else {
		t.activeEffect = nil
	}
}
