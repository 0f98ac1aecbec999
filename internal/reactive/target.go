package reactive

import (
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// TrackOp identifies why a read is being recorded.
type TrackOp int

const (
	TrackGet TrackOp = iota
	TrackHas
	TrackIterate
)

// TriggerOp identifies the kind of write that is fanning out to dependents.
type TriggerOp int

const (
	TriggerSet TriggerOp = iota
	TriggerAdd
	TriggerDelete
	TriggerClear
)

// Target is implemented by this package's Signal, Map and Slice. Identity is
// always by pointer/object identity, never by value equality.
type Target interface {
	// targetIdentity is unexported, so only this package's types implement
	// Target. Track and Trigger take any pointer value, not a Target, so the
	// interface does not restrict what can be tracked (the public Computed
	// is tracked this way).
	targetIdentity() uintptr
}

// identityOf extracts a stable pointer-identity key for a pointer value.
// Panics if v is not a pointer, mirroring the source system's assumption
// that targets are always objects.
func identityOf(v any) uintptr {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		panic("reactive: target must be a pointer type")
	}
	return rv.Pointer()
}

// sentinel derives a process-wide unique, allocation-free map key the way
// flimsy derives its symbol constants: hash a human-readable name and mask
// off the sign bit so it's usable as a plain comparable map key.
func sentinel(name string) any {
	return int64(xxhash.Sum64String(name) & 0x7fffffffffffffff)
}

// IterateKey is the sentinel used to register a dependency on "the act of
// iterating this container" without binding to any concrete element key.
var IterateKey = sentinel("reactive.iterate")

// MapKeyIterateKey is the sentinel used for map-like targets whose iteration
// depends on the key set specifically (as opposed to element values).
var MapKeyIterateKey = sentinel("reactive.mapKeyIterate")

// LengthKey is the well-known key array-like targets trigger on when their
// length changes, and which length-dependent reads subscribe to.
var LengthKey = sentinel("reactive.length")

// ValueKey is the sole key a scalar Signal tracks/triggers under.
var ValueKey = sentinel("reactive.value")
