package trace

import (
	"iter"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
)

// HookPosEventReplayed is the position at which a Replayer invokes its hooks,
// once after every data reference. The item is a Replayed.
var HookPosEventReplayed = &hooking.HookPos{Name: "HookPosEventReplayed"}

// An Accessor is a cache that can be accessed by address.
type Accessor interface {
	Access(addr uint64) cache.AccessResult
}

// Replayed is a data reference together with the outcome of each cache
// access it caused, in order.
type Replayed struct {
	Event   Event
	Results []cache.AccessResult
}

// Summary counts the events a replay has seen.
type Summary struct {
	Loads        uint64
	Stores       uint64
	Modifies     uint64
	Instructions uint64
	Others       uint64
	Accesses     uint64
}

// Events returns the total number of events seen.
func (s Summary) Events() uint64 {
	return s.Loads + s.Stores + s.Modifies + s.Instructions + s.Others
}

// A Replayer turns trace events into cache accesses. A load or a store is one
// access; a modify is a load followed by a store to the same address, so it
// is two. Other events are ignored.
type Replayer struct {
	hooking.HookableBase

	accessor Accessor
	summary  Summary
}

// NewReplayer creates a replayer that drives accessor.
func NewReplayer(accessor Accessor) *Replayer {
	return &Replayer{accessor: accessor}
}

// Summary returns the counts accumulated so far.
func (r *Replayer) Summary() Summary {
	return r.summary
}

// Replay replays every event of the sequence and returns the counts
// accumulated so far.
func (r *Replayer) Replay(events iter.Seq[Event]) Summary {
	for e := range events {
		r.ReplayEvent(e)
	}

	return r.summary
}

// ReplayEvent replays one event and returns the outcome of each access it
// caused.
func (r *Replayer) ReplayEvent(e Event) []cache.AccessResult {
	var results []cache.AccessResult

	switch e.Kind {
	case KindLoad:
		r.summary.Loads++
		results = r.access(e.Address, 1)
	case KindStore:
		r.summary.Stores++
		results = r.access(e.Address, 1)
	case KindModify:
		r.summary.Modifies++
		results = r.access(e.Address, 2)
	case KindInstruction:
		r.summary.Instructions++
		return nil
	default:
		r.summary.Others++
		return nil
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    HookPosEventReplayed,
		Item:   Replayed{Event: e, Results: results},
	})

	return results
}

// access accesses addr n times in a row. Each access observes the state the
// previous one left behind.
func (r *Replayer) access(addr uint64, n int) []cache.AccessResult {
	results := make([]cache.AccessResult, n)
	for i := range results {
		results[i] = r.accessor.Access(addr)
	}

	r.summary.Accesses += uint64(n)

	return results
}
