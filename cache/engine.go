// Package cache models a set-associative cache with least-recently-used
// replacement and counts the hits, misses and evictions of the accesses fed
// to it.
package cache

import (
	"github.com/sarchlab/cachesim/cache/internal/tagging"
	"github.com/sarchlab/cachesim/hooking"
)

// HookPosAccess is the position at which an Engine invokes its hooks, once
// after every access. The item is an AccessRecord.
var HookPosAccess = &hooking.HookPos{Name: "HookPosAccess"}

// AccessResult classifies an access.
type AccessResult int

// All the possible outcomes of an access.
const (
	Hit AccessResult = iota
	Miss
	MissWithEviction
)

func (r AccessResult) String() string {
	switch r {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissWithEviction:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// Statistics holds the counters of a simulation run.
type Statistics struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of accesses counted.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// AccessRecord describes one access. It is the item passed to hooks at
// HookPosAccess.
type AccessRecord struct {
	Seq        uint64
	Address    uint64
	Tag        uint64
	SetIndex   int
	Result     AccessResult
	EvictedTag uint64
}

// An Engine owns the tag array of one cache and applies accesses to it.
// It is not safe for concurrent use.
type Engine struct {
	hooking.HookableBase

	name    string
	config  Config
	decoder tagging.Decoder
	store   *tagging.Store
	stats   Statistics
}

// Name returns the name the engine was built with.
func (e *Engine) Name() string {
	return e.name
}

// Config returns the geometry of the cache.
func (e *Engine) Config() Config {
	return e.config
}

// Stats returns a copy of the counters.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// Access looks up the block that addr belongs to, bringing it in on a miss.
func (e *Engine) Access(addr uint64) AccessResult {
	tag, setIndex := e.decoder.Decode(addr)
	set := e.store.SetAt(setIndex)

	record := AccessRecord{
		Seq:      e.stats.Accesses(),
		Address:  addr,
		Tag:      tag,
		SetIndex: setIndex,
	}

	if set.Lookup(tag) {
		e.stats.Hits++
		record.Result = Hit
	} else {
		e.stats.Misses++
		record.Result = Miss

		victim, evicted := set.Insert(tag)
		if evicted {
			e.stats.Evictions++
			record.Result = MissWithEviction
			record.EvictedTag = victim
		}
	}

	e.traceAccess(record)

	return record.Result
}

func (e *Engine) traceAccess(record AccessRecord) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosAccess,
		Item:   record,
	})
}

// ResidentTags returns the tags held by a set, most recently used first.
func (e *Engine) ResidentTags(setIndex int) []uint64 {
	return e.store.SetAt(setIndex).Tags()
}

// Occupancy returns the number of valid lines in the cache.
func (e *Engine) Occupancy() int {
	return e.store.Occupancy()
}

// Reset empties the cache and clears the counters.
func (e *Engine) Reset() {
	e.store.Reset()
	e.stats = Statistics{}
}
