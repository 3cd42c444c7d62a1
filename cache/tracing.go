package cache

import (
	"strconv"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/hooking"
)

// AccessesTable is the table a DBTracer writes to.
const AccessesTable = "accesses"

// Addresses and tags are stored as hex strings because SQLite integers are
// signed 64-bit.
type accessEntry struct {
	RunID      string
	Location   string
	Seq        uint64
	Address    string
	Tag        string
	SetIndex   int
	Result     string
	EvictedTag string
}

// A DBTracer is a hook that records every access of an Engine into a
// database.
type DBTracer struct {
	runID    string
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a tracer that tags its rows with runID.
func NewDBTracer(
	runID string,
	recorder datarecording.DataRecorder,
) *DBTracer {
	recorder.CreateTable(AccessesTable, accessEntry{})

	return &DBTracer{
		runID:    runID,
		recorder: recorder,
	}
}

// Positions limits the tracer to accesses.
func (t *DBTracer) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{HookPosAccess}
}

// Func records the access carried by ctx.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	record, ok := ctx.Item.(AccessRecord)
	if !ok {
		return
	}

	location := ""
	if e, ok := ctx.Domain.(*Engine); ok {
		location = e.Name()
	}

	entry := accessEntry{
		RunID:    t.runID,
		Location: location,
		Seq:      record.Seq,
		Address:  hex(record.Address),
		Tag:      hex(record.Tag),
		SetIndex: record.SetIndex,
		Result:   record.Result.String(),
	}

	if record.Result == MissWithEviction {
		entry.EvictedTag = hex(record.EvictedTag)
	}

	t.recorder.InsertData(AccessesTable, entry)
}

func hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
