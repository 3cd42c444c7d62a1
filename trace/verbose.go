package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/cachesim/hooking"
)

// A VerbosePrinter is a hook that prints every data reference with its
// outcomes, for example "M 20,1 miss eviction hit".
type VerbosePrinter struct {
	w io.Writer
}

// NewVerbosePrinter creates a printer that writes to w.
func NewVerbosePrinter(w io.Writer) *VerbosePrinter {
	return &VerbosePrinter{w: w}
}

// Positions limits the printer to replayed events.
func (p *VerbosePrinter) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{HookPosEventReplayed}
}

// Func prints the event carried by ctx.
func (p *VerbosePrinter) Func(ctx hooking.HookCtx) {
	replayed, ok := ctx.Item.(Replayed)
	if !ok {
		return
	}

	outcomes := make([]string, len(replayed.Results))
	for i, r := range replayed.Results {
		outcomes[i] = r.String()
	}

	fmt.Fprintf(p.w, "%s %s\n", replayed.Event, strings.Join(outcomes, " "))
}
