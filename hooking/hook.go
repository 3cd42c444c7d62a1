// Package hooking lets observers attach to the simulator without changing
// what it computes.
package hooking

// HookPos names a point in the simulation where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A PosFilter is a Hook that only wants to hear about some positions. Hooks
// that do not implement it are invoked at every position.
type PosFilter interface {
	Hook

	// Positions lists the positions the hook wants to be invoked at.
	Positions() []*HookPos
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the registered hooks that are interested in ctx.Pos, in
// registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		if !wantsPos(hook, ctx.Pos) {
			continue
		}

		hook.Func(ctx)
	}
}

func wantsPos(hook Hook, pos *HookPos) bool {
	filter, ok := hook.(PosFilter)
	if !ok {
		return true
	}

	for _, p := range filter.Positions() {
		if p == pos {
			return true
		}
	}

	return false
}

type funcHook struct {
	f func(ctx HookCtx)
}

func (h *funcHook) Func(ctx HookCtx) {
	h.f(ctx)
}

// NewFuncHook wraps a function as a Hook. Every call returns a distinct hook,
// so the same function can be registered on several hookables.
func NewFuncHook(f func(ctx HookCtx)) Hook {
	return &funcHook{f: f}
}
