// Package hooking lets observers attach to a running simulation without
// holding a reference to its mutable state.
package hooking

// HookPos names a place in a run where hooks fire.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives when it fires.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies the stage of the run the hook is firing from.
	Pos *HookPos

	// Item carries the subject of the hook (scheduled event, log event, trip,
	// snapshot). Items are copies.
	Item any

	// Detail holds optional auxiliary data; hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook. Hooks must be registered before the
	// hookable domain starts running and cannot be removed.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook

	// Listens tells whether any hook fires at pos.
	Listens(pos *HookPos) bool

	// InvokeHook triggers the hooks that listen at ctx.Pos.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A PosHook only fires at the positions it names.
type PosHook interface {
	Hook

	Positions() []*HookPos
}

// HookFunc adapts a plain function into a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// At restricts hook to the given positions.
func At(hook Hook, positions ...*HookPos) PosHook {
	return posHook{Hook: hook, positions: positions}
}

type posHook struct {
	Hook
	positions []*HookPos
}

func (h posHook) Positions() []*HookPos {
	return h.positions
}

// A HookableBase implements Hookable. Hooks fire in registration order.
type HookableBase struct {
	hookList []Hook

	// Hooks without a position list fire everywhere.
	anywhere int
	byPos    map[*HookPos][]int
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{
		byPos: make(map[*HookPos][]int),
	}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)

	index := len(h.hookList)
	h.hookList = append(h.hookList, hook)

	ph, ok := hook.(PosHook)
	if !ok {
		h.anywhere++
		return
	}

	for _, pos := range ph.Positions() {
		h.byPos[pos] = append(h.byPos[pos], index)
	}
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	switch hook.(type) {
	case HookFunc, posHook:
		return
	}

	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}
}

// Listens tells whether any hook fires at pos.
func (h *HookableBase) Listens(pos *HookPos) bool {
	return h.anywhere > 0 || len(h.byPos[pos]) > 0
}

// InvokeHook triggers the hooks that listen at ctx.Pos.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	if h.anywhere == 0 {
		for _, i := range h.byPos[ctx.Pos] {
			h.hookList[i].Func(ctx)
		}

		return
	}

	for _, hook := range h.hookList {
		if ph, ok := hook.(PosHook); ok && !firesAt(ph, ctx.Pos) {
			continue
		}

		hook.Func(ctx)
	}
}

func firesAt(h PosHook, pos *HookPos) bool {
	for _, p := range h.Positions() {
		if p == pos {
			return true
		}
	}

	return false
}

var _ Hookable = (*HookableBase)(nil)
