package dispatch

import (
	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/clip"
	"github.com/vigna-ne/ne/pkg/search"
	"github.com/vigna-ne/ne/pkg/status"
)

// prefsStackMax bounds the PushPrefs/PopPrefs stack, matching the
// original's fixed-size array of saved option snapshots.
const prefsStackMax = 32

// Context is everything one do_action call needs beyond the action's own
// arguments: the buffer it acts on, the process-wide clip registry, the
// cooperative interrupt flag, and the request/confirm hooks a terminal
// front end supplies (spec.md 6's "N" request interfaces).
type Context struct {
	Buf   *buffer.Buffer
	Clips *clip.Registry

	// OpenBuffers lists every document the process currently holds open,
	// for actions (EXIT) that must check across all of them rather than
	// just Buf. A nil/empty slice falls back to treating Buf as the only
	// open document.
	OpenBuffers []*buffer.Buffer

	Registry *Registry

	// Stop is polled by any multi-iteration action; once set by the
	// external interrupt collaborator, the action finishes its current
	// iteration and returns STOPPED rather than continuing.
	Stop *bool

	// OptionsOnly mirrors exec_only_options while prefs are loading,
	// before a screen exists to run non-option commands against.
	OptionsOnly bool

	// ResizePending is polled at the top of Dispatch; Rebuild is called
	// and the flag cleared when it is set, realizing spec.md 5's
	// "window resize polled at the top of the dispatcher."
	ResizePending *bool
	Rebuild       func()

	prefsStack []buffer.Options

	// search is the lazily created driver backing FindRegExp/Replace/
	// ReplaceAll, so wrap-arming state (search.Driver's own wrapArmed
	// decay) persists across dispatcher calls the same way it would for
	// one buffer's lifetime in the original.
	search *search.Driver

	Confirm       func(prompt string) bool
	RequestString func(prompt string) (string, bool)

	// ExternalFilter runs command with data on its stdin and returns its
	// stdout, for the THROUGH action. Defaults to a pty-backed
	// implementation (runThroughPty in actions.go) if left nil.
	ExternalFilter func(command string, data []byte) ([]byte, status.Status)

	// Notify surfaces a non-error status.Info to the front end's status
	// bar (e.g. the AUTOCOMPLETE_* outcomes); left nil, notices are
	// simply dropped.
	Notify func(status.Info)
}

func (ctx *Context) notify(i status.Info) {
	if ctx.Notify != nil {
		ctx.Notify(i)
	}
}

// driver returns the context's search driver, creating it against the
// current buffer on first use.
func (ctx *Context) driver() *search.Driver {
	if ctx.search == nil || ctx.search.Buf != ctx.Buf {
		ctx.search = search.New(ctx.Buf)
	}
	return ctx.search
}

// Do runs name recursively against the same context, the one sanctioned
// form of dispatcher reentrancy (spec.md 5): a composite action like
// DeletePrevWord calls PrevWord then EraseBlock this way, never by
// reaching into another action's internals directly.
func (ctx *Context) Do(name string, intArg int64, strArg string) status.Status {
	return Dispatch(ctx, name, intArg, strArg)
}

// Dispatch is the single entry point every user-visible command funnels
// through (do_action). int_arg == -1 means "unspecified"; for a
// command's own default iteration count that means "once".
func Dispatch(ctx *Context, name string, intArg int64, strArg string) status.Status {
	if ctx.ResizePending != nil && *ctx.ResizePending {
		if ctx.Rebuild != nil {
			ctx.Rebuild()
		}
		*ctx.ResizePending = false
	}

	act, ok := ctx.Registry.Lookup(name)
	if !ok {
		return status.NO_SUCH_COMMAND
	}

	if ctx.Buf != nil && ctx.Buf.Recording && ctx.Buf.Macro != nil && act.Flags&DoNotRecord == 0 {
		rec := -1
		if intArg >= 0 {
			rec = int(intArg)
		}
		ctx.Buf.Macro.Record(act.Name, rec, strArg)
	}

	return act.Run(ctx, intArg, strArg)
}

// PushPrefs saves a snapshot of the buffer's current options, letting a
// macro change them temporarily and later restore them with PopPrefs.
func (ctx *Context) PushPrefs() status.Status {
	if len(ctx.prefsStack) >= prefsStackMax {
		return status.PREFS_STACK_FULL
	}
	ctx.prefsStack = append(ctx.prefsStack, ctx.Buf.Options)
	return status.OK
}

// PopPrefs restores the most recently pushed option snapshot.
func (ctx *Context) PopPrefs() status.Status {
	if len(ctx.prefsStack) == 0 {
		return status.PREFS_STACK_EMPTY
	}
	n := len(ctx.prefsStack) - 1
	ctx.Buf.Options = ctx.prefsStack[n]
	ctx.prefsStack = ctx.prefsStack[:n]
	return status.OK
}
