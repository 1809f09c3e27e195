package dispatch

import (
	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/clip"
	"github.com/vigna-ne/ne/pkg/status"
)

// registerEditActions wires the buffer/search/clip operations into r: the
// part of the action table spec.md 2/4.10 calls out as do_action's real
// payload (insertion, deletion, undo, search, clipboard), as opposed to
// the dispatcher-owned bookkeeping actions DefaultRegistry already
// registers directly (Nop, Exit, Through, the prefs stack, flag toggles).
func registerEditActions(r *Registry) {
	r.Register(&Action{Name: "InsertChar",
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			if intArg < 0 {
				return status.REQUIRES_ARGUMENT
			}
			return ctx.Buf.InsertChar(rune(intArg))
		}})
	r.Register(&Action{Name: "InsertString", Flags: ArgIsString | EmptyStringOK,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			ctx.Buf.Undo.StartChain()
			defer ctx.Buf.Undo.EndChain()
			for _, r := range strArg {
				if st := ctx.Buf.InsertChar(r); !st.OK() {
					return st
				}
			}
			return status.OK
		}})
	r.Register(&Action{Name: "InsertLine", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.NewLine()
		}})
	r.Register(&Action{Name: "Backspace", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.Backspace()
		}})
	r.Register(&Action{Name: "DeleteChar", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.DeleteForward(1)
		}})

	r.Register(&Action{Name: "Undo", ShortName: "u", Flags: NoArgs | DoNotRecord,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.PerformUndo()
		}})
	r.Register(&Action{Name: "Redo", Flags: NoArgs | DoNotRecord,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.PerformRedo()
		}})

	r.Register(&Action{Name: "FindRegExp", Flags: ArgIsString,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			forward := intArg >= 0
			_, _, st := ctx.driver().Find(strArg, true, ctx.Buf.CaseSensitive, forward)
			return st
		}})
	r.Register(&Action{Name: "Find", Flags: ArgIsString,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			forward := intArg >= 0
			_, _, st := ctx.driver().Find(strArg, false, ctx.Buf.CaseSensitive, forward)
			return st
		}})
	r.Register(&Action{Name: "Replace", Flags: ArgIsString | EmptyStringOK,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			if b.FindString == "" {
				return status.NO_SEARCH_STRING
			}
			m, _, st := ctx.driver().Find(b.FindString, b.LastWasRegex, b.CaseSensitive, true)
			if !st.OK() {
				return st
			}
			return ctx.driver().Replace(m, strArg)
		}})
	r.Register(&Action{Name: "ReplaceAll", Flags: ArgIsString | EmptyStringOK,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			if b.FindString == "" {
				return status.NO_SEARCH_STRING
			}
			_, st := ctx.driver().ReplaceAll(b.FindString, b.LastWasRegex, b.CaseSensitive, strArg, ctx.Stop)
			return st
		}})

	r.Register(&Action{Name: "Cut", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			id := clipID(b, intArg)
			st := clip.CopyToClip(b, ctx.Clips, id, true)
			return st
		}})
	r.Register(&Action{Name: "Copy", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			id := clipID(b, intArg)
			return clip.CopyToClip(b, ctx.Clips, id, false)
		}})
	r.Register(&Action{Name: "Paste", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			id := clipID(b, intArg)
			return clip.Paste(b, ctx.Clips, id)
		}})

	r.Register(&Action{Name: "Paragraph", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return ctx.Buf.Paragraph(ctx.Buf.ScreenWidth, ctx.Stop)
		}})
	r.Register(&Action{Name: "Autocomplete", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return Autocomplete(ctx)
		}})

	r.Register(&Action{Name: "WordWrap", Flags: IsOption,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return SetUserFlag(&ctx.Buf.Options.WordWrap, intArg)
		}})
	r.Register(&Action{Name: "RightMargin", Flags: IsOption,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			if intArg < 0 {
				return status.REQUIRES_ARGUMENT
			}
			ctx.Buf.Options.RightMargin = int(intArg)
			return status.OK
		}})
}

// clipID resolves a dispatched clip action's int_arg against the buffer's
// default current-clip slot, mirroring how AutoIndent/Insert/ReadOnly
// already treat a negative int_arg as "use the buffer's own state."
func clipID(b *buffer.Buffer, intArg int64) int {
	if intArg < 0 {
		return b.Options.CurClip
	}
	return int(intArg)
}
