package dispatch

import (
	"io"
	"os/exec"

	"github.com/creack/pty"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/clip"
	"github.com/vigna-ne/ne/pkg/navigation"
	"github.com/vigna-ne/ne/pkg/status"
)

// SetUserFlag implements SET_USER_FLAG(b, n, opt): a negative n toggles
// the flag; anything else sets it to n != 0.
func SetUserFlag(flag *bool, n int64) status.Status {
	if n < 0 {
		*flag = !*flag
	} else {
		*flag = n != 0
	}
	return status.OK
}

// Exit implements the EXIT gate: refuse to quit while any open document
// has unsaved changes, unless the caller confirms anyway.
func Exit(ctx *Context) status.Status {
	buffers := ctx.OpenBuffers
	if len(buffers) == 0 && ctx.Buf != nil {
		buffers = []*buffer.Buffer{ctx.Buf}
	}
	for _, b := range buffers {
		if b.IsModified {
			if ctx.Confirm == nil || !ctx.Confirm("Some documents are not saved; exit anyway?") {
				return status.DOCUMENT_NOT_SAVED
			}
			break
		}
	}
	return status.OK
}

// filterScratchClip is the registry slot THROUGH uses to stage the
// region it is filtering; -1 keeps it clear of the user-addressable
// 0-9 clips.
const filterScratchClip = -1

// Through implements the THROUGH action: the marked region is copied out,
// run through an external filter command, and the result replaces the
// region, the erase-and-replace happening only once the filter succeeds
// so a failing filter never touches the buffer.
func Through(ctx *Context, command string) status.Status {
	b := ctx.Buf
	if b.ReadOnly {
		return status.DOCUMENT_IS_READ_ONLY
	}
	if !b.Mark.Active {
		return status.MARK_BLOCK_FIRST
	}

	if st := clip.CopyToClip(b, ctx.Clips, filterScratchClip, false); !st.OK() {
		return st
	}
	c, _ := ctx.Clips.Get(filterScratchClip)
	defer ctx.Clips.Delete(filterScratchClip)

	filter := ctx.ExternalFilter
	if filter == nil {
		filter = runThroughPty
	}
	output, st := filter(command, nulToNewline(c.Data))
	if !st.OK() {
		return st
	}

	b.Undo.StartChain()
	defer b.Undo.EndChain()

	if st := clip.CopyToClip(b, ctx.Clips, filterScratchClip, true); !st.OK() {
		return st
	}
	b.Mark.Active = false
	return b.InsertStream(b.CurLineNum, b.CurPosBytes, newlineToNUL(output))
}

func nulToNewline(data []byte) []byte {
	out := append([]byte(nil), data...)
	for i, c := range out {
		if c == 0 {
			out[i] = '\n'
		}
	}
	return out
}

func newlineToNUL(data []byte) []byte {
	out := append([]byte(nil), data...)
	for i, c := range out {
		if c == '\n' {
			out[i] = 0
		}
	}
	return out
}

// runThroughPty is the default ExternalFilter: it runs command under a
// shell with a real controlling pty (so full-screen or termcap-aware
// filters behave as they would interactively), writes data to it, and
// collects whatever the filter writes back before it exits.
func runThroughPty(command string, data []byte) ([]byte, status.Status) {
	cmd := exec.Command("sh", "-c", command)
	f, err := pty.Start(cmd)
	if err != nil {
		return nil, status.EXTERNAL_COMMAND_ERROR
	}
	go func() {
		_, _ = f.Write(data)
	}()
	output, _ := io.ReadAll(f)
	_ = f.Close()
	if err := cmd.Wait(); err != nil {
		return nil, status.EXTERNAL_COMMAND_ERROR
	}
	return output, status.OK
}

// DefaultRegistry registers the dispatcher-owned actions of spec.md 4.10
// (flag toggles, EXIT, THROUGH, the prefs stack) plus a minimal set of
// composite actions that exercise recursive do_action dispatch the way
// DeletePrevWord genuinely does in the original: PrevWord moves the
// cursor, then EraseBlock removes the span just crossed.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&Action{Name: "Nop", Flags: NoArgs | DoNotRecord,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status { return status.OK }})

	r.Register(&Action{Name: "Exit", ShortName: "x", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status { return Exit(ctx) }})

	r.Register(&Action{Name: "Through", Flags: ArgIsString,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status { return Through(ctx, strArg) }})

	r.Register(&Action{Name: "PushPrefs", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status { return ctx.PushPrefs() }})
	r.Register(&Action{Name: "PopPrefs", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status { return ctx.PopPrefs() }})

	r.Register(&Action{Name: "AutoIndent", Flags: IsOption,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return SetUserFlag(&ctx.Buf.Options.AutoIndent, intArg)
		}})
	r.Register(&Action{Name: "Insert", Flags: IsOption,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return SetUserFlag(&ctx.Buf.Options.Insert, intArg)
		}})
	r.Register(&Action{Name: "ReadOnly", Flags: IsOption,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return SetUserFlag(&ctx.Buf.ReadOnly, intArg)
		}})

	r.Register(&Action{Name: "PrevWord", Flags: NoArgs | DoNotRecord,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			return navigation.SearchWord(ctx.Buf, false)
		}})
	r.Register(&Action{Name: "EraseBlock", Flags: NoArgs | DoNotRecord,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			st := clip.CopyToClip(ctx.Buf, ctx.Clips, filterScratchClip, true)
			ctx.Clips.Delete(filterScratchClip)
			ctx.Buf.Mark.Active = false
			return st
		}})
	r.Register(&Action{Name: "DeletePrevWord", Flags: NoArgs,
		Run: func(ctx *Context, intArg int64, strArg string) status.Status {
			b := ctx.Buf
			origLine, origPos := b.CurLineNum, b.CurPosBytes
			if st := ctx.Do("PrevWord", -1, ""); !st.OK() {
				return st
			}
			b.Mark = buffer.Mark{Active: true, Line: origLine, Pos: origPos}
			return ctx.Do("EraseBlock", -1, "")
		}})

	registerEditActions(r)

	return r
}
