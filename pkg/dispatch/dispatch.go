// Package dispatch implements the action dispatcher (component M): a
// single do_action-style entry point every user-visible command funnels
// through, plus the command-line tokenizer that turns one typed or
// macro-replayed line into an action name and argument, grounded on
// command.c's do_action/parse_command_line pair.
package dispatch

import (
	"strconv"
	"strings"

	"github.com/vigna-ne/ne/pkg/status"
)

// ArgFlag is the per-action argument policy, grounded on command.c's
// per-command bit flags (NO_ARGS, ARG_IS_STRING, IS_OPTION, DO_NOT_RECORD,
// EMPTY_STRING_OK).
type ArgFlag int

const (
	// NoArgs rejects any trailing argument text.
	NoArgs ArgFlag = 1 << iota
	// ArgIsString routes the trailing text to StrArg instead of IntArg.
	ArgIsString
	// IsOption lets the action run even while the registry is in
	// options-only mode (prefs loading before the screen exists).
	IsOption
	// DoNotRecord excludes the action from a live macro recording.
	DoNotRecord
	// EmptyStringOK allows a quoted-empty ("") string argument through.
	EmptyStringOK
)

// Action is one registered command: its canonical and short names, its
// argument policy, and the function that actually performs it.
type Action struct {
	Name      string
	ShortName string
	Flags     ArgFlag
	Run       func(ctx *Context, intArg int64, strArg string) status.Status
}

// Registry is the flat table of every known action, looked up by either
// its long or short name. The original hashes both name forms into the
// same slot; a plain map gives the same lookup semantics without needing
// a perfect-hash generator.
type Registry struct {
	byName map[string]*Action
}

// NewRegistry returns an empty action table.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Action)}
}

// Register adds a to the table, indexed by both its long and (if any)
// short name.
func (r *Registry) Register(a *Action) {
	r.byName[a.Name] = a
	if a.ShortName != "" {
		r.byName[a.ShortName] = a
	}
}

// Lookup finds an action by either of its registered names.
func (r *Registry) Lookup(name string) (*Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// parseCLongPrefix consumes the longest leading substring of s that forms
// a valid C integer literal (optional sign, then decimal, 0x-hex, or
// 0-octal digits) and parses it, returning the unconsumed remainder.
func parseCLongPrefix(s string) (int64, string, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	if i+1 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') {
		i += 2
		for i < len(s) && isHexDigit(s[i]) {
			i++
		}
	} else {
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i == digitsStart {
		return 0, s, false
	}
	token := s[:i]
	n, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

// ParseCommandLine tokenizes one command line: a leading keyword (looked
// up against the registry by its exact, case-sensitive long or short
// name), then
// its argument, if any, as either a quoted/unquoted string or a signed
// 64-bit integer in any C-style base. A blank line or one that does not
// start with a letter is a no-op (the original treats it as a comment),
// reported as an empty action name with status.OK. execOnlyOptions mirrors
// exec_only_options: true while loading prefs, before any non-option
// command is allowed to run.
func (r *Registry) ParseCommandLine(line string, execOnlyOptions bool) (name string, intArg int64, strArg string, st status.Status) {
	intArg = -1

	p := line
	for len(p) > 0 && isSpace(p[0]) {
		p = p[1:]
	}
	if p == "" {
		return "", intArg, "", status.OK
	}
	if !isAlpha(p[0]) {
		return "", intArg, "", status.OK
	}

	i := 0
	for i < len(p) && !isSpace(p[i]) {
		i++
	}
	word := p[:i]
	rest := p[i:]
	for len(rest) > 0 && isSpace(rest[0]) {
		rest = rest[1:]
	}

	act, ok := r.Lookup(word)
	if !ok {
		return "", intArg, "", status.NO_SUCH_COMMAND
	}

	if rest != "" && act.Flags&NoArgs != 0 {
		return "", intArg, "", status.HAS_NO_ARGUMENT
	}

	looksLikeAnArg := rest == "" || act.Flags&ArgIsString != 0 ||
		isHexDigit(rest[0]) || rest[0] == 'x' || rest[0] == 'X'
	if !looksLikeAnArg {
		return "", intArg, "", status.HAS_NUMERIC_ARGUMENT
	}

	if act.Flags&IsOption == 0 && execOnlyOptions {
		return "", intArg, "", status.CAN_EXECUTE_ONLY_OPTIONS
	}

	if rest != "" {
		if act.Flags&ArgIsString != 0 {
			s := rest
			if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
				s = s[1 : len(s)-1]
			}
			if s == "" && act.Flags&EmptyStringOK == 0 {
				return "", intArg, "", status.STRING_IS_EMPTY
			}
			strArg = s
		} else {
			n, remainder, ok := parseCLongPrefix(rest)
			if !ok || (remainder != "" && !isSpace(remainder[0])) {
				return "", intArg, "", status.NOT_A_NUMBER
			}
			intArg = n
		}
	}

	return act.Name, intArg, strArg, status.OK
}
