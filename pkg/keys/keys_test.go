package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vigna-ne/ne/pkg/status"
)

func writeKeysFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".keys"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	tbl, st := Load(dir)
	if !st.OK() {
		t.Fatalf("Load = %v, want OK", st)
	}
	if len(tbl.Commands) != 0 || len(tbl.Sequences) != 0 {
		t.Errorf("expected an empty table, got %+v", tbl)
	}
}

func TestLoadMergesInOverrideOrder(t *testing.T) {
	global := t.TempDir()
	user := t.TempDir()
	writeKeysFile(t, global, "KEY 0109 MoveToSOL\n")
	writeKeysFile(t, user, "KEY 0109 MoveToEOL\n")

	tbl, st := Load(global, user)
	if !st.OK() {
		t.Fatalf("Load = %v", st)
	}
	if cmd, ok := tbl.CommandFor(0x109); !ok || cmd != "MoveToEOL" {
		t.Errorf("CommandFor(0x109) = %q, %v, want %q, true", cmd, ok, "MoveToEOL")
	}
}

func TestLoadSkipsBlankLinesAndComments(t *testing.T) {
	dir := t.TempDir()
	writeKeysFile(t, dir, "# a comment\n\nKEY 0109 MoveToSOL\n")

	tbl, st := Load(dir)
	if !st.OK() {
		t.Fatalf("Load = %v", st)
	}
	if cmd, ok := tbl.CommandFor(0x109); !ok || cmd != "MoveToSOL" {
		t.Errorf("CommandFor(0x109) = %q, %v", cmd, ok)
	}
}

func TestParseKeyLineBindsCommand(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseKeyLine("109 MoveToSOL"); !st.OK() {
		t.Fatalf("parseKeyLine = %v", st)
	}
	if cmd, ok := tbl.CommandFor(0x109); !ok || cmd != "MoveToSOL" {
		t.Errorf("CommandFor(0x109) = %q, %v", cmd, ok)
	}
}

func TestParseKeyLineRejectsEscape(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseKeyLine("1b Quit"); st != status.CANT_REBIND_ESCAPE_OR_RETURN {
		t.Errorf("parseKeyLine(ESC) = %v, want CANT_REBIND_ESCAPE_OR_RETURN", st)
	}
}

func TestParseKeyLineRejectsReturn(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseKeyLine("d InsertLine"); st != status.CANT_REBIND_ESCAPE_OR_RETURN {
		t.Errorf("parseKeyLine(RETURN) = %v, want CANT_REBIND_ESCAPE_OR_RETURN", st)
	}
}

func TestParseKeyLineMalformed(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseKeyLine("zz MoveToSOL"); st != status.SYNTAX_ERROR {
		t.Errorf("parseKeyLine(bad hex) = %v, want SYNTAX_ERROR", st)
	}
	if st := tbl.parseKeyLine("109"); st != status.SYNTAX_ERROR {
		t.Errorf("parseKeyLine(no command) = %v, want SYNTAX_ERROR", st)
	}
}

func TestParseSeqLineBindsCode(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseSeqLine(`"\x1b[A" 101`); !st.OK() {
		t.Fatalf("parseSeqLine = %v", st)
	}
	code, ok := tbl.Sequences["\x1b[A"]
	if !ok || code != Up {
		t.Errorf("Sequences[...] = %d, %v, want %d, true", code, ok, Up)
	}
}

func TestParseSeqLineRejectsEscapeCode(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseSeqLine(`"\x1b[Z" 1b`); st != status.CANT_REBIND_ESCAPE_OR_RETURN {
		t.Errorf("parseSeqLine(ESC code) = %v, want CANT_REBIND_ESCAPE_OR_RETURN", st)
	}
}

func TestParseSeqLineMalformed(t *testing.T) {
	tbl := newTable()
	if st := tbl.parseSeqLine(`unquoted 101`); st != status.SYNTAX_ERROR {
		t.Errorf("parseSeqLine(unquoted) = %v, want SYNTAX_ERROR", st)
	}
	if st := tbl.parseSeqLine(`"\x1b[A"`); st != status.SYNTAX_ERROR {
		t.Errorf("parseSeqLine(no code) = %v, want SYNTAX_ERROR", st)
	}
}

func TestParseQuotedStringDecodesEscapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"\x1b[A" rest`, "\x1b[A"},
		{`"\n\t\r" rest`, "\n\t\r"},
		{`"\0" rest`, "\x00"},
		{`"\\" rest`, "\\"},
	}
	for _, c := range cases {
		decoded, rest, ok := parseQuotedString(c.in)
		if !ok {
			t.Errorf("parseQuotedString(%q) failed to parse", c.in)
			continue
		}
		if decoded != c.want {
			t.Errorf("parseQuotedString(%q) = %q, want %q", c.in, decoded, c.want)
		}
		if rest != " rest" {
			t.Errorf("parseQuotedString(%q) rest = %q, want %q", c.in, rest, " rest")
		}
	}
}

func TestParseQuotedStringUnterminated(t *testing.T) {
	if _, _, ok := parseQuotedString(`"\x1b[A`); ok {
		t.Errorf("expected failure on an unterminated quoted string")
	}
}

func TestMatchSequencePrefersLongestPrefix(t *testing.T) {
	tbl := newTable()
	tbl.Sequences["\x1b"] = Escape
	tbl.Sequences["\x1b[A"] = Up

	code, length, ok := tbl.MatchSequence([]byte("\x1b[A extra"))
	if !ok {
		t.Fatal("MatchSequence failed to match")
	}
	if code != Up || length != len("\x1b[A") {
		t.Errorf("MatchSequence = %d, %d, want %d, %d", code, length, Up, len("\x1b[A"))
	}
}

func TestMatchSequenceNoMatch(t *testing.T) {
	tbl := newTable()
	tbl.Sequences["\x1b[A"] = Up
	if _, _, ok := tbl.MatchSequence([]byte("xyz")); ok {
		t.Errorf("expected no match")
	}
}

func TestStringSummarizesCounts(t *testing.T) {
	tbl := newTable()
	tbl.Commands[0x109] = "MoveToSOL"
	tbl.Sequences["\x1b[A"] = Up
	if got := tbl.String(); got != "1 key bindings, 1 sequence bindings" {
		t.Errorf("String() = %q", got)
	}
}
