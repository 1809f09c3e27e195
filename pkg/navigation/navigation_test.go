package navigation

import (
	"testing"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/encoding"
)

func newTestBuffer(lines string) *buffer.Buffer {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte(lines))
	b.CurLineNum, b.CurPosBytes, b.CurLine = 0, 0, b.Head
	return b
}

func TestLineDownThenLineUpRoundTrips(t *testing.T) {
	b := newTestBuffer("abc\x00de")
	if st := LineDown(b); !st.OK() {
		t.Fatalf("LineDown = %v", st)
	}
	if b.CurLineNum != 1 || string(b.CurLine.Bytes()) != "de" {
		t.Fatalf("after LineDown, cursor = (%d,%q), want (1,\"de\")", b.CurLineNum, b.CurLine.Bytes())
	}
	if st := LineUp(b); !st.OK() {
		t.Fatalf("LineUp = %v", st)
	}
	if b.CurLineNum != 0 || string(b.CurLine.Bytes()) != "abc" {
		t.Errorf("after LineUp, cursor = (%d,%q), want (0,\"abc\")", b.CurLineNum, b.CurLine.Bytes())
	}
}

func TestLineUpAtTopFails(t *testing.T) {
	b := newTestBuffer("abc")
	if st := LineUp(b); st.OK() {
		t.Errorf("LineUp at line 0 should fail")
	}
}

func TestLineDownAtBottomFails(t *testing.T) {
	b := newTestBuffer("abc")
	if st := LineDown(b); st.OK() {
		t.Errorf("LineDown at the last line should fail")
	}
}

func TestPageDownClampsToLastLine(t *testing.T) {
	b := newTestBuffer("a\x00b\x00c")
	if st := PageDown(b, 10); !st.OK() {
		t.Fatalf("PageDown = %v", st)
	}
	if b.CurLineNum != 2 || string(b.CurLine.Bytes()) != "c" {
		t.Errorf("cursor = (%d,%q), want (2,\"c\") after paging past the end", b.CurLineNum, b.CurLine.Bytes())
	}
}

func TestCharRightCrossesLineBreak(t *testing.T) {
	b := newTestBuffer("ab\x00cd")
	b.CurPosBytes = 2
	if st := CharRight(b); !st.OK() {
		t.Fatalf("CharRight = %v", st)
	}
	if b.CurLineNum != 1 || b.CurPosBytes != 0 || string(b.CurLine.Bytes()) != "cd" {
		t.Errorf("cursor = (%d,%d,%q), want (1,0,\"cd\")", b.CurLineNum, b.CurPosBytes, b.CurLine.Bytes())
	}
}

func TestCharLeftCrossesLineBreak(t *testing.T) {
	b := newTestBuffer("ab\x00cd")
	b.CurLineNum, b.CurPosBytes, b.CurLine = 1, 0, b.NthLineDesc(1)
	if st := CharLeft(b); !st.OK() {
		t.Fatalf("CharLeft = %v", st)
	}
	if b.CurLineNum != 0 || b.CurPosBytes != 2 || string(b.CurLine.Bytes()) != "ab" {
		t.Errorf("cursor = (%d,%d,%q), want (0,2,\"ab\")", b.CurLineNum, b.CurPosBytes, b.CurLine.Bytes())
	}
}

func TestCharLeftAtStartOfFirstLineFails(t *testing.T) {
	b := newTestBuffer("ab")
	if st := CharLeft(b); st.OK() {
		t.Errorf("CharLeft at (0,0) should fail")
	}
}

func TestGotoLineClampsCursorColumn(t *testing.T) {
	b := newTestBuffer("abcdef\x00xy")
	b.CurPosBytes = 5
	if st := GotoLine(b, 1); !st.OK() {
		t.Fatalf("GotoLine = %v", st)
	}
	if b.CurLineNum != 1 || string(b.CurLine.Bytes()) != "xy" {
		t.Fatalf("cursor line = (%d,%q), want (1,\"xy\")", b.CurLineNum, b.CurLine.Bytes())
	}
	if b.CurPosBytes != 2 {
		t.Errorf("CurPosBytes = %d, want clamped to 2 (line length)", b.CurPosBytes)
	}
}

func TestGotoLineOutOfRangeFails(t *testing.T) {
	b := newTestBuffer("abc")
	if st := GotoLine(b, 5); st.OK() {
		t.Errorf("GotoLine(5) on a one-line buffer should fail")
	}
}

func TestGotoPosFindsLineAndOffset(t *testing.T) {
	b := newTestBuffer("abc\x00de")
	if st := GotoPos(b, 5); !st.OK() {
		t.Fatalf("GotoPos = %v", st)
	}
	if b.CurLineNum != 1 || b.CurPosBytes != 1 {
		t.Errorf("cursor = (%d,%d), want (1,1) for offset 5 in \"abc\\nde\"", b.CurLineNum, b.CurPosBytes)
	}
}

func TestSearchWordForwardSkipsSeparators(t *testing.T) {
	b := newTestBuffer("foo  bar")
	if st := SearchWord(b, true); !st.OK() {
		t.Fatalf("SearchWord(forward) = %v", st)
	}
	if b.CurPosBytes != 5 {
		t.Errorf("CurPosBytes = %d, want 5 (start of \"bar\")", b.CurPosBytes)
	}
}

func TestSearchWordForwardCrossesLines(t *testing.T) {
	b := newTestBuffer("foo\x00bar")
	b.CurPosBytes = 3
	if st := SearchWord(b, true); !st.OK() {
		t.Fatalf("SearchWord(forward) = %v", st)
	}
	if b.CurLineNum != 1 || b.CurPosBytes != 0 {
		t.Errorf("cursor = (%d,%d), want (1,0) at the start of the next line's word", b.CurLineNum, b.CurPosBytes)
	}
}

func TestSearchWordBackward(t *testing.T) {
	b := newTestBuffer("foo bar")
	b.CurPosBytes = 7
	if st := SearchWord(b, false); !st.OK() {
		t.Fatalf("SearchWord(backward) = %v", st)
	}
	if b.CurPosBytes != 4 {
		t.Errorf("CurPosBytes = %d, want 4 (start of \"bar\")", b.CurPosBytes)
	}
}

func TestMoveToEOW(t *testing.T) {
	b := newTestBuffer("foo bar")
	if st := MoveToEOW(b); !st.OK() {
		t.Fatalf("MoveToEOW = %v", st)
	}
	if b.CurPosBytes != 3 {
		t.Errorf("CurPosBytes = %d, want 3 (end of \"foo\")", b.CurPosBytes)
	}
}

func TestMatchBracketForward(t *testing.T) {
	b := newTestBuffer("(a(b)c)")
	if st := MatchBracket(b); !st.OK() {
		t.Fatalf("MatchBracket = %v", st)
	}
	if b.CurPosBytes != 6 {
		t.Errorf("CurPosBytes = %d, want 6 (matching closing paren)", b.CurPosBytes)
	}
}

func TestMatchBracketBackward(t *testing.T) {
	b := newTestBuffer("(a(b)c)")
	b.CurPosBytes = 7
	if st := MatchBracket(b); !st.OK() {
		t.Fatalf("MatchBracket = %v", st)
	}
	if b.CurPosBytes != 0 {
		t.Errorf("CurPosBytes = %d, want 0 (matching opening paren)", b.CurPosBytes)
	}
}

func TestMatchBracketNotOnABracket(t *testing.T) {
	b := newTestBuffer("abc")
	if st := MatchBracket(b); st.OK() {
		t.Errorf("MatchBracket away from any bracket should fail")
	}
}

func TestAdjustViewTopAndMagnitude(t *testing.T) {
	b := newTestBuffer("a\x00b\x00c")
	b.CurLineNum = 2
	if st := AdjustView(b, "T5", 10, 80); !st.OK() {
		t.Fatalf("AdjustView = %v", st)
	}
	if b.WinY != 7 {
		t.Errorf("WinY = %d, want 7 (CurLineNum 2 + magnitude 5)", b.WinY)
	}
}

func TestAdjustViewRejectsUnknownDirective(t *testing.T) {
	b := newTestBuffer("abc")
	if st := AdjustView(b, "Q", 10, 80); st.OK() {
		t.Errorf("AdjustView with an unknown directive should fail")
	}
}
