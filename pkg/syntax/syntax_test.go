package syntax

import "testing"

// buildQuoteSyntax returns a tiny two-state syntax: state 0 (code) colors
// everything 1; hitting a quote enters state 1 (string) colored 2, saving
// the quote as the closing delimiter; state 1's delimiter edge (matching
// the saved quote) returns to state 0. Neither state recolors its entry
// character, matching syntax.c's parse(): a transition's own byte is
// painted with the *pre*-transition state's color, and only a later byte
// (or an explicit Recolor) picks up the new state's color.
func buildQuoteSyntax() *Syntax {
	code := &State{Name: "code", Color: 1}
	str := &State{Name: "string", Color: 2}

	enterString := &Edge{Target: 1, SaveC: true}
	for c := 0; c < 256; c++ {
		code.Edges[c] = &Edge{Target: 0}
	}
	code.Edges['"'] = enterString

	closeString := &Edge{Target: 0}
	for c := 0; c < 256; c++ {
		str.Edges[c] = &Edge{Target: 1}
	}
	str.Delim = closeString

	return &Syntax{Name: "quote", States: []*State{code, str}, RootState: 0}
}

func TestParseLineBasicColoring(t *testing.T) {
	s := buildQuoteSyntax()
	attrs, next := s.ParseLine(nil, []byte(`a "bc" d`))
	// index: 0 1 2   3 4 5   6 7
	// char:  a _ "   b c "   _ d
	// the opening quote (2) still shows the code color it was read in;
	// the closing quote (5) shows the string color it was read in.
	want := []byte{1, 1, 1, 2, 2, 2, 1, 1}
	if len(attrs) != len(want) {
		t.Fatalf("len(attrs) = %d, want %d", len(attrs), len(want))
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("attrs[%d] = %d, want %d", i, attrs[i], want[i])
		}
	}
	if next.State != 0 {
		t.Errorf("final state = %d, want 0 (string closed)", next.State)
	}
}

func TestParseLineCarriesStateAcrossLines(t *testing.T) {
	s := buildQuoteSyntax()
	_, next1 := s.ParseLine(nil, []byte(`say "open`))
	if next1.State != 1 {
		t.Fatalf("after unterminated string, state = %d, want 1", next1.State)
	}
	attrs2, next2 := s.ParseLine(next1, []byte(`end" code`))
	if attrs2[0] != 2 {
		t.Errorf("attrs2[0] = %d, want 2 (still inside the carried-over string)", attrs2[0])
	}
	if attrs2[4] != 1 {
		t.Errorf("attrs2[4] = %d, want 1 (first byte fully inside code after the close)", attrs2[4])
	}
	if next2.State != 0 {
		t.Errorf("final state = %d, want 0", next2.State)
	}
}

func TestParseLineIdempotent(t *testing.T) {
	s := buildQuoteSyntax()
	line := []byte(`x = "a\"b" + 1`)
	attrs1, next1 := s.ParseLine(nil, line)
	attrs2, next2 := s.ParseLine(nil, line)
	if string(attrs1) != string(attrs2) {
		t.Errorf("attrs differ between identical parses: %v vs %v", attrs1, attrs2)
	}
	if !next1.Equal(next2) {
		t.Errorf("final states differ between identical parses")
	}
}

// buildKeywordSyntax models the common real-world pattern of an
// identifier-entry edge carrying Recolor: -1 so the just-read character is
// immediately repainted in the state it entered, and a keyword-hash edge
// that redirects to a dedicated keyword-colored state; the redirect
// retroactively repaints the whole buffered name via the same mechanism
// syntax.c uses for "recolor_delimiter_or_keyword".
func buildKeywordSyntax() *Syntax {
	code := &State{Name: "code", Color: 1}
	ident := &State{Name: "ident", Color: 3}
	kw := &State{Name: "keyword", Color: 5}

	isIdentByte := func(c byte) bool {
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}

	kwEdge := &Edge{Target: 2, StopBuffer: true}
	keywords := map[string]*Edge{"if": kwEdge, "for": kwEdge}

	for c := 0; c < 256; c++ {
		if isIdentByte(byte(c)) {
			code.Edges[c] = &Edge{Target: 1, StartBuffer: true, Recolor: -1}
		} else {
			code.Edges[c] = &Edge{Target: 0}
		}
	}
	for c := 0; c < 256; c++ {
		if isIdentByte(byte(c)) {
			ident.Edges[c] = &Edge{Target: 1, Recolor: -1}
		} else {
			ident.Edges[c] = &Edge{Target: 0, StopBuffer: true, Keywords: keywords}
		}
	}
	kw.Edges = code.Edges // resume as plain code once past the keyword

	return &Syntax{Name: "kw", States: []*State{code, ident, kw}, RootState: 0}
}

func TestParseLineKeywordRedirect(t *testing.T) {
	s := buildKeywordSyntax()
	attrs, _ := s.ParseLine(nil, []byte(`if x`))
	// "if" is buffered then retroactively recolored to the keyword color
	// (5) when the trailing space triggers the keyword-hash redirect.
	if attrs[0] != 5 || attrs[1] != 5 {
		t.Errorf("attrs[0:2] = %v, want keyword color 5 for %q", attrs[:2], "if")
	}
	// 'x' enters the ident state with Recolor:-1, so it shows up
	// immediately as an identifier rather than lagging a character.
	if attrs[3] != 3 {
		t.Errorf("attrs[3] = %d, want 3 (identifier color) for %q", attrs[3], "x")
	}
}

func TestParseLineClosedStringEndsInRootState(t *testing.T) {
	s := buildQuoteSyntax()
	_, next := s.ParseLine(nil, []byte(`"closed"`))
	if next.State != 0 {
		t.Fatalf("expected closed string to return to state 0, got %d", next.State)
	}
}
