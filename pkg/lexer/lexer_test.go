package lexer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Fudmottin/clanker/pkg/lexer"
)

// kinds projects a token stream to its kinds, dropping locations.
func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

// words collects the text of all Word tokens.
func words(toks []lexer.Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == lexer.Word {
			out = append(out, t.Text)
		}
	}
	return out
}

func lexComplete(t *testing.T, input string) []lexer.Token {
	t.Helper()
	r := lexer.New().Lex(input)
	if r.Kind != lexer.Complete {
		t.Fatalf("Lex(%q) = %v (%s), want Complete", input, r.Kind, r.Message)
	}
	n := len(r.Tokens)
	if n == 0 || r.Tokens[n-1].Kind != lexer.End {
		t.Fatalf("Lex(%q) does not end with End: %v", input, r.Tokens)
	}
	return r.Tokens
}

func TestWordsAndOperators(t *testing.T) {
	tests := []struct {
		input string
		kinds []lexer.Kind
		words []string
	}{
		{"", []lexer.Kind{lexer.End}, nil},
		{"   \t ", []lexer.Kind{lexer.End}, nil},
		{"echo hi", []lexer.Kind{lexer.Word, lexer.Word, lexer.End}, []string{"echo", "hi"}},
		{"a|b", []lexer.Kind{lexer.Word, lexer.Pipe, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a || b", []lexer.Kind{lexer.Word, lexer.OrIf, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a && b", []lexer.Kind{lexer.Word, lexer.AndIf, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a & b", []lexer.Kind{lexer.Word, lexer.Ampersand, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a; b", []lexer.Kind{lexer.Word, lexer.Semicolon, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a\nb", []lexer.Kind{lexer.Word, lexer.Newline, lexer.Word, lexer.End}, []string{"a", "b"}},
		{"a < in > out", []lexer.Kind{lexer.Word, lexer.RedirectIn, lexer.Word, lexer.RedirectOut, lexer.Word, lexer.End}, []string{"a", "in", "out"}},
		{"a >> log", []lexer.Kind{lexer.Word, lexer.RedirectAppend, lexer.Word, lexer.End}, []string{"a", "log"}},
	}
	for _, tt := range tests {
		toks := lexComplete(t, tt.input)
		if diff := cmp.Diff(tt.kinds, kinds(toks)); diff != "" {
			t.Errorf("Lex(%q) kinds mismatch (-want +got):\n%s", tt.input, diff)
		}
		if diff := cmp.Diff(tt.words, words(toks)); diff != "" {
			t.Errorf("Lex(%q) words mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestIoNumbers(t *testing.T) {
	toks := lexComplete(t, "cmd 2> err.log 0< in 1>> out")
	want := []lexer.Kind{
		lexer.Word,
		lexer.IoNumber, lexer.RedirectOut, lexer.Word,
		lexer.IoNumber, lexer.RedirectIn, lexer.Word,
		lexer.IoNumber, lexer.RedirectAppend, lexer.Word,
		lexer.End,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if toks[1].Text != "2" || toks[4].Text != "0" || toks[7].Text != "1" {
		t.Errorf("io number texts = %q %q %q", toks[1].Text, toks[4].Text, toks[7].Text)
	}
}

func TestDigitsWithoutRedirectAreWords(t *testing.T) {
	toks := lexComplete(t, "echo 22 33")
	if diff := cmp.Diff([]string{"echo", "22", "33"}, words(toks)); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	// digits glued to a preceding word never form an io number
	toks = lexComplete(t, "foo2> bar")
	want := []lexer.Kind{lexer.Word, lexer.RedirectOut, lexer.Word, lexer.End}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if toks[0].Text != "foo2" {
		t.Errorf("first word = %q, want foo2", toks[0].Text)
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		input string
		words []string
	}{
		{`'a b'`, []string{"a b"}},
		{`"a b"`, []string{"a b"}},
		{`"a\"b"`, []string{`a"b`}},
		{`"a\\b"`, []string{`a\b`}},
		{`"a\nb"`, []string{"a\nb"}},
		{`a'b c'd`, []string{"ab cd"}},
		{`a"b"c`, []string{"abc"}},
		{"`a b`", []string{"a b"}},
		{"`a\\`b`", []string{"a`b"}},
		{`\|`, []string{"|"}},
		{`a\ b`, []string{"a b"}},
		{`'don'\''t'`, []string{"don't"}},
	}
	for _, tt := range tests {
		toks := lexComplete(t, tt.input)
		if diff := cmp.Diff(tt.words, words(toks)); diff != "" {
			t.Errorf("Lex(%q) words mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestTripleQuotes(t *testing.T) {
	toks := lexComplete(t, "'''a | b\nc'''")
	if diff := cmp.Diff([]string{"a | b\nc"}, words(toks)); diff != "" {
		t.Fatalf("triple single words mismatch (-want +got):\n%s", diff)
	}
	toks = lexComplete(t, `"""say "hi" now"""`)
	if diff := cmp.Diff([]string{`say "hi" now`}, words(toks)); diff != "" {
		t.Fatalf("triple double words mismatch (-want +got):\n%s", diff)
	}
}

func TestBraceAndSubstitutionGroups(t *testing.T) {
	// token boundaries are suppressed inside brace groups and $(...)
	toks := lexComplete(t, "{a | b}")
	if diff := cmp.Diff([]string{"{a | b}"}, words(toks)); diff != "" {
		t.Fatalf("brace group words mismatch (-want +got):\n%s", diff)
	}
	toks = lexComplete(t, "$(echo $(nested) x)")
	if diff := cmp.Diff([]string{"$(echo $(nested) x)"}, words(toks)); diff != "" {
		t.Fatalf("substitution words mismatch (-want +got):\n%s", diff)
	}
}

func TestComments(t *testing.T) {
	toks := lexComplete(t, "echo hi # trailing comment | not an op")
	if diff := cmp.Diff([]string{"echo", "hi"}, words(toks)); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	// comment runs to, but not including, the newline
	toks = lexComplete(t, "# full line\necho hi")
	want := []lexer.Kind{lexer.Newline, lexer.Word, lexer.Word, lexer.End}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	// a hash inside a word is literal
	toks = lexComplete(t, "echo a#b")
	if diff := cmp.Diff([]string{"echo", "a#b"}, words(toks)); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
}

func TestLineContinuation(t *testing.T) {
	toks := lexComplete(t, "echo a\\\nb")
	if diff := cmp.Diff([]string{"echo", "ab"}, words(toks)); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
}

func TestIncomplete(t *testing.T) {
	inputs := []string{
		"'open",
		`"open`,
		"'''open\nstill open",
		`"""open`,
		"`open",
		"{open",
		"$(open",
		"echo a\\",
		`"escaped \`,
	}
	for _, input := range inputs {
		r := lexer.New().Lex(input)
		if r.Kind != lexer.Incomplete {
			t.Errorf("Lex(%q) = %v, want Incomplete", input, r.Kind)
		}
	}
}

func TestBadEscapeInDoubleQuotes(t *testing.T) {
	r := lexer.New().Lex(`"bad \x escape"`)
	if r.Kind != lexer.Error {
		t.Fatalf("Lex = %v, want Error", r.Kind)
	}
	if r.Message == "" {
		t.Error("error result carries no message")
	}
}

func TestSourceLocations(t *testing.T) {
	toks := lexComplete(t, "ab cd\nef")
	// ab at 1:1, cd at 1:4, newline at 1:6, ef at 2:1
	wantLocs := []lexer.SourceLoc{
		{Index: 0, Line: 1, Col: 1},
		{Index: 3, Line: 1, Col: 4},
		{Index: 5, Line: 1, Col: 6},
		{Index: 6, Line: 2, Col: 1},
	}
	for i, want := range wantLocs {
		if toks[i].Loc != want {
			t.Errorf("token %d loc = %+v, want %+v", i, toks[i].Loc, want)
		}
	}
}

func TestRelexingPlainWordsIsIdempotent(t *testing.T) {
	// for words with no quoting, lexing the space-joined rendering
	// reproduces the same word list
	input := "echo one two three"
	first := words(lexComplete(t, input))
	rejoined := strings.Join(first, " ")
	second := words(lexComplete(t, rejoined))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("relex mismatch (-first +second):\n%s", diff)
	}
}
