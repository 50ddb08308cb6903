package lexer_test

import (
	"testing"

	"github.com/Fudmottin/clanker/pkg/lexer"
)

func FuzzLex(f *testing.F) {
	seeds := []string{
		"",
		"echo hi",
		"a | b && c || d & e; f",
		"'single' \"double \\\" esc\" '''triple'''",
		"`backtick \\` esc`",
		"{brace | group} $(sub $(nested))",
		"2> err 0< in 1>> app",
		"# comment\nnext",
		"cont\\\ninuation",
		"\\",
		"'open",
		"\x00\xff\xfe",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		r := lexer.New().Lex(input)
		switch r.Kind {
		case lexer.Complete:
			if n := len(r.Tokens); n == 0 || r.Tokens[n-1].Kind != lexer.End {
				t.Fatalf("complete stream does not end with End: %v", r.Tokens)
			}
			for _, tok := range r.Tokens {
				if tok.Kind == lexer.Word && tok.Text == "" {
					t.Fatal("empty word emitted")
				}
				if tok.Loc.Line < 1 || tok.Loc.Col < 1 {
					t.Fatalf("bad location %+v", tok.Loc)
				}
			}
		case lexer.Error:
			if r.Message == "" {
				t.Fatal("error result without message")
			}
		}
	})
}
