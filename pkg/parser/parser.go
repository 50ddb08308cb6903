package parser

import (
	"fmt"
	"strconv"

	"github.com/Fudmottin/clanker/pkg/lexer"
)

// Parser lexes and parses one input buffer per Parse call. Stateless.
type Parser struct {
	lex *lexer.Lexer
}

// New returns a Parser.
func New() *Parser {
	return &Parser{lex: lexer.New()}
}

// Parse tokenizes input and parses it into a Result. Lexical incompleteness
// (open quotes, dangling escapes) and pending control operators both come
// back as Incomplete so the caller can keep accumulating lines.
func (p *Parser) Parse(input string) Result {
	lr := p.lex.Lex(input)
	switch lr.Kind {
	case lexer.Incomplete:
		return Result{Kind: Incomplete}
	case lexer.Error:
		return Result{Kind: Error, Message: fmt.Sprintf("%s at %s", lr.Message, lr.Loc)}
	}
	return parseTokens(lr.Tokens)
}

// incompleteParse signals a pending operator at end of input; it unwinds the
// descent so Parse can report Incomplete instead of an error.
type incompleteParse struct{}

type parseError struct{ msg string }

func (e parseError) Error() string { return e.msg }

type tokenParser struct {
	toks []lexer.Token
	pos  int
}

func parseTokens(toks []lexer.Token) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case incompleteParse:
				res = Result{Kind: Incomplete}
			case parseError:
				res = Result{Kind: Error, Message: r.(parseError).msg}
			default:
				panic(r)
			}
		}
	}()

	tp := &tokenParser{toks: toks}
	list := tp.parseList()

	// Single unterminated pipeline: expose it bare for the common
	// interactive case.
	if list.Trailing == nil && len(list.Items) == 1 &&
		list.Items[0].Term == TermNone && len(list.Items[0].Cmd.Rest) == 0 {
		pl := list.Items[0].Cmd.First
		return Result{Kind: Complete, Pipeline: &pl}
	}
	return Result{Kind: Complete, List: &list}
}

func (tp *tokenParser) cur() lexer.Token { return tp.toks[tp.pos] }

func (tp *tokenParser) advance() {
	if tp.cur().Kind != lexer.End {
		tp.pos++
	}
}

func (tp *tokenParser) fail(format string, args ...any) {
	panic(parseError{fmt.Sprintf(format, args...)})
}

func terminatorFor(k lexer.Kind) (Terminator, bool) {
	switch k {
	case lexer.Semicolon:
		return TermSemicolon, true
	case lexer.Newline:
		return TermNewline, true
	case lexer.Ampersand:
		return TermAmpersand, true
	}
	return TermNone, false
}

func (tp *tokenParser) parseList() CommandList {
	var list CommandList
	for {
		t := tp.cur()
		if t.Kind == lexer.End {
			return list
		}
		if term, ok := terminatorFor(t.Kind); ok {
			// Terminator with nothing pending: blank separator, or the
			// list's trailing terminator if input ends here.
			tp.advance()
			if tp.cur().Kind == lexer.End {
				list.Trailing = &term
				return list
			}
			continue
		}
		cmd := tp.parseAndOr()
		item := CommandListItem{Cmd: cmd, Term: TermNone}
		if term, ok := terminatorFor(tp.cur().Kind); ok {
			item.Term = term
			tp.advance()
		}
		list.Items = append(list.Items, item)
	}
}

func (tp *tokenParser) parseAndOr() AndOr {
	chain := AndOr{First: tp.parsePipeline()}
	for {
		var op AndOrOp
		switch tp.cur().Kind {
		case lexer.AndIf:
			op = OpAndIf
		case lexer.OrIf:
			op = OpOrIf
		default:
			return chain
		}
		tp.advance()
		tp.skipNewlines()
		if tp.cur().Kind == lexer.End {
			panic(incompleteParse{})
		}
		chain.Rest = append(chain.Rest, AndOrTail{Op: op, RHS: tp.parsePipeline()})
	}
}

func (tp *tokenParser) parsePipeline() Pipeline {
	pl := Pipeline{Stages: []SimpleCommand{tp.parseSimple()}}
	for tp.cur().Kind == lexer.Pipe {
		tp.advance()
		tp.skipNewlines()
		if tp.cur().Kind == lexer.End {
			panic(incompleteParse{})
		}
		pl.Stages = append(pl.Stages, tp.parseSimple())
	}
	return pl
}

// skipNewlines discards newline tokens after a control operator, so that
// multi-line continuations parse the same as one line.
func (tp *tokenParser) skipNewlines() {
	for tp.cur().Kind == lexer.Newline {
		tp.advance()
	}
}

// parseSimple consumes one stage: words and redirections in any order.
// A stage with neither is a syntax error.
func (tp *tokenParser) parseSimple() SimpleCommand {
	var cmd SimpleCommand
	for {
		t := tp.cur()
		switch t.Kind {
		case lexer.Word:
			cmd.Argv = append(cmd.Argv, t.Text)
			tp.advance()

		case lexer.IoNumber:
			fd, err := strconv.Atoi(t.Text)
			if err != nil {
				tp.fail("bad file descriptor %q", t.Text)
			}
			tp.advance()
			kind, ok := redirKindFor(tp.cur().Kind)
			if !ok {
				tp.fail("expected redirection operator after io number at %s", t.Loc)
			}
			tp.advance()
			cmd.Redirs = append(cmd.Redirs, Redirection{FD: fd, Kind: kind, Target: tp.redirTarget()})

		case lexer.RedirectIn, lexer.RedirectOut, lexer.RedirectAppend:
			kind, _ := redirKindFor(t.Kind)
			tp.advance()
			fd := 1
			if kind == RedirIn {
				fd = 0
			}
			cmd.Redirs = append(cmd.Redirs, Redirection{FD: fd, Kind: kind, Target: tp.redirTarget()})

		default:
			if len(cmd.Argv) == 0 && len(cmd.Redirs) == 0 {
				tp.fail("expected command, got %s", t.Kind)
			}
			return cmd
		}
	}
}

func (tp *tokenParser) redirTarget() string {
	t := tp.cur()
	if t.Kind != lexer.Word {
		tp.fail("expected redirection target, got %s", t.Kind)
	}
	tp.advance()
	return t.Text
}

func redirKindFor(k lexer.Kind) (RedirKind, bool) {
	switch k {
	case lexer.RedirectIn:
		return RedirIn, true
	case lexer.RedirectOut:
		return RedirOutTrunc, true
	case lexer.RedirectAppend:
		return RedirOutAppend, true
	}
	return 0, false
}
