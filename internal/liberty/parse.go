package liberty

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFile reads and parses a Liberty source file.
func ParseFile(path string) (*Library, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read liberty source %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse parses Liberty text. The name is used in error positions only.
func Parse(src []byte, name string) (*Library, error) {
	p := &parser{lexer: lexer{src: src, name: name, line: 1}}
	p.next()

	lib := &Library{}
	for p.tok.kind != tokEOF {
		g, err := p.parseStatement(nil)
		if err != nil {
			return nil, err
		}
		if g != nil {
			lib.Groups = append(lib.Groups, g)
		}
	}
	if len(lib.Groups) == 0 {
		return nil, fmt.Errorf("%s: no groups found", name)
	}
	return lib, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokColon
	tokSemi
	tokComma
)

type token struct {
	kind tokKind
	text string
	line int
}

type lexer struct {
	src  []byte
	name string
	pos  int
	line int
}

func (l *lexer) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", l.name, line, fmt.Sprintf(format, args...))
}

// next scans the next token, skipping whitespace, comments, and line
// continuations.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\\':
			// Line continuation: backslash followed by end of line.
			l.pos++
			for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\r') {
				l.pos++
			}
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.line++
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			end := strings.Index(string(l.src[l.pos+2:]), "*/")
			if end < 0 {
				return token{}, l.errorf(l.line, "unterminated comment")
			}
			l.line += strings.Count(string(l.src[l.pos:l.pos+2+end+2]), "\n")
			l.pos += 2 + end + 2
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return l.scan()
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

func (l *lexer) scan() (token, error) {
	line := l.line
	c := l.src[l.pos]
	switch c {
	case '(':
		l.pos++
		return token{tokLParen, "(", line}, nil
	case ')':
		l.pos++
		return token{tokRParen, ")", line}, nil
	case '{':
		l.pos++
		return token{tokLBrace, "{", line}, nil
	case '}':
		l.pos++
		return token{tokRBrace, "}", line}, nil
	case ':':
		l.pos++
		return token{tokColon, ":", line}, nil
	case ';':
		l.pos++
		return token{tokSemi, ";", line}, nil
	case ',':
		l.pos++
		return token{tokComma, ",", line}, nil
	case '"':
		return l.scanString()
	}
	return l.scanAtom()
}

// scanString reads a quoted string. A backslash-newline inside the quotes
// is preserved as a newline so multi-row value blocks keep their row
// structure, matching how the native reader exposes them.
func (l *lexer) scanString() (token, error) {
	line := l.line
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{tokString, b.String(), line}, nil
		case '\\':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
				b.WriteByte('\n')
				l.line++
				l.pos += 2
				continue
			}
			l.pos++
			if l.pos < len(l.src) {
				b.WriteByte(l.src[l.pos])
				l.pos++
			}
		case '\n':
			return token{}, l.errorf(line, "unterminated string")
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return token{}, l.errorf(line, "unterminated string")
}

// scanAtom reads a bare identifier, number, or expression fragment.
func (l *lexer) scanAtom() (token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && !isDelim(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return token{}, l.errorf(line, "unexpected character %q", l.src[l.pos])
	}
	return token{tokIdent, string(l.src[start:l.pos]), line}, nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', '{', '}', ':', ';', ',', '"', '\\':
		return true
	}
	return false
}

type parser struct {
	lexer
	tok token
	err error
}

func (p *parser) next() {
	if p.err != nil {
		return
	}
	p.tok, p.err = p.lexer.next()
}

func (p *parser) expect(kind tokKind, what string) error {
	if p.err != nil {
		return p.err
	}
	if p.tok.kind != kind {
		return p.errorf(p.tok.line, "expected %s, found %q", what, p.tok.text)
	}
	p.next()
	return p.err
}

// parseStatement parses one statement. Group statements are returned;
// attribute statements are appended to parent (which must be non-nil for
// them) and a nil group is returned.
func (p *parser) parseStatement(parent *Group) (*Group, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokIdent {
		return nil, p.errorf(p.tok.line, "expected statement, found %q", p.tok.text)
	}
	name := p.tok.text
	line := p.tok.line
	p.next()

	switch p.tok.kind {
	case tokColon:
		// Simple attribute: name : value ;
		p.next()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if p.tok.kind == tokSemi {
			p.next()
		}
		if parent == nil {
			return nil, p.errorf(line, "attribute %q outside a group", name)
		}
		parent.attrs = append(parent.attrs, &Attr{name: name, kind: SimpleAttr, simple: v})
		return nil, p.err

	case tokLParen:
		p.next()
		var vals []Value
		for p.tok.kind != tokRParen {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
			if p.tok.kind == tokComma {
				p.next()
			}
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}

		if p.tok.kind == tokLBrace {
			// Group statement.
			p.next()
			g := &Group{typ: name, names: vals}
			for p.tok.kind != tokRBrace {
				if p.tok.kind == tokEOF {
					return nil, p.errorf(line, "unterminated group %q", name)
				}
				sub, err := p.parseStatement(g)
				if err != nil {
					return nil, err
				}
				if sub != nil {
					g.groups = append(g.groups, sub)
				}
			}
			p.next() // }
			if p.tok.kind == tokSemi {
				p.next()
			}
			return g, p.err
		}

		// Complex attribute.
		if p.tok.kind == tokSemi {
			p.next()
		}
		if parent == nil {
			return nil, p.errorf(line, "attribute %q outside a group", name)
		}
		parent.attrs = append(parent.attrs, &Attr{name: name, kind: ComplexAttr, values: vals})
		return nil, p.err
	}
	return nil, p.errorf(line, "expected ':' or '(' after %q", name)
}

func (p *parser) parseValue() (Value, error) {
	if p.err != nil {
		return Value{}, p.err
	}
	switch p.tok.kind {
	case tokString:
		v := Value{Kind: StringValue, Str: p.tok.text}
		p.next()
		return v, p.err
	case tokIdent:
		text := p.tok.text
		p.next()
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Value{Kind: NumberValue, Num: f, Raw: text}, p.err
		}
		return Value{Kind: IdentValue, Str: text}, p.err
	}
	return Value{}, p.errorf(p.tok.line, "expected value, found %q", p.tok.text)
}
