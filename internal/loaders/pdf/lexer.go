package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// lexer tokenizes PDF object syntax. The same grammar covers indirect
// object bodies and content stream operands, so both parsers share it.
type lexer struct {
	data []byte
	pos  int
}

// token wraps a bare keyword such as a content stream operator or the
// R of an indirect reference.
type keyword string

func (l *lexer) eof() bool {
	return l.pos >= len(l.data)
}

func (l *lexer) skipSpace() {
	for !l.eof() {
		c := l.data[l.pos]
		if isSpace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for !l.eof() && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// value parses the next complete object, collapsing "N G R" triples
// into refs.
func (l *lexer) value() (any, error) {
	obj, err := l.token()
	if err != nil {
		return nil, err
	}

	// A number may start an indirect reference.
	num, ok := obj.(float64)
	if !ok || num != float64(int(num)) || num < 0 {
		return obj, nil
	}
	save := l.pos
	gen, err := l.token()
	if err == nil {
		if g, ok := gen.(float64); ok && g == float64(int(g)) && g >= 0 {
			kw, err := l.token()
			if err == nil && kw == keyword("R") {
				return ref{num: int(num), gen: int(g)}, nil
			}
		}
	}
	l.pos = save
	return obj, nil
}

// token parses one syntactic element: a number, string, name, array,
// dictionary, or bare keyword.
func (l *lexer) token() (any, error) {
	l.skipSpace()
	if l.eof() {
		return nil, fmt.Errorf("unexpected end of input")
	}

	c := l.data[l.pos]
	switch {
	case c == '/':
		return l.readName()
	case c == '(':
		return l.readString()
	case c == '[':
		return l.readArray()
	case c == '<' && l.peek(1) == '<':
		return l.readDict()
	case c == '<':
		return l.readHexString()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return l.readNumber()
	case isRegular(c):
		return l.readKeyword()
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", c, l.pos)
	}
}

func (l *lexer) peek(ahead int) byte {
	if l.pos+ahead >= len(l.data) {
		return 0
	}
	return l.data[l.pos+ahead]
}

func (l *lexer) readNumber() (any, error) {
	start := l.pos
	if c := l.data[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	for !l.eof() {
		c := l.data[l.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			l.pos++
			continue
		}
		break
	}
	val, err := strconv.ParseFloat(string(l.data[start:l.pos]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad number at offset %d", start)
	}
	return val, nil
}

func (l *lexer) readKeyword() (any, error) {
	start := l.pos
	for !l.eof() && isRegular(l.data[l.pos]) {
		l.pos++
	}
	word := string(l.data[start:l.pos])
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	default:
		return keyword(word), nil
	}
}

func (l *lexer) readName() (any, error) {
	l.pos++ // skip '/'
	var buf bytes.Buffer
	for !l.eof() {
		c := l.data[l.pos]
		if isSpace(c) || isDelim(c) {
			break
		}
		if c == '#' && l.pos+2 < len(l.data) && isHex(l.data[l.pos+1]) && isHex(l.data[l.pos+2]) {
			buf.WriteByte(hexVal(l.data[l.pos+1])<<4 | hexVal(l.data[l.pos+2]))
			l.pos += 3
			continue
		}
		buf.WriteByte(c)
		l.pos++
	}
	return name(buf.String()), nil
}

func (l *lexer) readString() (any, error) {
	l.pos++ // skip '('
	var buf bytes.Buffer
	depth := 1
	for !l.eof() {
		c := l.data[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.data):
			l.pos++
			esc := l.data[l.pos]
			l.pos++
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if !l.eof() && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
				// Line continuation.
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := int(esc - '0')
				for i := 0; i < 2 && !l.eof(); i++ {
					d := l.data[l.pos]
					if d < '0' || d > '7' {
						break
					}
					oct = oct*8 + int(d-'0')
					l.pos++
				}
				buf.WriteByte(byte(oct))
			default:
				buf.WriteByte(esc)
			}
		case c == '(':
			depth++
			buf.WriteByte(c)
			l.pos++
		case c == ')':
			depth--
			l.pos++
			if depth == 0 {
				return buf.String(), nil
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
			l.pos++
		}
	}
	return nil, fmt.Errorf("unclosed string")
}

func (l *lexer) readHexString() (any, error) {
	l.pos++ // skip '<'
	var digits []byte
	for !l.eof() {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			var buf bytes.Buffer
			for i := 0; i < len(digits); i += 2 {
				buf.WriteByte(hexVal(digits[i])<<4 | hexVal(digits[i+1]))
			}
			return buf.String(), nil
		}
		if isSpace(c) {
			continue
		}
		if !isHex(c) {
			return nil, fmt.Errorf("bad hex digit %q", c)
		}
		digits = append(digits, c)
	}
	return nil, fmt.Errorf("unclosed hex string")
}

func (l *lexer) readArray() (any, error) {
	l.pos++ // skip '['
	var arr []any
	for {
		l.skipSpace()
		if l.eof() {
			return nil, fmt.Errorf("unclosed array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr, nil
		}
		item, err := l.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

func (l *lexer) readDict() (any, error) {
	l.pos += 2 // skip '<<'
	d := make(dict)
	for {
		l.skipSpace()
		if l.eof() {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if l.data[l.pos] == '>' && l.peek(1) == '>' {
			l.pos += 2
			return d, nil
		}
		key, err := l.token()
		if err != nil {
			return nil, err
		}
		n, ok := key.(name)
		if !ok {
			return nil, fmt.Errorf("dictionary key must be a name, got %T", key)
		}
		val, err := l.value()
		if err != nil {
			return nil, err
		}
		d[string(n)] = val
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isSpace(c) && !isDelim(c)
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
