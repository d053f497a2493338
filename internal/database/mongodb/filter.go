package mongodb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/polydb-io/polydb/pkg/provider"
)

// parseFilter turns filter text into a document. Strict JSON is tried
// first; on failure a permissive shell-style parse accepts unquoted keys
// and single-quoted strings, the way the mongo shell does.
func parseFilter(text string) (bson.M, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var strict map[string]any
	if err := dec.Decode(&strict); err == nil {
		return toFilterDoc(strict), nil
	}

	p := &filterParser{input: text}
	p.skipSpace()
	doc, err := p.parseObject()
	if err != nil {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			fmt.Sprintf("invalid filter document: %v", err),
			"filters are JSON-like documents, e.g. {age: {$gt: 21}}")
	}
	p.skipSpace()
	if !p.eof() {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			fmt.Sprintf("unexpected trailing text at offset %d", p.pos),
			"filters are JSON-like documents, e.g. {age: {$gt: 21}}")
	}
	return doc, nil
}

func toFilterDoc(m map[string]any) bson.M {
	doc := bson.M{}
	for k, v := range m {
		doc[k] = lowerFilterValue(v)
	}
	return doc
}

func lowerFilterValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return toFilterDoc(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = lowerFilterValue(inner)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// filterParser is a hand-written recursive-descent parser for the relaxed
// document syntax. It never evaluates code.
type filterParser struct {
	input string
	pos   int
}

func (p *filterParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *filterParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *filterParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *filterParser) expect(ch byte) error {
	if p.peek() != ch {
		return fmt.Errorf("expected %q at offset %d", string(ch), p.pos)
	}
	p.pos++
	return nil
}

func (p *filterParser) parseObject() (bson.M, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	doc := bson.M{}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return doc, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		doc[key] = value
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return doc, nil
		default:
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}

// parseKey accepts quoted keys and bare identifiers. Bare keys may start
// with $ for operators and contain dots for nested paths.
func (p *filterParser) parseKey() (string, error) {
	switch p.peek() {
	case '"', '\'':
		return p.parseString()
	}
	start := p.pos
	for !p.eof() {
		ch := p.input[p.pos]
		if ch == '$' || ch == '_' || ch == '.' ||
			unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("expected key at offset %d", start)
	}
	return p.input[start:p.pos], nil
}

func (p *filterParser) parseValue() (any, error) {
	switch ch := p.peek(); {
	case ch == '{':
		return p.parseObject()
	case ch == '[':
		return p.parseArray()
	case ch == '"' || ch == '\'':
		return p.parseString()
	case ch == 't' || ch == 'f' || ch == 'n':
		return p.parseLiteral()
	case ch == '-' || ch == '+' || (ch >= '0' && ch <= '9'):
		return p.parseNumber()
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", string(ch), p.pos)
	}
}

func (p *filterParser) parseArray() ([]any, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var items []any
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return []any{}, nil
	}
	for {
		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, value)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("expected ',' or ']' at offset %d", p.pos)
		}
	}
}

func (p *filterParser) parseString() (string, error) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		ch := p.input[p.pos]
		switch ch {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", fmt.Errorf("unterminated escape at offset %d", p.pos)
			}
			esc := p.input[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *filterParser) parseLiteral() (any, error) {
	for _, lit := range []struct {
		text  string
		value any
	}{
		{"true", true},
		{"false", false},
		{"null", nil},
	} {
		if strings.HasPrefix(p.input[p.pos:], lit.text) {
			p.pos += len(lit.text)
			return lit.value, nil
		}
	}
	return nil, fmt.Errorf("unknown literal at offset %d", p.pos)
}

func (p *filterParser) parseNumber() (any, error) {
	start := p.pos
	if ch := p.peek(); ch == '-' || ch == '+' {
		p.pos++
	}
	isFloat := false
	for !p.eof() {
		ch := p.input[p.pos]
		if ch >= '0' && ch <= '9' {
			p.pos++
			continue
		}
		if ch == '.' || ch == 'e' || ch == 'E' {
			isFloat = true
			p.pos++
			continue
		}
		if (ch == '-' || ch == '+') && p.pos > start {
			prev := p.input[p.pos-1]
			if prev == 'e' || prev == 'E' {
				p.pos++
				continue
			}
		}
		break
	}
	text := p.input[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at offset %d", text, start)
		}
		return f, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at offset %d", text, start)
	}
	return i, nil
}
