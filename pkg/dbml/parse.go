package dbml

import (
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

var relationOps = map[string]erd.RelationType{
	">":  erd.ManyToOne,
	"<":  erd.OneToMany,
	"-":  erd.OneToOne,
	"<>": erd.ManyToMany,
}

// Parse reads a DBML document from r.
func Parse(r io.Reader) (*erd.Diagram, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read dbml")
	}
	return ParseString(string(data))
}

// ParseString parses a DBML document. Errors carry [errors.ErrCodeParse] and
// the offending line number.
func ParseString(src string) (*erd.Diagram, error) {
	p := &parser{
		lines:   strings.Split(stripComments(src), "\n"),
		aliases: make(map[string]erd.TableID),
		seen:    make(map[erd.TableID]bool),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.finish()
}

// rawRef is a reference whose target is resolved after all tables are known,
// so aliases may be used before the aliased table is declared.
type rawRef struct {
	line int
	op   string
	lhs  string
	rhs  string
	from *erd.EndPoint
}

type bodyLine struct {
	text  string
	line  int
	opens bool
}

type parser struct {
	lines   []string
	n       int
	tables  []erd.Table
	aliases map[string]erd.TableID
	seen    map[erd.TableID]bool
	refs    []rawRef
	inline  []rawRef
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return errors.New(errors.ErrCodeParse, "line %d: %s", line, fmt.Sprintf(format, args...))
}

// next returns the next non-blank trimmed line and its 1-based number.
func (p *parser) next() (string, int, bool) {
	for p.n < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.n])
		p.n++
		if line != "" {
			return line, p.n, true
		}
	}
	return "", 0, false
}

func (p *parser) parse() error {
	for {
		line, ln, ok := p.next()
		if !ok {
			return nil
		}
		var err error
		switch {
		case keyword(line, "Table"):
			err = p.parseTable(line, ln)
		case keyword(line, "Ref"):
			err = p.parseRef(line, ln)
		case keyword(line, "Project"), keyword(line, "Enum"), keyword(line, "TableGroup"),
			keyword(line, "TablePartial"), keyword(line, "Records"), keyword(line, "Note"):
			err = p.skip(line, ln)
		default:
			err = p.errorf(ln, "unexpected %q", line)
		}
		if err != nil {
			return err
		}
	}
}

// skip consumes a statement, including its block when it has one.
func (p *parser) skip(line string, ln int) error {
	if indexTop(line, ':') >= 0 && indexTop(line, '{') < 0 {
		return nil
	}
	if indexTop(line, '{') < 0 {
		save := p.n
		if nl, _, ok := p.next(); !ok || !strings.HasPrefix(nl, "{") {
			p.n = save
			return nil
		}
		p.n = save
	}
	_, _, err := p.block(line, ln)
	return err
}

// block reads a braced block starting on line. It returns the text before
// the opening brace and the depth-one lines inside. A line that opens a
// nested block is returned with opens set and the nested content dropped.
func (p *parser) block(line string, ln int) (string, []bodyLine, error) {
	i := indexTop(line, '{')
	if i < 0 {
		nl, _, ok := p.next()
		if !ok || !strings.HasPrefix(nl, "{") {
			return "", nil, p.errorf(ln, "expected '{'")
		}
		line = line + " " + nl
		i = indexTop(line, '{')
	}
	header := strings.TrimSpace(line[:i])

	var body []bodyLine
	depth := 1
	pending, pendingLn := line[i+1:], ln
	for {
		var seg strings.Builder
		var quote byte
		flush := func(opens bool) {
			if s := strings.TrimSpace(seg.String()); s != "" || opens {
				body = append(body, bodyLine{text: s, line: pendingLn, opens: opens})
			}
			seg.Reset()
		}
		for k := 0; k < len(pending); k++ {
			c := pending[k]
			if quote != 0 {
				if c == quote {
					quote = 0
				}
				if depth == 1 {
					seg.WriteByte(c)
				}
				continue
			}
			switch c {
			case '\'', '"', '`':
				quote = c
				if depth == 1 {
					seg.WriteByte(c)
				}
			case '{':
				if depth == 1 {
					flush(true)
				}
				depth++
			case '}':
				depth--
				if depth == 0 {
					flush(false)
					return header, body, nil
				}
			default:
				if depth == 1 {
					seg.WriteByte(c)
				}
			}
		}
		if depth == 1 {
			flush(false)
		}

		if p.n >= len(p.lines) {
			return "", nil, p.errorf(ln, "unclosed block")
		}
		pending = p.lines[p.n]
		p.n++
		pendingLn = p.n
	}
}

// =============================================================================
// Tables
// =============================================================================

func (p *parser) parseTable(line string, ln int) error {
	header, body, err := p.block(line, ln)
	if err != nil {
		return err
	}
	header = strings.TrimSpace(header[len("Table"):])
	if i := indexTop(header, '['); i >= 0 {
		header = strings.TrimSpace(header[:i])
	}

	path, rest := readPath(header)
	id, err := p.tableID(path, ln)
	if err != nil {
		return err
	}
	if p.seen[id] {
		return p.errorf(ln, "duplicate table %s", id)
	}
	p.seen[id] = true

	if keyword(rest, "as") {
		alias := unquote(rest[2:])
		if alias == "" {
			return p.errorf(ln, "missing alias for %s", id)
		}
		p.aliases[alias] = id
	}

	t := erd.Table{ID: id}
	for _, bl := range body {
		if bl.opens || isNote(bl.text) {
			continue
		}
		col, err := p.parseColumn(id, bl)
		if err != nil {
			return err
		}
		t.Columns = append(t.Columns, col)
	}
	p.tables = append(p.tables, t)
	return nil
}

func isNote(s string) bool {
	return keyword(s, "note") && strings.HasPrefix(strings.TrimSpace(s[len("note"):]), ":")
}

// readPath splits a possibly quoted dotted name from the rest of s.
func readPath(s string) (path, rest string) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '`':
			quote = c
		case c == ' ' || c == '\t':
			return s[:i], strings.TrimSpace(s[i:])
		}
	}
	return s, ""
}

func (p *parser) tableID(path string, ln int) (erd.TableID, error) {
	parts := splitTop(path, '.')
	for i := range parts {
		parts[i] = unquote(parts[i])
	}
	switch {
	case len(parts) == 1 && parts[0] != "":
		return erd.NewTableID("", parts[0]), nil
	case len(parts) == 2 && parts[1] != "":
		return erd.NewTableID(parts[0], parts[1]), nil
	}
	return erd.TableID{}, p.errorf(ln, "invalid table name %q", path)
}

func (p *parser) parseColumn(table erd.TableID, bl bodyLine) (erd.Column, error) {
	name, rest := nextToken(bl.text)
	if name == "" {
		return erd.Column{}, p.errorf(bl.line, "missing column name")
	}

	typ, settings := rest, ""
	if i := settingsStart(rest); i >= 0 {
		typ = rest[:i]
		end := lastTop(rest, ']')
		if end < i {
			return erd.Column{}, p.errorf(bl.line, "unclosed settings for column %s", name)
		}
		settings = rest[i+1 : end]
	}
	typ = unquote(typ)
	if typ == "" {
		return erd.Column{}, p.errorf(bl.line, "column %s has no type", name)
	}

	col := erd.Column{Name: name, TypeRaw: typ, IsNullable: true}
	for _, s := range splitTop(settings, ',') {
		s = strings.TrimSpace(s)
		low := strings.ToLower(s)
		switch {
		case low == "pk" || low == "primary key":
			col.IsPK = true
		case low == "not null":
			col.IsNullable = false
		case low == "null":
			col.IsNullable = true
		case strings.HasPrefix(low, "ref:"):
			op, target := splitOp(strings.TrimSpace(s[len("ref:"):]))
			p.inline = append(p.inline, rawRef{
				line: bl.line,
				op:   op,
				rhs:  target,
				from: &erd.EndPoint{TableID: table, ColumnNames: []string{name}},
			})
		}
	}
	return col, nil
}

// settingsStart finds the '[' that opens a settings list: the first
// top-level bracket preceded by whitespace, so array types like int[] are
// left alone.
func settingsStart(s string) int {
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '[' && depth == 0 && i > 0 && (s[i-1] == ' ' || s[i-1] == '\t'):
			return i
		}
	}
	return -1
}

// =============================================================================
// Refs
// =============================================================================

func (p *parser) parseRef(line string, ln int) error {
	rest := strings.TrimSpace(line[len("Ref"):])
	colon, brace := indexTop(rest, ':'), indexTop(rest, '{')
	if colon >= 0 && (brace < 0 || colon < brace) {
		return p.addRef(strings.TrimSpace(rest[colon+1:]), ln)
	}
	_, body, err := p.block(line, ln)
	if err != nil {
		return err
	}
	for _, bl := range body {
		if bl.opens {
			continue
		}
		if err := p.addRef(bl.text, bl.line); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) addRef(expr string, ln int) error {
	if i := settingsStart(expr); i >= 0 {
		expr = strings.TrimSpace(expr[:i])
	}
	lhs, op, rhs, ok := splitRef(expr)
	if !ok {
		return p.errorf(ln, "invalid ref %q", expr)
	}
	p.refs = append(p.refs, rawRef{line: ln, op: op, lhs: lhs, rhs: rhs})
	return nil
}

// splitRef splits "lhs op rhs" on the first run of operator characters
// outside quotes and parens.
func splitRef(expr string) (lhs, op, rhs string, ok bool) {
	var quote byte
	depth := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '`' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && strings.IndexByte("<>-", c) >= 0:
			j := i
			for j < len(expr) && strings.IndexByte("<>-", expr[j]) >= 0 {
				j++
			}
			lhs, rhs = strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[j:])
			return lhs, expr[i:j], rhs, lhs != "" && rhs != ""
		}
	}
	return "", "", "", false
}

// splitOp splits the leading operator from an inline ref target.
func splitOp(s string) (op, target string) {
	j := 0
	for j < len(s) && strings.IndexByte("<>-", s[j]) >= 0 {
		j++
	}
	return s[:j], strings.TrimSpace(s[j:])
}

// endpoint resolves "table.col", "schema.table.col" or "table.(a, b)".
func (p *parser) endpoint(s string, ln int) (erd.EndPoint, error) {
	parts := splitTop(s, '.')
	if len(parts) < 2 || len(parts) > 3 {
		return erd.EndPoint{}, p.errorf(ln, "invalid ref endpoint %q", s)
	}

	cols := strings.TrimSpace(parts[len(parts)-1])
	var names []string
	if strings.HasPrefix(cols, "(") && strings.HasSuffix(cols, ")") {
		for _, c := range splitTop(cols[1:len(cols)-1], ',') {
			if c = unquote(c); c != "" {
				names = append(names, c)
			}
		}
	} else if c := unquote(cols); c != "" {
		names = []string{c}
	}
	if len(names) == 0 {
		return erd.EndPoint{}, p.errorf(ln, "ref endpoint %q has no columns", s)
	}

	var id erd.TableID
	if len(parts) == 2 {
		name := unquote(parts[0])
		if aliased, ok := p.aliases[name]; ok {
			id = aliased
		} else {
			id = erd.NewTableID("", name)
		}
	} else {
		id = erd.NewTableID(unquote(parts[0]), unquote(parts[1]))
	}
	if id.Name == "" {
		return erd.EndPoint{}, p.errorf(ln, "invalid ref endpoint %q", s)
	}
	return erd.EndPoint{TableID: id, ColumnNames: names}, nil
}

func (p *parser) finish() (*erd.Diagram, error) {
	d := &erd.Diagram{Tables: p.tables}
	for _, r := range append(p.refs, p.inline...) {
		typ, ok := relationOps[r.op]
		if !ok {
			continue
		}
		var from erd.EndPoint
		if r.from != nil {
			from = *r.from
		} else {
			var err error
			if from, err = p.endpoint(r.lhs, r.line); err != nil {
				return nil, err
			}
		}
		to, err := p.endpoint(r.rhs, r.line)
		if err != nil {
			return nil, err
		}
		d.Relationships = append(d.Relationships, erd.Relationship{Type: typ, From: from, To: to})
	}
	return d, nil
}
