package csharp

import (
	"strings"
)

var modifierWords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "sealed": true, "abstract": true, "partial": true,
	"readonly": true, "unsafe": true, "virtual": true, "override": true,
	"new": true, "extern": true, "volatile": true, "async": true,
	"const": true, "required": true, "file": true, "fixed": true, "ref": true,
}

type parser struct {
	toks []Token
	pos  int
	file *File
}

// Parse reads the structure of src. It never fails: constructs it cannot
// make sense of are skipped up to the next statement or member boundary.
func Parse(src string) *File {
	p := &parser{toks: Lex(src), file: &File{Source: src}}
	p.parseScope(false)
	return p.file
}

func (p *parser) peek() Token { return p.at(0) }

func (p *parser) at(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) next() Token {
	t := p.peek()
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) eof() bool { return p.peek().Kind == EOF }

// lastEnd is the end offset of the most recently consumed token.
func (p *parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

// pending accumulates doc comments and attribute lists that precede a
// declaration.
type pending struct {
	start int
	doc   []string
	attrs []Attribute
}

func (pd *pending) mark(pos int) {
	if pd.start < 0 {
		pd.start = pos
	}
}

func (pd *pending) begin(pos int) int {
	if pd.start >= 0 {
		return pd.start
	}
	return pos
}

func (pd *pending) reset() {
	pd.start = -1
	pd.doc = nil
	pd.attrs = nil
}

// parseScope reads a compilation unit, or the body of a block namespace
// when nested is true. Only the outermost scope records items.
func (p *parser) parseScope(nested bool) {
	pd := &pending{start: -1}
	record := func(kind ItemKind, start int) {
		if !nested {
			p.file.Items = append(p.file.Items, Item{Kind: kind, Start: start, End: p.lastEnd()})
		}
	}

	for !p.eof() {
		t := p.peek()
		if nested && t.Is("}") {
			return
		}

		switch {
		case t.Kind == DocComment:
			pd.mark(t.Pos)
			pd.doc = append(pd.doc, t.Value)
			p.next()
			continue
		case t.Kind == Directive:
			p.next()
			record(ItemDirective, t.Pos)
			continue
		case t.Is("["):
			pd.mark(t.Pos)
			pd.attrs = append(pd.attrs, p.parseAttributeList()...)
			continue
		case t.Is(";"):
			p.next()
			continue
		case (t.Is("using") && p.isUsingDirective(1)) ||
			(t.Is("global") && p.at(1).Is("using") && p.isUsingDirective(2)):
			p.parseUsing()
			record(ItemUsing, t.Pos)
		case t.Is("namespace") && p.at(1).Kind == Ident:
			start := pd.begin(t.Pos)
			if p.parseNamespace() {
				record(ItemDeclaration, start)
			} else {
				record(ItemNamespace, start)
			}
		default:
			start := pd.begin(t.Pos)
			save := p.pos
			mods := p.parseModifiers()
			switch {
			case p.isTypeStart():
				decl := p.parseType(mods, pd, start)
				p.file.Types = append(p.file.Types, decl)
				record(ItemDeclaration, start)
			case p.peek().Is("delegate") && !p.at(1).Is("{") && !p.at(1).Is("("):
				p.skipPast(";")
				record(ItemDeclaration, start)
			default:
				p.pos = save
				p.parseStatement()
				if !nested {
					it := Item{Kind: ItemStatement, Start: start, End: p.lastEnd()}
					p.file.Items = append(p.file.Items, it)
					p.file.Statements = append(p.file.Statements, it)
				}
			}
		}
		pd.reset()
	}
}

// isUsingDirective distinguishes "using X.Y;" from using statements and
// declarations. n is the offset of the token after "using".
func (p *parser) isUsingDirective(n int) bool {
	t := p.at(n)
	switch {
	case t.Is("("), t.Is("var"), t.Is("await"):
		return false
	case t.Is("static"):
		return true
	case t.Kind != Ident:
		return false
	case p.at(n + 1).Is("="):
		return true
	}
	for i := n; ; i++ {
		x := p.at(i)
		if x.Kind == EOF || x.Is("{") || x.Is("(") {
			return false
		}
		if x.Is(";") {
			return true
		}
		if x.Is("=") {
			return false
		}
	}
}

func (p *parser) parseUsing() {
	start := p.peek().Pos
	u := Using{}
	if p.peek().Is("global") {
		u.Global = true
		p.next()
	}
	p.next() // using
	if p.peek().Is("static") {
		u.Static = true
		p.next()
	}
	if p.peek().Kind == Ident && p.at(1).Is("=") {
		u.Alias = p.next().Value
		p.next()
	}
	var name strings.Builder
	for !p.eof() && !p.peek().Is(";") {
		name.WriteString(p.next().Text)
	}
	p.next()
	u.Name = name.String()
	u.Text = strings.Join(strings.Fields(p.file.Source[start:p.lastEnd()]), " ")
	p.file.Usings = append(p.file.Usings, u)
}

// parseNamespace reads a namespace declaration and reports whether it was
// a block namespace.
func (p *parser) parseNamespace() bool {
	p.next() // namespace
	var name strings.Builder
	for !p.eof() && !p.peek().Is(";") && !p.peek().Is("{") {
		name.WriteString(p.next().Text)
	}
	if p.file.Namespace == "" {
		p.file.Namespace = name.String()
	}
	if p.peek().Is(";") {
		p.next()
		return false
	}
	p.next() // {
	p.parseScope(true)
	if p.peek().Is("}") {
		p.next()
	}
	return true
}

func (p *parser) parseModifiers() []string {
	var mods []string
	for p.peek().Kind == Ident && modifierWords[p.peek().Text] {
		mods = append(mods, p.next().Text)
	}
	return mods
}

func (p *parser) isTypeStart() bool {
	t := p.peek()
	switch t.Text {
	case "class", "struct", "interface", "enum":
		return t.Kind == Ident && p.at(1).Kind == Ident
	case "record":
		if t.Kind != Ident {
			return false
		}
		if p.at(1).Is("class") || p.at(1).Is("struct") {
			return p.at(2).Kind == Ident
		}
		return p.at(1).Kind == Ident
	}
	return false
}

func (p *parser) parseType(mods []string, pd *pending, start int) *TypeDecl {
	kw := p.next().Text
	if kw == "record" && (p.peek().Is("class") || p.peek().Is("struct")) {
		kw += " " + p.next().Text
	}
	decl := &TypeDecl{
		Keyword:    kw,
		Name:       p.next().Value,
		Modifiers:  mods,
		Attributes: pd.attrs,
		Doc:        pd.doc,
		Start:      start,
	}
	for !p.eof() && !p.peek().Is("{") && !p.peek().Is(";") {
		switch {
		case p.peek().Is("("):
			p.collectBalanced("(", ")")
		case p.peek().Is("<"):
			p.collectBalanced("<", ">")
		default:
			p.next()
		}
	}
	if p.peek().Is(";") {
		p.next()
		decl.End = p.lastEnd()
		return decl
	}
	p.next() // {
	if strings.HasPrefix(kw, "enum") {
		p.skipBlockRest()
	} else {
		p.parseMembers(decl)
	}
	if p.peek().Is(";") {
		p.next()
	}
	decl.End = p.lastEnd()
	return decl
}

// skipBlockRest consumes tokens through the '}' closing the current block.
func (p *parser) skipBlockRest() {
	depth := 1
	for !p.eof() {
		t := p.next()
		switch {
		case t.Is("{"):
			depth++
		case t.Is("}"):
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseMembers(decl *TypeDecl) {
	pd := &pending{start: -1}
	for !p.eof() {
		t := p.peek()
		switch {
		case t.Is("}"):
			p.next()
			return
		case t.Kind == DocComment:
			pd.mark(t.Pos)
			pd.doc = append(pd.doc, t.Value)
			p.next()
			continue
		case t.Kind == Directive:
			p.next()
			continue
		case t.Is("["):
			pd.mark(t.Pos)
			pd.attrs = append(pd.attrs, p.parseAttributeList()...)
			continue
		case t.Is(";"):
			p.next()
			continue
		}

		start := pd.begin(t.Pos)
		before := p.pos
		mods := p.parseModifiers()
		if p.isTypeStart() {
			decl.Nested = append(decl.Nested, p.parseType(mods, pd, start))
		} else {
			for _, m := range p.parseMember(decl.Name, mods) {
				m.Attributes = pd.attrs
				m.Doc = pd.doc
				m.Start = start
				m.End = p.lastEnd()
				decl.Members = append(decl.Members, m)
			}
		}
		if p.pos == before {
			p.next()
		}
		pd.reset()
	}
}

func (p *parser) parseMember(typeName string, mods []string) []*Member {
	t := p.peek()
	switch {
	case t.Is("~"), t.Is("event"), t.Is("delegate"), t.Is("implicit"), t.Is("explicit"):
		p.skipMember()
		return nil
	case t.Kind == Ident && t.Value == typeName && p.at(1).Is("("):
		p.next()
		m := &Member{Kind: MemberConstructor, Name: typeName, Modifiers: mods}
		m.ParamCount = countArgs(p.collectBalanced("(", ")"))
		p.parseBody(m)
		return []*Member{m}
	}

	typ, ok := p.parseTypeRef()
	if !ok || p.peek().Is("operator") || p.peek().Is("this") || p.peek().Kind != Ident {
		p.skipMember()
		return nil
	}
	name := p.next().Value
	for p.peek().Is(".") && p.at(1).Kind == Ident {
		p.next()
		name = p.next().Value
	}
	m := &Member{Name: name, Type: typ, Modifiers: mods}

	switch {
	case p.peek().Is("<"), p.peek().Is("("):
		m.Kind = MemberMethod
		if p.peek().Is("<") {
			p.collectBalanced("<", ">")
		}
		if !p.peek().Is("(") {
			p.skipMember()
			return nil
		}
		m.ParamCount = countArgs(p.collectBalanced("(", ")"))
		p.parseBody(m)
		return []*Member{m}

	case p.peek().Is("{"):
		m.Kind = MemberProperty
		accessors := p.collectBalanced("{", "}")
		depth := 0
		for _, a := range accessors {
			switch {
			case a.Is("{"):
				depth++
			case a.Is("}"):
				depth--
			case depth == 0 && a.Is("get"):
				m.HasGetter = true
			case depth == 0 && (a.Is("set") || a.Is("init")):
				m.HasSetter = true
			}
		}
		if p.peek().Is("=") {
			p.next()
			m.Initializer = p.collectUntil(";")
		}
		return []*Member{m}

	case p.peek().Is("=>"):
		p.next()
		m.Kind = MemberProperty
		m.HasGetter = true
		m.ExpressionBody = p.collectUntil(";")
		return []*Member{m}

	case p.peek().Is("="), p.peek().Is(";"), p.peek().Is(","):
		return p.parseFields(m)
	}

	p.skipMember()
	return nil
}

// parseFields reads one or more field declarators sharing a type.
func (p *parser) parseFields(first *Member) []*Member {
	first.Kind = MemberField
	out := []*Member{first}
	cur := first
	for !p.eof() {
		switch {
		case p.peek().Is("="):
			p.next()
			cur.Initializer = p.collectDeclarator()
		case p.peek().Is(",") && p.at(1).Kind == Ident:
			p.next()
			cur = &Member{
				Kind:      MemberField,
				Name:      p.next().Value,
				Type:      first.Type,
				Modifiers: first.Modifiers,
			}
			out = append(out, cur)
		case p.peek().Is(";"):
			p.next()
			return out
		default:
			p.skipMember()
			return out
		}
	}
	return out
}

// collectDeclarator collects an initializer up to the ';' or the ','
// that starts the next declarator. The terminator is not consumed.
func (p *parser) collectDeclarator() []Token {
	var out []Token
	depth := 0
	for !p.eof() {
		t := p.peek()
		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			depth--
		case depth == 0 && t.Is(";"):
			return out
		case depth == 0 && t.Is(",") && p.at(1).Kind == Ident &&
			(p.at(2).Is("=") || p.at(2).Is(";") || p.at(2).Is(",")):
			return out
		}
		out = append(out, p.next())
	}
	return out
}

// parseBody reads what follows a parameter list: constraints or a
// constructor initializer, then a block, an expression body or ';'.
func (p *parser) parseBody(m *Member) {
	for !p.eof() && !p.peek().Is("{") && !p.peek().Is("=>") && !p.peek().Is(";") {
		if p.peek().Is("(") {
			p.collectBalanced("(", ")")
			continue
		}
		if p.peek().Is("}") {
			return
		}
		p.next()
	}
	switch {
	case p.peek().Is("{"):
		m.Body = p.collectBalanced("{", "}")
	case p.peek().Is("=>"):
		p.next()
		m.ExpressionBody = p.collectUntil(";")
	case p.peek().Is(";"):
		p.next()
	}
}

// parseTypeRef reads a type reference and returns it without whitespace.
func (p *parser) parseTypeRef() (string, bool) {
	var b strings.Builder
	if p.peek().Is("(") {
		b.WriteString("(")
		b.WriteString(compact(p.collectBalanced("(", ")")))
		b.WriteString(")")
	} else {
		if p.peek().Kind != Ident {
			return "", false
		}
		b.WriteString(p.next().Value)
		for (p.peek().Is(".") || p.peek().Is("::")) && p.at(1).Kind == Ident {
			p.next()
			b.WriteString(".")
			b.WriteString(p.next().Value)
		}
		if p.peek().Is("<") {
			b.WriteString("<")
			b.WriteString(compact(p.collectBalanced("<", ">")))
			b.WriteString(">")
		}
	}
	for {
		switch {
		case p.peek().Is("?"), p.peek().Is("*"):
			b.WriteString(p.next().Text)
		case p.peek().Is("[") && (p.at(1).Is("]") || p.at(1).Is(",")):
			b.WriteString("[")
			b.WriteString(compact(p.collectBalanced("[", "]")))
			b.WriteString("]")
		default:
			return b.String(), true
		}
	}
}

// collectBalanced consumes from an opening token through its matching
// closer and returns the tokens in between. Angle brackets give up at
// statement punctuation, since '<' may have been a comparison.
func (p *parser) collectBalanced(open, closer string) []Token {
	p.next()
	var out []Token
	depth := 1
	for !p.eof() {
		t := p.peek()
		if open == "<" && (t.Is(";") || t.Is("{") || t.Is("}")) {
			return out
		}
		switch {
		case t.Is(open):
			depth++
		case t.Is(closer):
			depth--
			if depth == 0 {
				p.next()
				return out
			}
		}
		out = append(out, p.next())
	}
	return out
}

// collectUntil returns tokens up to a terminator at bracket depth zero and
// consumes the terminator.
func (p *parser) collectUntil(term string) []Token {
	var out []Token
	depth := 0
	for !p.eof() {
		t := p.peek()
		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			if depth == 0 {
				return out
			}
			depth--
		case depth == 0 && t.Is(term):
			p.next()
			return out
		}
		out = append(out, p.next())
	}
	return out
}

// skipMember resynchronises after an unrecognised member by consuming
// through the next ';' or balanced block at depth zero.
func (p *parser) skipMember() {
	depth := 0
	for !p.eof() {
		t := p.peek()
		switch {
		case t.Is("("), t.Is("["):
			depth++
		case t.Is(")"), t.Is("]"):
			depth--
		case t.Is("{"):
			p.collectBalanced("{", "}")
			if depth <= 0 && !p.peek().Is("=") && !p.peek().Is(";") {
				return
			}
			continue
		case t.Is("}") && depth <= 0:
			return
		case t.Is(";") && depth <= 0:
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) skipPast(term string) {
	p.collectUntil(term)
}

// parseStatement consumes one top-level statement.
func (p *parser) parseStatement() {
	isDo := p.peek().Is("do")
	depth := 0
	for !p.eof() {
		t := p.next()
		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 && t.Is("}") && !p.continuesStatement(isDo) {
				return
			}
		case t.Is(";") && depth == 0:
			return
		}
	}
}

func (p *parser) continuesStatement(isDo bool) bool {
	nx := p.peek()
	switch {
	case nx.Is(";"), nx.Is(")"), nx.Is(","), nx.Is("."), nx.Is("?."),
		nx.Is("else"), nx.Is("catch"), nx.Is("finally"), nx.Is("when"):
		return true
	case nx.Is("while"):
		return isDo
	}
	return false
}

func (p *parser) parseAttributeList() []Attribute {
	p.next() // [
	if p.peek().Kind == Ident && p.at(1).Is(":") {
		p.next()
		p.next()
	}
	var out []Attribute
	for !p.eof() {
		if p.peek().Is("]") {
			p.next()
			return out
		}
		if p.peek().Kind != Ident {
			p.skipAttributeRest()
			return out
		}
		name := p.next().Value
		for (p.peek().Is(".") || p.peek().Is("::")) && p.at(1).Kind == Ident {
			p.next()
			name = p.next().Value
		}
		if len(name) > len("Attribute") {
			name = strings.TrimSuffix(name, "Attribute")
		}
		if p.peek().Is("<") {
			p.collectBalanced("<", ">")
		}
		attr := Attribute{Name: name}
		if p.peek().Is("(") {
			attr.Args = splitArgs(p.collectBalanced("(", ")"))
		}
		out = append(out, attr)
		switch {
		case p.peek().Is(","):
			p.next()
		case !p.peek().Is("]"):
			p.skipAttributeRest()
			return out
		}
	}
	return out
}

func (p *parser) skipAttributeRest() {
	for !p.eof() {
		if p.next().Is("]") {
			return
		}
	}
}

// splitArgs splits an argument list at top-level commas and separates
// named arguments.
func splitArgs(toks []Token) []Arg {
	var out []Arg
	var cur []Token
	depth := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		a := Arg{Tokens: cur}
		if len(cur) > 2 && cur[0].Kind == Ident && (cur[1].Is("=") || cur[1].Is(":")) {
			a.Name = cur[0].Value
			a.Tokens = cur[2:]
		}
		out = append(out, a)
		cur = nil
	}
	for _, t := range toks {
		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			depth--
		case depth == 0 && t.Is(","):
			flush()
			continue
		}
		cur = append(cur, t)
	}
	flush()
	return out
}

func countArgs(toks []Token) int {
	if len(toks) == 0 {
		return 0
	}
	return len(splitArgs(toks))
}

func compact(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Text)
	}
	return b.String()
}
