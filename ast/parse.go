package ast

// ParseOptions configures the parser behavior.
type ParseOptions struct {
	// Strict rejects books that define the same name twice instead of
	// keeping the last definition with a warning.
	Strict bool
}

// Warning is a non-fatal parser diagnostic.
type Warning struct {
	Message string
	Span    Span
	Pos     Position
}

func (w Warning) String() string {
	return w.Message + " at " + w.Pos.String()
}

// ParseResult contains the parsed book and any warnings.
type ParseResult struct {
	Book     *Book
	Warnings []Warning
}

// Parser parses the text notation into nets and books.
type Parser struct {
	scanner
	opts     ParseOptions
	net      *Net // net receiving parsed trees
	warnings []Warning
}

// NewParser creates a parser over input.
func NewParser(input string, opts ParseOptions) *Parser {
	return &Parser{scanner: scanner{input: input}, opts: opts}
}

// Parse parses a whole book with the given options.
func Parse(input string, opts ParseOptions) (*ParseResult, error) {
	p := NewParser(input, opts)
	book, err := p.ParseBook()
	if err != nil {
		return nil, err
	}
	return &ParseResult{Book: book, Warnings: p.warnings}, nil
}

// ParseBook parses a whole book, keeping the last of repeated definitions.
func ParseBook(input string) (*Book, error) {
	return NewParser(input, ParseOptions{}).ParseBook()
}

// ParseNet parses a single net. The whole input must be consumed.
func ParseNet(input string) (*Net, error) {
	p := NewParser(input, ParseOptions{})
	net, err := p.ParseNet()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return net, nil
}

// ParseTree parses a single tree into a net with no redexes. The whole
// input must be consumed.
func ParseTree(input string) (*Net, error) {
	p := NewParser(input, ParseOptions{})
	p.net = NewNet()
	root, err := p.parseTree()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	p.net.Root = root
	return p.net, nil
}

// Warnings returns the diagnostics collected so far.
func (p *Parser) Warnings() []Warning {
	return p.warnings
}

func (p *Parser) finish() error {
	p.skipTrivia()
	if !p.atEnd() {
		return p.expected("end of input")
	}
	return nil
}

// ParseBook parses definitions of the form @name = net until input runs out.
func (p *Parser) ParseBook() (*Book, error) {
	book := NewBook()
	for {
		p.skipTrivia()
		if p.atEnd() {
			return book, nil
		}

		start := p.pos
		if err := p.consume("@"); err != nil {
			return nil, err
		}
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		nameEnd := p.pos
		if err := p.consume("="); err != nil {
			return nil, err
		}
		net, err := p.ParseNet()
		if err != nil {
			return nil, err
		}

		if _, dup := book.Get(name); dup {
			if p.opts.Strict {
				return nil, p.errorAt(start, nameEnd, "duplicate definition @%s", name)
			}
			p.warnings = append(p.warnings, Warning{
				Message: "@" + name + " redefined; the earlier definition is discarded",
				Span:    Span{Start: start, End: nameEnd},
				Pos:     positionAt(p.input, start),
			})
		}
		book.Define(name, net)
	}
}

// ParseNet parses a root tree followed by zero or more "& [!] tree ~ tree" redexes.
func (p *Parser) ParseNet() (*Net, error) {
	p.net = NewNet()
	net := p.net

	root, err := p.parseTree()
	if err != nil {
		return nil, err
	}
	net.Root = root

	p.skipTrivia()
	for p.peek() == '&' {
		p.pos++ // consume &
		par := p.tryConsume("!")

		fst, err := p.parseTree()
		if err != nil {
			return nil, err
		}
		if err := p.consume("~"); err != nil {
			return nil, err
		}
		snd, err := p.parseTree()
		if err != nil {
			return nil, err
		}
		net.AddRedex(par, fst, snd)
		p.skipTrivia()
	}
	return net, nil
}

// parseTree parses any tree into p.net.
func (p *Parser) parseTree() (Tree, error) {
	p.skipTrivia()

	switch ch := p.peek(); ch {
	case '(':
		p.pos++
		return p.parseBinary(KindCon, ")")

	case '{':
		p.pos++
		return p.parseBinary(KindDup, "}")

	case '$', '?':
		p.pos++
		if err := p.consume("("); err != nil {
			return 0, err
		}
		kind := KindOpr
		if ch == '?' {
			kind = KindSwi
		}
		return p.parseBinary(kind, ")")

	case '@':
		p.pos++
		name, err := p.parseName()
		if err != nil {
			return 0, err
		}
		return p.net.Ref(name), nil

	case '*':
		p.pos++
		return p.net.Era(), nil

	default:
		if isNumberStart(ch) {
			num, err := p.parseNumb()
			if err != nil {
				return 0, err
			}
			return p.net.Num(num), nil
		}
		name, err := p.parseName()
		if err != nil {
			return 0, err
		}
		return p.net.Var(name), nil
	}
}

// parseBinary parses "fst snd" and the closing delimiter; the opening one
// is already consumed.
func (p *Parser) parseBinary(kind Kind, closing string) (Tree, error) {
	fst, err := p.parseTree()
	if err != nil {
		return 0, err
	}
	snd, err := p.parseTree()
	if err != nil {
		return 0, err
	}
	if err := p.consume(closing); err != nil {
		return 0, err
	}
	return p.net.Binary(kind, fst, snd), nil
}
