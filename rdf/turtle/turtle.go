package turtle

import (
	"fmt"
	"strings"

	"github.com/rmlstream/rmlstream/rdf"
)

// Parse reads a Turtle document and returns its triples in document order
// plus the declared base IRI (empty if none was declared). CURIEs are
// expanded against @prefix declarations before being returned; blank-node
// labels (both `_:x` and anonymous `[ ... ]`) are returned without the
// "_:" prefix, matching rdf.Triple's convention that Subject/Object hold
// bare labels for blank nodes.
func Parse(doc string) (triples []rdf.Triple, baseIRI string, err error) {
	lx, err := newLexer(doc)
	if err != nil {
		return nil, "", err
	}
	p := &parser{lx: lx, prefixes: map[string]string{}, bnodes: 0}
	if err := p.parseDocument(); err != nil {
		return nil, "", err
	}
	return p.triples, p.base, nil
}

type parser struct {
	lx       *lexer
	prefixes map[string]string
	base     string
	triples  []rdf.Triple
	bnodes   int
}

func (p *parser) freshBlank() string {
	p.bnodes++
	return fmt.Sprintf("turtle_anon_%d", p.bnodes)
}

func (p *parser) parseDocument() error {
	for {
		t := p.lx.peek()
		switch t.kind {
		case tokEOF:
			return nil
		case tokPrefixKW:
			if err := p.parsePrefixDirective(); err != nil {
				return err
			}
		case tokBaseKW:
			if err := p.parseBaseDirective(); err != nil {
				return err
			}
		default:
			if err := p.parseTriples(); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parsePrefixDirective() error {
	p.lx.next() // @prefix
	label := p.lx.next()
	if label.kind != tokPName {
		return fmt.Errorf("turtle: expected prefix label after @prefix")
	}
	iriTok := p.lx.next()
	if iriTok.kind != tokIRI {
		return fmt.Errorf("turtle: expected IRI after prefix label %q", label.text)
	}
	name := strings.TrimSuffix(label.text, ":")
	p.prefixes[name] = iriTok.text
	if dot := p.lx.next(); dot.kind != tokDot {
		return fmt.Errorf("turtle: expected '.' to close @prefix directive")
	}
	return nil
}

func (p *parser) parseBaseDirective() error {
	p.lx.next() // @base
	iriTok := p.lx.next()
	if iriTok.kind != tokIRI {
		return fmt.Errorf("turtle: expected IRI after @base")
	}
	p.base = iriTok.text
	if dot := p.lx.next(); dot.kind != tokDot {
		return fmt.Errorf("turtle: expected '.' to close @base directive")
	}
	return nil
}

// parseTriples parses one `subject predicateObjectList .` statement (or a
// `[ ... ] .` statement whose subject is an anonymous blank node),
// emitting triples as it goes.
func (p *parser) parseTriples() error {
	subj, err := p.parseSubject()
	if err != nil {
		return err
	}
	if err := p.parsePredicateObjectList(subj); err != nil {
		return err
	}
	if dot := p.lx.next(); dot.kind != tokDot {
		return fmt.Errorf("turtle: expected '.' to terminate statement, got %v", dot)
	}
	return nil
}

func (p *parser) parseSubject() (string, error) {
	t := p.lx.peek()
	switch t.kind {
	case tokOpenSq:
		return p.parseAnonBlankNode()
	default:
		return p.parseNode()
	}
}

// parseNode parses a single non-blank-collection RDF term reference: IRI,
// prefixed name, or blank-node label. It does not consume literals (those
// only occur in object position, handled by parseObject).
func (p *parser) parseNode() (string, error) {
	t := p.lx.next()
	switch t.kind {
	case tokIRI:
		return p.resolveIRI(t.text), nil
	case tokPName:
		return p.expandPName(t.text)
	case tokBlank:
		return t.text, nil
	case tokA:
		return "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", nil
	default:
		return "", fmt.Errorf("turtle: expected IRI, prefixed name, or blank node, got %v", t)
	}
}

func (p *parser) resolveIRI(iri string) string {
	if strings.Contains(iri, "://") || p.base == "" {
		return iri
	}
	if strings.HasPrefix(iri, "#") {
		return p.base + iri
	}
	return p.base + iri
}

func (p *parser) expandPName(pname string) (string, error) {
	idx := strings.IndexByte(pname, ':')
	if idx < 0 {
		return "", fmt.Errorf("turtle: malformed prefixed name %q", pname)
	}
	prefix, local := pname[:idx], pname[idx+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("turtle: undeclared prefix %q in %q", prefix, pname)
	}
	return ns + local, nil
}

// parseAnonBlankNode parses a `[ predicateObjectList? ]` anonymous blank
// node, emitting triples for every predicate-object pair found inside and
// returning the fresh blank-node label standing for it.
func (p *parser) parseAnonBlankNode() (string, error) {
	if open := p.lx.next(); open.kind != tokOpenSq {
		return "", fmt.Errorf("turtle: expected '['")
	}
	label := p.freshBlank()
	if p.lx.peek().kind == tokCloseSq {
		p.lx.next()
		return label, nil
	}
	if err := p.parsePredicateObjectList(label); err != nil {
		return "", err
	}
	if close := p.lx.next(); close.kind != tokCloseSq {
		return "", fmt.Errorf("turtle: expected ']' to close anonymous blank node")
	}
	return label, nil
}

// parsePredicateObjectList parses `predicate objectList (';' predicate
// objectList)*` and emits one triple per (predicate, object) pair with
// subj as the fixed subject.
func (p *parser) parsePredicateObjectList(subj string) error {
	for {
		pred, err := p.parseNode()
		if err != nil {
			return err
		}
		if err := p.parseObjectList(subj, pred); err != nil {
			return err
		}
		if p.lx.peek().kind != tokSemi {
			return nil
		}
		p.lx.next() // consume ';'
		// A trailing ';' immediately followed by '.' or ']' is legal Turtle
		// (empty predicateObjectList continuation); stop in that case.
		if k := p.lx.peek().kind; k == tokDot || k == tokCloseSq {
			return nil
		}
	}
}

// parseObjectList parses `object (',' object)*` and emits one triple per
// object with the given subject and predicate.
func (p *parser) parseObjectList(subj, pred string) error {
	for {
		obj, err := p.parseObject()
		if err != nil {
			return err
		}
		p.triples = append(p.triples, rdf.Triple{Subject: subj, Predicate: pred, Object: obj})
		if p.lx.peek().kind != tokComma {
			return nil
		}
		p.lx.next() // consume ','
	}
}

// parseObject parses a single object term: IRI, prefixed name, blank-node
// label, anonymous blank node, or literal (optionally typed/language
// tagged). Literal values are returned unshaped (no quotes) — the RML
// extractor interprets rr:constant/rr:template/rr:reference string values
// as plain strings, matching NTriple.object semantics in the original.
func (p *parser) parseObject() (string, error) {
	t := p.lx.peek()
	switch t.kind {
	case tokOpenSq:
		return p.parseAnonBlankNode()
	case tokLiteral:
		p.lx.next()
		val := t.text
		switch p.lx.peek().kind {
		case tokDatatype:
			p.lx.next()
			_, err := p.parseNode() // datatype IRI is discarded; RML never reads it off a literal object
			if err != nil {
				return "", err
			}
		case tokLangTag:
			p.lx.next() // language tag is discarded for the same reason
		}
		return val, nil
	default:
		return p.parseNode()
	}
}
