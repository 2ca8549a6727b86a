// Package quadgen evaluates a compiled RML plan against CSV rows,
// producing fully syntax-wrapped N-Quads quad components per row: each
// of Subject/Predicate/Object already carries its <IRI>/_:label/"literal"
// shape, and Graph is the wrapped graph IRI or empty for the default
// graph — so the streaming writer only has to join fields with spaces.
package quadgen

import (
	"fmt"
	"strings"

	"github.com/rmlstream/rmlstream/parentindex"
	"github.com/rmlstream/rmlstream/rml"
	"github.com/rmlstream/rmlstream/template"
)

// Quad is one row-generated quad, dedup-comparable as a plain struct.
type Quad struct {
	Subject   string
	Predicate string
	Object    string
	Graph     string
}

// JoinIndex bundles whichever parent index a predicate-object map's join
// actually needs — exactly one of Reference/Full is set, matching the
// join descriptor's ReferenceCondition flag.
type JoinIndex struct {
	Reference *parentindex.ReferenceIndex
	Full      *parentindex.FullIndex
}

// Generator evaluates one triples map's plan over successive rows.
type Generator struct {
	tm      rml.TriplesMap
	baseIRI string
	eval    *template.Evaluator
	joins   map[int]JoinIndex // keyed by index into tm.PredicateObjectMaps
}

// NewGenerator builds a Generator for tm. joins supplies the prebuilt
// parent index for every predicate-object map in tm.PredicateObjectMaps
// that carries a join descriptor (by slice index); entries for
// non-joining predicate-object maps are simply absent.
func NewGenerator(tm rml.TriplesMap, baseIRI string, eval *template.Evaluator, joins map[int]JoinIndex) *Generator {
	return &Generator{tm: tm, baseIRI: baseIRI, eval: eval, joins: joins}
}

// GenerateRow produces every quad tm's plan derives from one row, in the
// order: subject graph(s), subject, class expansion, then per
// predicate-object map the predicate, object(s), decoration, and any
// per-POM graph override — deduplicated within the row before being
// handed to the caller. Grounded on original_source/FlexRML.cpp's
// generate_quads/generate_subject/generate_predicate/generate_object*/
// generate_graph* family and termtype_helper.cpp's handle_term_type*.
func (g *Generator) GenerateRow(header, row []string) ([]Quad, error) {
	subjGraphs, rowSkip, err := g.evalGraphMaps(g.tm.SubjectMap.Graphs, header, row)
	if err != nil {
		return nil, err
	}
	if rowSkip {
		return nil, nil
	}

	subjTT := objectTermTypeFor(g.tm.SubjectMap.TermType)
	rawSubj, empty, err := g.evalTermMap(g.tm.SubjectMap.Type, g.tm.SubjectMap.Value, header, row, subjTT)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}
	if g.tm.SubjectMap.TermType == rml.TermIRI && !hasScheme(rawSubj) {
		rawSubj = g.baseIRI + rawSubj
	}
	subject, ok := wrapTerm(rawSubj, g.tm.SubjectMap.TermType)
	if !ok {
		return nil, nil
	}

	seen := map[Quad]bool{}
	var quads []Quad
	emit := func(q Quad) {
		if seen[q] {
			return
		}
		seen[q] = true
		quads = append(quads, q)
	}

	rdfType, _ := wrapTerm(rml.RDFType, rml.TermIRI)
	for _, classIRI := range g.tm.SubjectMap.Classes {
		classTerm, ok := wrapTerm(classIRI, rml.TermIRI)
		if !ok {
			continue
		}
		for _, graph := range subjGraphs {
			emit(Quad{Subject: subject, Predicate: rdfType, Object: classTerm, Graph: graph})
		}
	}

	for i, pom := range g.tm.PredicateObjectMaps {
		rawPred, empty, err := g.evalTermMap(pom.Predicate.Type, pom.Predicate.Value, header, row, template.TermIRI)
		if err != nil {
			return nil, err
		}
		if empty {
			continue
		}
		predicate, ok := wrapTerm(rawPred, rml.TermIRI)
		if !ok {
			continue
		}

		objects, err := g.generateObjects(i, pom, header, row)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			continue
		}

		var pomGraphs []string
		var pomSkip bool
		if len(pom.Graphs) > 0 {
			pomGraphs, pomSkip, err = g.evalGraphMaps(pom.Graphs, header, row)
			if err != nil {
				return nil, err
			}
		}

		for _, obj := range objects {
			for _, graph := range subjGraphs {
				emit(Quad{Subject: subject, Predicate: predicate, Object: obj, Graph: graph})
			}
			if len(pom.Graphs) > 0 && !pomSkip {
				for _, graph := range pomGraphs {
					emit(Quad{Subject: subject, Predicate: predicate, Object: obj, Graph: graph})
				}
			}
		}
	}

	return quads, nil
}

// generateObjects handles the three object-generation cases: no join,
// reference-condition join (single-offset membership check, object
// evaluated against the child row), and full join (object evaluated once
// per matching projected parent tuple).
func (g *Generator) generateObjects(pomIdx int, pom rml.PredicateObjectMap, header, row []string) ([]string, error) {
	om := pom.Object
	objTT := objectTermTypeFor(om.TermType)

	if pom.Join == nil {
		raw, empty, err := g.evalTermMap(om.Type, om.Value, header, row, objTT)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, nil
		}
		wrapped, ok := wrapTerm(raw, om.TermType)
		if !ok {
			return nil, nil
		}
		return []string{g.decorate(wrapped, om)}, nil
	}

	join := pom.Join
	childIdx := indexOf(header, join.ChildColumn)
	if childIdx < 0 {
		return nil, fmt.Errorf("quadgen: child key %q not found in header", join.ChildColumn)
	}
	if childIdx >= len(row) {
		return nil, nil
	}
	childVal := row[childIdx]
	ji := g.joins[pomIdx]

	if join.ReferenceCondition {
		if ji.Reference == nil {
			return nil, fmt.Errorf("quadgen: no reference index built for join on %q", join.ParentSource)
		}
		if _, ok := ji.Reference.Lookup(childVal); !ok {
			return nil, nil
		}
		raw, empty, err := g.eval.Eval(om.Value, header, row, objTT)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, nil
		}
		wrapped, ok := wrapTerm(raw, om.TermType)
		if !ok {
			return nil, nil
		}
		return []string{g.decorate(wrapped, om)}, nil
	}

	if ji.Full == nil {
		return nil, fmt.Errorf("quadgen: no full index built for join on %q", join.ParentSource)
	}
	tuples, ok := ji.Full.Lookup(childVal)
	if !ok {
		return nil, nil
	}
	var objs []string
	for _, tuple := range tuples {
		raw, empty, err := g.eval.Eval(om.Value, ji.Full.Columns, tuple, objTT)
		if err != nil {
			return nil, err
		}
		if empty {
			continue
		}
		wrapped, ok := wrapTerm(raw, om.TermType)
		if !ok {
			continue
		}
		objs = append(objs, g.decorate(wrapped, om))
	}
	return objs, nil
}

// decorate appends a literal's datatype or language suffix — datatype
// always wins when both are set, per extraction-time normalization.
func (g *Generator) decorate(wrapped string, om rml.ObjectMap) string {
	if om.TermType != rml.TermLiteral {
		return wrapped
	}
	if om.Datatype != "" {
		return wrapped + "^^<" + om.Datatype + ">"
	}
	if om.Language != "" {
		return wrapped + "@" + om.Language
	}
	return wrapped
}

// evalGraphMaps evaluates a list of graph maps (subject-level or
// per-POM), translating the rr:defaultGraph sentinel into "no graph".
// Per spec, an empty-field result at the subject level suppresses the
// entire row; the caller distinguishes this via the skip return.
func (g *Generator) evalGraphMaps(graphs []rml.GraphMap, header, row []string) ([]string, bool, error) {
	if len(graphs) == 0 {
		return []string{""}, false, nil
	}
	var out []string
	for _, gm := range graphs {
		if gm.Type == rml.TermMapConstant && gm.Value == rml.DefaultGraph {
			out = append(out, "")
			continue
		}
		raw, empty, err := g.evalTermMap(gm.Type, gm.Value, header, row, template.TermIRI)
		if err != nil {
			return nil, false, err
		}
		if empty {
			return nil, true, nil
		}
		wrapped, ok := wrapTerm(raw, rml.TermIRI)
		if !ok {
			continue
		}
		out = append(out, wrapped)
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out, false, nil
}

// evalTermMap evaluates a {template, reference, constant} term map
// against a row: a reference is a one-placeholder template, a constant
// bypasses the evaluator entirely (no lookup, no empty-field check).
func (g *Generator) evalTermMap(typ rml.TermMapType, val string, header, row []string, tt template.TermType) (string, bool, error) {
	switch typ {
	case rml.TermMapConstant:
		return val, false, nil
	case rml.TermMapReference:
		return g.eval.Eval("{"+val+"}", header, row, tt)
	default: // template
		return g.eval.Eval(val, header, row, tt)
	}
}

// iriErrorChars mirrors termtype_helper.cpp's handle_term_type_IRI
// validity check: an interpolated IRI containing any of these bytes is
// silently skipped (non-fatal) rather than emitted.
const iriErrorChars = " !\"'(),[]"

// wrapTerm applies the final term-type syntax: <IRI>, _:label, or
// "literal" (backslashes stripped). An IRI containing an error character
// returns ok=false to signal "skip this quad".
func wrapTerm(val string, tt rml.TermType) (string, bool) {
	switch tt {
	case rml.TermIRI:
		if strings.ContainsAny(val, iriErrorChars) {
			return "", false
		}
		return "<" + val + ">", true
	case rml.TermBlankNode:
		return "_:" + val, true
	default: // literal
		return "\"" + strings.ReplaceAll(val, "\\", "") + "\"", true
	}
}

func objectTermTypeFor(tt rml.TermType) template.TermType {
	if tt == rml.TermIRI {
		return template.TermIRI
	}
	return template.TermLiteral
}

func hasScheme(v string) bool {
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
