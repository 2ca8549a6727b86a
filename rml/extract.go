package rml

import (
	"fmt"
	"strings"

	"github.com/rmlstream/rmlstream/rdf"
)

// languageSubtagAllowList is the closed set of primary ISO-639-1 subtags
// the extractor accepts on a language tag; anything else is a schema
// violation. Grounded on rml_extractor.cpp's is_valid_language check.
var languageSubtagAllowList = map[string]bool{
	"en": true, "fr": true, "de": true, "es": true, "it": true,
	"pt": true, "nl": true, "ru": true, "zh": true, "ja": true,
	"ko": true, "ar": true, "hi": true, "bn": true, "pa": true,
	"jv": true, "vi": true, "tr": true, "pl": true, "uk": true,
}

// Extract walks a normalized triple store and produces an immutable
// Plan: one LogicalSource, one SubjectMap, and a list of
// PredicateObjectMaps per rr:TriplesMap subject. baseIRI is the RML
// document's declared @base (empty if none). Grounded on
// original_source/rml_extractor.cpp's extract_rml_info_of_* family and
// parse_rml_rules.
func Extract(store *rdf.Store, baseIRI string) (*Plan, error) {
	plan := &Plan{BaseIRI: baseIRI}
	seen := map[string]bool{}
	for _, tm := range store.SubjectsOf(RDFType, TriplesMap) {
		if seen[tm] {
			continue
		}
		seen[tm] = true
		compiled, err := extractTriplesMap(store, tm)
		if err != nil {
			return nil, err
		}
		plan.TriplesMaps = append(plan.TriplesMaps, *compiled)
	}
	return plan, nil
}

func extractTriplesMap(store *rdf.Store, tm string) (*TriplesMap, error) {
	lsNodes := store.ObjectsOf(tm, RMLLogicalSource)
	if len(lsNodes) != 1 {
		return nil, fmt.Errorf("rml: triples map %s must have exactly one logical source, found %d", tm, len(lsNodes))
	}
	ls, err := extractLogicalSource(store, lsNodes[0])
	if err != nil {
		return nil, err
	}

	smNodes := store.ObjectsOf(tm, RMLSubjectMap)
	if len(smNodes) != 1 {
		return nil, fmt.Errorf("rml: triples map %s must have exactly one subject map, found %d", tm, len(smNodes))
	}
	sm, err := extractSubjectMap(store, smNodes[0])
	if err != nil {
		return nil, err
	}

	var poms []PredicateObjectMap
	for _, pomNode := range store.ObjectsOf(tm, RMLPredicateObjectMap) {
		pom, err := extractPredicateObjectMap(store, pomNode)
		if err != nil {
			return nil, err
		}
		poms = append(poms, *pom)
	}

	return &TriplesMap{ID: tm, LogicalSource: *ls, SubjectMap: *sm, PredicateObjectMaps: poms}, nil
}

func extractLogicalSource(store *rdf.Store, ls string) (*LogicalSource, error) {
	srcs := store.ObjectsOf(ls, RMLSource)
	if len(srcs) != 1 {
		return nil, fmt.Errorf("rml: logical source %s must have exactly one rml:source, found %d", ls, len(srcs))
	}
	rf := CSVReferenceFormulation
	if rfs := store.ObjectsOf(ls, RMLReferenceFormulation); len(rfs) > 0 {
		rf = rfs[0]
	}
	if rf != CSVReferenceFormulation {
		return nil, fmt.Errorf("rml: unsupported reference formulation %q on logical source %s (only CSV is supported)", rf, ls)
	}
	return &LogicalSource{Source: srcs[0], ReferenceFormulation: rf}, nil
}

func extractSubjectMap(store *rdf.Store, sm string) (*SubjectMap, error) {
	typ, val, ok := resolveTermMapValue(store, sm)
	if !ok {
		return nil, fmt.Errorf("rml: subject map %s has no template, reference, or constant", sm)
	}
	termType := TermIRI
	if tts := store.ObjectsOf(sm, RMLTermType); len(tts) > 0 {
		tt, ok := parseTermType(tts[0])
		if !ok {
			return nil, fmt.Errorf("rml: subject map %s has unrecognized term type %q", sm, tts[0])
		}
		termType = tt
	}
	classes := store.ObjectsOf(sm, RMLClass)
	graphs, err := extractGraphMaps(store, sm)
	if err != nil {
		return nil, err
	}
	return &SubjectMap{Type: typ, Value: val, TermType: termType, Classes: classes, Graphs: graphs}, nil
}

func extractGraphMaps(store *rdf.Store, node string) ([]GraphMap, error) {
	var graphs []GraphMap
	for _, gm := range store.ObjectsOf(node, RMLGraphMap) {
		typ, val, ok := resolveTermMapValue(store, gm)
		if !ok {
			return nil, fmt.Errorf("rml: graph map %s has no template, reference, or constant", gm)
		}
		if tts := store.ObjectsOf(gm, RMLTermType); len(tts) > 0 {
			if tt, ok := parseTermType(tts[0]); !ok || tt != TermIRI {
				return nil, fmt.Errorf("rml: graph map %s term-type must be IRI", gm)
			}
		}
		graphs = append(graphs, GraphMap{Type: typ, Value: val})
	}
	return graphs, nil
}

func extractPredicateObjectMap(store *rdf.Store, pom string) (*PredicateObjectMap, error) {
	predNodes := store.ObjectsOf(pom, RMLPredicateMap)
	if len(predNodes) != 1 {
		return nil, fmt.Errorf("rml: predicate-object map %s must have exactly one predicate map, found %d", pom, len(predNodes))
	}
	pred, err := extractPredicateMap(store, predNodes[0])
	if err != nil {
		return nil, err
	}

	objNodes := store.ObjectsOf(pom, RMLObjectMap)
	if len(objNodes) != 1 {
		return nil, fmt.Errorf("rml: predicate-object map %s must have exactly one object map, found %d", pom, len(objNodes))
	}
	om := objNodes[0]

	graphs, err := extractGraphMaps(store, pom)
	if err != nil {
		return nil, err
	}

	join, err := extractJoinDescriptor(store, om)
	if err != nil {
		return nil, err
	}
	obj, err := extractObjectMap(store, om, join != nil)
	if err != nil {
		return nil, err
	}

	return &PredicateObjectMap{Predicate: *pred, Object: *obj, Join: join, Graphs: graphs}, nil
}

func extractPredicateMap(store *rdf.Store, pm string) (*PredicateMap, error) {
	typ, val, ok := resolveTermMapValue(store, pm)
	if !ok {
		return nil, fmt.Errorf("rml: predicate map %s has no template, reference, or constant", pm)
	}
	return &PredicateMap{Type: typ, Value: val}, nil
}

// extractJoinDescriptor recognizes the synthetic predicates the join
// expansion normalization pass attaches to an object map; an object map
// with none of them is an ordinary (non-join) object map.
func extractJoinDescriptor(store *rdf.Store, om string) (*JoinDescriptor, error) {
	flags := store.ObjectsOf(om, synJoinReferenceCondition)
	if len(flags) == 0 {
		return nil, nil
	}
	parentCols := store.ObjectsOf(om, RMLParent)
	childCols := store.ObjectsOf(om, RMLChild)
	if len(parentCols) != 1 || len(childCols) != 1 {
		return nil, fmt.Errorf("rml: join object map %s missing parent/child key", om)
	}
	parentSource := ""
	if srcs := store.ObjectsOf(om, synParentSource); len(srcs) > 0 {
		parentSource = srcs[0]
	}
	return &JoinDescriptor{
		ParentSource:       parentSource,
		ChildColumn:        childCols[0],
		ParentColumn:       parentCols[0],
		ReferenceCondition: flags[0] == "true",
	}, nil
}

func extractObjectMap(store *rdf.Store, om string, isJoin bool) (*ObjectMap, error) {
	typ, val, ok := resolveTermMapValue(store, om)
	if !ok {
		if !isJoin {
			return nil, fmt.Errorf("rml: object map %s has no template, reference, or constant", om)
		}
		// A join whose parent subject map wasn't template-based leaves
		// the derived template legitimately empty.
		typ, val = TermMapTemplate, ""
	}

	termType := defaultObjectTermType(typ, val)
	if tts := store.ObjectsOf(om, RMLTermType); len(tts) > 0 {
		tt, ok := parseTermType(tts[0])
		if !ok {
			return nil, fmt.Errorf("rml: object map %s has unrecognized term type %q", om, tts[0])
		}
		termType = tt
	}

	lang := ""
	if lms := store.ObjectsOf(om, RMLLanguageMap); len(lms) > 0 {
		if _, v, ok := resolveTermMapValue(store, lms[0]); ok && v != "" {
			if err := validateLanguageTag(v); err != nil {
				return nil, err
			}
			lang = v
		}
	}
	datatype := ""
	if dms := store.ObjectsOf(om, RMLDataTypeMap); len(dms) > 0 {
		if _, v, ok := resolveTermMapValue(store, dms[0]); ok {
			datatype = v
		}
	}
	if datatype != "" {
		lang = "" // datatype always wins over language
	}

	return &ObjectMap{Type: typ, Value: val, TermType: termType, Language: lang, Datatype: datatype}, nil
}

func defaultObjectTermType(typ TermMapType, val string) TermType {
	switch typ {
	case TermMapReference:
		return TermLiteral
	case TermMapConstant:
		if strings.HasPrefix(val, "http") {
			return TermIRI
		}
		return TermLiteral
	default: // template
		return TermIRI
	}
}

func validateLanguageTag(tag string) error {
	primary := tag
	if idx := strings.IndexByte(tag, '-'); idx >= 0 {
		primary = tag[:idx]
	}
	if !languageSubtagAllowList[strings.ToLower(primary)] {
		return fmt.Errorf("rml: unknown language subtag %q", primary)
	}
	return nil
}

func resolveTermMapValue(store *rdf.Store, node string) (TermMapType, string, bool) {
	if v := store.ObjectsOf(node, RMLTemplate); len(v) > 0 {
		return TermMapTemplate, v[0], true
	}
	if v := store.ObjectsOf(node, RMLReference); len(v) > 0 {
		return TermMapReference, v[0], true
	}
	if v := store.ObjectsOf(node, RMLConstant); len(v) > 0 {
		return TermMapConstant, v[0], true
	}
	return 0, "", false
}

func parseTermType(v string) (TermType, bool) {
	switch v {
	case IRITermType:
		return TermIRI, true
	case LiteralTermType:
		return TermLiteral, true
	case BlankTermType:
		return TermBlankNode, true
	default:
		return 0, false
	}
}
