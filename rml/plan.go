package rml

// Plan is the immutable result of extracting a normalized mapping store
// into the data model the downstream generator layers consume. Grounded
// on original_source/rml_extractor.h's RMLInfo aggregate.
type Plan struct {
	// BaseIRI is the RML document's declared @base, attached here rather
	// than duplicated onto every subject map. Used to prefix an
	// interpolated subject IRI that doesn't already start with
	// "http://"/"https://".
	BaseIRI     string
	TriplesMaps []TriplesMap
}

// TriplesMap is one `rr:TriplesMap` subject's fully-resolved mapping:
// where its rows come from, how to mint the subject (and its rdf:type
// triples), and the predicate-object maps that produce the rest of each
// row's triples.
type TriplesMap struct {
	ID                  string
	LogicalSource       LogicalSource
	SubjectMap          SubjectMap
	PredicateObjectMaps []PredicateObjectMap
}

// LogicalSource names the CSV file (or registered in-memory source) a
// triples map iterates, grounded on rml_extractor.cpp's
// extract_rml_info_of_logical_source.
type LogicalSource struct {
	Source              string
	ReferenceFormulation string
}

// TermMapType records how the raw lexical value of a term map was
// produced before any join was applied.
type TermMapType int

const (
	TermMapReference TermMapType = iota
	TermMapTemplate
	TermMapConstant
)

// TermType is the RML/R2RML rr:termType a generated term must take.
type TermType int

const (
	TermIRI TermType = iota
	TermLiteral
	TermBlankNode
)

// SubjectMap produces a triples map's subject term and, optionally, a
// fixed set of rdf:type class IRIs and a graph override.
type SubjectMap struct {
	Type     TermMapType
	Value    string // reference column name, template string, or constant IRI
	TermType TermType
	Classes  []string
	Graphs   []GraphMap
}

// GraphMap produces a graph IRI override per row (or per compile, for the
// constant case). Graph term-type is always IRI; the special constant
// value rr:defaultGraph means "no graph" (serialized as the default
// graph, i.e. omitted from the emitted quad).
type GraphMap struct {
	Type  TermMapType
	Value string
}

// PredicateObjectMap pairs one predicate generator with one object (or
// join) generator, plus its own optional graph override. Grounded on
// rml_extractor.cpp's extract_rml_info_of_predicate_object_map, after
// normalization has already fanned multi-valued rr:predicate/rr:object
// lists out into one PredicateObjectMap per (predicate, object) pair.
type PredicateObjectMap struct {
	Predicate PredicateMap
	Object    ObjectMap
	Join      *JoinDescriptor // nil unless this object map is a join (rr:parentTriplesMap)
	Graphs    []GraphMap
}

// PredicateMap produces the predicate term of a generated triple. RML
// predicates are always IRIs.
type PredicateMap struct {
	Type  TermMapType
	Value string
}

// ObjectMap produces the object term of a generated triple when Join is
// nil. Grounded on rml_extractor.cpp's extract_rml_info_of_object_map and
// termtype_helper.cpp's default term-type rules (reference defaults to
// rr:Literal, a constant starting with "http" to rr:IRI and any other
// constant to rr:Literal, a template to rr:IRI).
type ObjectMap struct {
	Type     TermMapType
	Value    string
	TermType TermType
	Language string // BCP47 subtag, validated against the allow-list; empty if none
	Datatype string // IRI; empty if none. Datatype wins over Language when both are set.
}

// JoinDescriptor describes a parent-triples-map join. ReferenceCondition
// is true when the join can be served by a single-match reference index
// rather than a full index: the parent triples map's subject template
// collapses to exactly `{ParentColumn}`, so the child row already carries
// everything needed to mint the object without consulting the parent's
// projected columns.
type JoinDescriptor struct {
	ParentSource       string
	ChildColumn        string
	ParentColumn       string
	ReferenceCondition bool
}
