package rml

// RML/R2RML vocabulary IRIs, grounded verbatim on
// original_source/rml_uris.h. The "synthetic" block holds the
// ex:-scheme predicates this package introduces during normalization
// (spec §4.2 pass 6, §6 "Synthetic predicates") — they live under a
// reserved authority and are never emitted in generated output.
const (
	IRITermType     = "http://www.w3.org/ns/r2rml#IRI"
	LiteralTermType = "http://www.w3.org/ns/r2rml#Literal"
	BlankTermType   = "http://www.w3.org/ns/r2rml#BlankNode"

	TriplesMap             = "http://www.w3.org/ns/r2rml#TriplesMap"
	CSVReferenceFormulation = "http://semweb.mmlab.be/ns/ql#CSV"
	RDFType                = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	RMLConstant            = "http://www.w3.org/ns/r2rml#constant"
	RMLSubject              = "http://www.w3.org/ns/r2rml#subject"
	RMLPredicate            = "http://www.w3.org/ns/r2rml#predicate"
	RMLObject               = "http://www.w3.org/ns/r2rml#object"
	RMLGraph                = "http://www.w3.org/ns/r2rml#graph"
	RMLSubjectMap           = "http://www.w3.org/ns/r2rml#subjectMap"
	RMLPredicateMap         = "http://www.w3.org/ns/r2rml#predicateMap"
	RMLObjectMap            = "http://www.w3.org/ns/r2rml#objectMap"
	RMLGraphMap             = "http://www.w3.org/ns/r2rml#graphMap"
	RMLTemplate             = "http://www.w3.org/ns/r2rml#template"
	RMLReference            = "http://semweb.mmlab.be/ns/rml#reference"
	RMLParent               = "http://www.w3.org/ns/r2rml#parent"
	RMLChild                = "http://www.w3.org/ns/r2rml#child"
	RMLLanguage             = "http://www.w3.org/ns/r2rml#language"
	RMLLanguageMap          = "http://www.w3.org/ns/r2rml#languageMap"
	RMLDataType             = "http://www.w3.org/ns/r2rml#datatype"
	RMLDataTypeMap          = "http://www.w3.org/ns/r2rml#datatypeMap"
	RMLTermType             = "http://www.w3.org/ns/r2rml#termType"
	RMLLogicalSource        = "http://semweb.mmlab.be/ns/rml#logicalSource"
	RMLPredicateObjectMap   = "http://www.w3.org/ns/r2rml#predicateObjectMap"
	RMLParentTriplesMap     = "http://www.w3.org/ns/r2rml#parentTriplesMap"
	RMLJoinCondition        = "http://www.w3.org/ns/r2rml#joinCondition"
	RMLClass                = "http://www.w3.org/ns/r2rml#class"
	RMLSource               = "http://semweb.mmlab.be/ns/rml#source"
	RMLReferenceFormulation = "http://semweb.mmlab.be/ns/rml#referenceFormulation"
	RMLIterator             = "http://semweb.mmlab.be/ns/rml#iterator"
	DefaultGraph            = "http://www.w3.org/ns/r2rml#defaultGraph"

	SDName = "https://w3id.org/okn/o/sd#name"

	// Synthetic predicates minted by Normalize; never emitted.
	synParentSource             = "http://rmlstream.internal/ns#parentSource"
	synParentReferenceFormulation = "http://rmlstream.internal/ns#parentReferenceFormulation"
	synJoinReferenceCondition   = "http://rmlstream.internal/ns#joinReferenceCondition"
)
