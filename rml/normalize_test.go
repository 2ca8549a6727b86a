package rml

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmlstream/rmlstream/rdf"
	"github.com/rmlstream/rmlstream/rdf/turtle"
)

func sortedTriples(triples []rdf.Triple) []string {
	var out []string
	for _, t := range triples {
		out = append(out, t.Subject+"|"+t.Predicate+"|"+t.Object)
	}
	sort.Strings(out)
	return out
}

// TestNormalizeIdempotent is property P1: normalizing an already
// normalized document produces the same multiset of triples.
func TestNormalizeIdempotent(t *testing.T) {
	doc := `
@prefix rr: <http://www.w3.org/ns/r2rml#> .
@prefix rml: <http://semweb.mmlab.be/ns/rml#> .
@base <http://example.com/> .

<#TM1>
  rml:logicalSource [
    rml:source "students.csv";
    rml:referenceFormulation <http://semweb.mmlab.be/ns/ql#CSV>
  ];
  rr:subject <http://ex/s> ;
  rr:predicateObjectMap [
    rr:predicate <http://ex/p1>, <http://ex/p2> ;
    rr:object "v1", "v2"
  ] .
`
	triples, _, err := turtle.Parse(doc)
	require.NoError(t, err)

	store1 := rdf.NewStore(triples)
	Normalize(store1, rdf.NewBlankNodeCounter(0))
	first := sortedTriples(store1.All())

	store2 := rdf.NewStore(append([]rdf.Triple{}, store1.All()...))
	Normalize(store2, rdf.NewBlankNodeCounter(1000))
	second := sortedTriples(store2.All())

	assert.Equal(t, first, second)
}

func TestImplicitTypePassAddsTriplesMapType(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "tm1", Predicate: RMLLogicalSource, Object: "ls1"},
	})
	Normalize(store, rdf.NewBlankNodeCounter(0))
	assert.Contains(t, store.ObjectsOf("tm1", RDFType), TriplesMap)
}

func TestConstantShorthandExpandsSubject(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "tm1", Predicate: RMLLogicalSource, Object: "ls1"},
		{Subject: "tm1", Predicate: RMLSubject, Object: "http://ex/s"},
	})
	Normalize(store, rdf.NewBlankNodeCounter(0))
	assert.Empty(t, store.ObjectsOf("tm1", RMLSubject))
	sms := store.ObjectsOf("tm1", RMLSubjectMap)
	require.Len(t, sms, 1)
	assert.Equal(t, []string{"http://ex/s"}, store.ObjectsOf(sms[0], RMLConstant))
}

func TestMultiPredicateFanOut(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "tm1", Predicate: RMLPredicateObjectMap, Object: "pom1"},
		{Subject: "pom1", Predicate: RMLPredicateMap, Object: "pm1"},
		{Subject: "pom1", Predicate: RMLPredicateMap, Object: "pm2"},
		{Subject: "pom1", Predicate: RMLObjectMap, Object: "om1"},
	})
	multiPredicateFanOutPass(store, rdf.NewBlankNodeCounter(0))

	poms := store.ObjectsOf("tm1", RMLPredicateObjectMap)
	require.Len(t, poms, 2)
	for _, pom := range poms {
		preds := store.ObjectsOf(pom, RMLPredicateMap)
		require.Len(t, preds, 1)
		assert.Equal(t, []string{"om1"}, store.ObjectsOf(pom, RMLObjectMap))
	}
}

func TestMultiObjectFanOut(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "tm1", Predicate: RMLPredicateObjectMap, Object: "pom1"},
		{Subject: "pom1", Predicate: RMLPredicateMap, Object: "pm1"},
		{Subject: "pom1", Predicate: RMLObjectMap, Object: "om1"},
		{Subject: "pom1", Predicate: RMLObjectMap, Object: "om2"},
	})
	multiObjectFanOutPass(store, rdf.NewBlankNodeCounter(0))

	poms := store.ObjectsOf("tm1", RMLPredicateObjectMap)
	require.Len(t, poms, 2)
	var objs []string
	for _, pom := range poms {
		assert.Equal(t, []string{"pm1"}, store.ObjectsOf(pom, RMLPredicateMap))
		objs = append(objs, store.ObjectsOf(pom, RMLObjectMap)...)
	}
	sort.Strings(objs)
	assert.Equal(t, []string{"om1", "om2"}, objs)
}

func TestLocalParentInlining(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "pom1", Predicate: RMLObjectMap, Object: "om1"},
		{Subject: "om1", Predicate: RMLParentTriplesMap, Object: "parentTM"},
		{Subject: "parentTM", Predicate: RMLSubjectMap, Object: "parentSM"},
	})
	localParentInliningPass(store)
	assert.Equal(t, []string{"parentSM"}, store.ObjectsOf("pom1", RMLObjectMap))
}

func TestJoinExpansionDerivesReferenceCondition(t *testing.T) {
	store := rdf.NewStore([]rdf.Triple{
		{Subject: "pom1", Predicate: RMLObjectMap, Object: "om1"},
		{Subject: "om1", Predicate: RMLParentTriplesMap, Object: "parentTM"},
		{Subject: "om1", Predicate: RMLJoinCondition, Object: "jc1"},
		{Subject: "jc1", Predicate: RMLChild, Object: "sport"},
		{Subject: "jc1", Predicate: RMLParent, Object: "id"},
		{Subject: "parentTM", Predicate: RMLSubjectMap, Object: "parentSM"},
		{Subject: "parentSM", Predicate: RMLTemplate, Object: "{id}"},
		{Subject: "parentTM", Predicate: RMLLogicalSource, Object: "parentLS"},
		{Subject: "parentLS", Predicate: RMLSource, Object: "sports.csv"},
	})
	joinExpansionPass(store, rdf.NewBlankNodeCounter(0))

	newOMs := store.ObjectsOf("pom1", RMLObjectMap)
	require.Len(t, newOMs, 1)
	newOM := newOMs[0]
	assert.NotEqual(t, "om1", newOM)
	assert.Equal(t, []string{"{sport}"}, store.ObjectsOf(newOM, RMLTemplate))
	assert.Equal(t, []string{"sports.csv"}, store.ObjectsOf(newOM, synParentSource))
	assert.Equal(t, []string{"true"}, store.ObjectsOf(newOM, synJoinReferenceCondition))
	assert.Empty(t, store.ObjectsOf("om1", RMLParentTriplesMap))
}
