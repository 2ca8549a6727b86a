package estimate

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmlstream/rmlstream/csvsource"
	"github.com/rmlstream/rmlstream/parentindex"
	"github.com/rmlstream/rmlstream/rml"
	"github.com/rmlstream/rmlstream/template"
)

func csvOf(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestSelectWidthThresholds(t *testing.T) {
	assert.Equal(t, Width32, SelectWidth(0))
	assert.Equal(t, Width32, SelectWidth(2073))
	assert.Equal(t, Width64, SelectWidth(2074))
	assert.Equal(t, Width64, SelectWidth(135835773))
	assert.Equal(t, Width128, SelectWidth(135835774))
}

func TestChooseWidthFixedOverrideBypassesEstimation(t *testing.T) {
	e := NewEstimator(Options{FixedWidth: Width32}, template.NewEvaluator(nil), "http://ex/")
	width, _, err := e.ChooseWidth(&rml.Plan{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Width32, width)
}

func TestChooseWidthNoOverrideNoAdaptivePicks128(t *testing.T) {
	e := NewEstimator(Options{}, template.NewEvaluator(nil), "http://ex/")
	width, _, err := e.ChooseWidth(&rml.Plan{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Width128, width)
}

func TestEstimateNoJoinScalesByRate(t *testing.T) {
	header := []string{"id"}
	var rows [][]string
	for i := 0; i < 1000; i++ {
		rows = append(rows, []string{strconv.Itoa(i)})
	}
	src := csvsource.NewInMemory("rows.csv", csvOf(header, rows))

	tm := rml.TriplesMap{
		ID:            "tm1",
		LogicalSource: rml.LogicalSource{Source: "rows.csv"},
		SubjectMap:    rml.SubjectMap{Type: rml.TermMapTemplate, Value: "http://ex/{id}", TermType: rml.TermIRI},
	}
	pom := rml.PredicateObjectMap{
		Predicate: rml.PredicateMap{Type: rml.TermMapConstant, Value: "http://ex/p"},
		Object:    rml.ObjectMap{Type: rml.TermMapReference, Value: "id", TermType: rml.TermLiteral},
	}

	e := NewEstimator(Options{Rate: 1.0, Rand: rand.New(rand.NewSource(1))}, template.NewEvaluator(nil), "http://ex/")
	est, err := e.estimateNoJoin(tm, pom, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), est) // rate 1.0: every row sampled, every id distinct
}

func TestEstimateClassesConstantSubject(t *testing.T) {
	src := csvsource.NewInMemory("rows.csv", csvOf([]string{"id"}, [][]string{{"1"}, {"2"}}))
	tm := rml.TriplesMap{
		SubjectMap: rml.SubjectMap{
			Type: rml.TermMapConstant, Value: "http://ex/s", TermType: rml.TermIRI,
			Classes: []string{"http://ex/A", "http://ex/B"},
		},
	}
	e := NewEstimator(Options{Rate: 1.0}, template.NewEvaluator(nil), "http://ex/")
	n, err := e.estimateClasses(tm, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestEstimateClassesNonConstantSubjectScalesWithDistinctSubjects(t *testing.T) {
	src := csvsource.NewInMemory("rows.csv", csvOf([]string{"id"}, [][]string{{"1"}, {"2"}, {"1"}}))
	tm := rml.TriplesMap{
		SubjectMap: rml.SubjectMap{
			Type: rml.TermMapTemplate, Value: "http://ex/{id}", TermType: rml.TermIRI,
			Classes: []string{"http://ex/A"},
		},
	}
	e := NewEstimator(Options{Rate: 1.0}, template.NewEvaluator(nil), "http://ex/")
	n, err := e.estimateClasses(tm, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n) // two distinct subjects (1, 2) times one class
}

func TestEstimateJoinUsesRealGenerator(t *testing.T) {
	child := csvsource.NewInMemory("sports.csv", csvOf([]string{"sport"}, [][]string{{"Tennis"}}))
	parent := csvsource.NewInMemory("parent.csv", csvOf([]string{"id", "label"}, [][]string{{"Tennis", "Ball sport"}}))

	refIdx, err := parentindex.BuildReferenceIndex(parent, "id")
	require.NoError(t, err)

	tm := rml.TriplesMap{
		ID:            "tm1",
		LogicalSource: rml.LogicalSource{Source: "sports.csv"},
		SubjectMap:    rml.SubjectMap{Type: rml.TermMapTemplate, Value: "http://ex/{sport}", TermType: rml.TermIRI},
	}
	pom := rml.PredicateObjectMap{
		Predicate: rml.PredicateMap{Type: rml.TermMapConstant, Value: "http://ex/p"},
		Object:    rml.ObjectMap{Type: rml.TermMapTemplate, Value: "{sport}", TermType: rml.TermLiteral},
		Join: &rml.JoinDescriptor{
			ParentSource: "parent.csv", ChildColumn: "sport", ParentColumn: "id",
			ReferenceCondition: true,
		},
	}

	e := NewEstimator(Options{Rate: 1.0}, template.NewEvaluator(nil), "http://ex/")
	est, err := e.estimateJoin(tm, pom, child, JoinContext{Reference: refIdx})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), est)
}
