package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalSubstitutesField(t *testing.T) {
	ev := NewEvaluator(nil)
	out, empty, err := ev.Eval("Student/{ID}", []string{"ID", "Name"}, []string{"7", "Ann"}, TermLiteral)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, "Student/7", out)
}

func TestEvalMultiplicityReplacesAllOccurrences(t *testing.T) {
	ev := NewEvaluator(nil)
	out, empty, err := ev.Eval("{x}-{x}", []string{"x"}, []string{"v"}, TermLiteral)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, "v-v", out)
}

func TestEvalEscapedBraceIsLiteral(t *testing.T) {
	ev := NewEvaluator(nil)
	out, empty, err := ev.Eval(`\{literal} {field}`, []string{"field"}, []string{"val"}, TermLiteral)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, "{literal} val", out)
}

func TestEvalEmptyFieldPropagates(t *testing.T) {
	ev := NewEvaluator(nil)
	_, empty, err := ev.Eval("{field}", []string{"field"}, []string{""}, TermLiteral)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestEvalTokenSkipListPropagatesEmpty(t *testing.T) {
	ev := NewEvaluator([]string{"NULL", "NA"})
	_, empty, err := ev.Eval("{field}", []string{"field"}, []string{"NULL"}, TermLiteral)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestEvalHeaderMissIsFatal(t *testing.T) {
	ev := NewEvaluator(nil)
	_, _, err := ev.Eval("{missing}", []string{"field"}, []string{"v"}, TermLiteral)
	require.Error(t, err)
	var notFound *FieldNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestEvalIRIPercentEncoding is property P3: every substituted byte in an
// IRI-shaped template either belongs to the table or passes through
// unescaped.
func TestEvalIRIPercentEncoding(t *testing.T) {
	ev := NewEvaluator(nil)
	out, empty, err := ev.Eval("http://ex/{Name}", []string{"Name"}, []string{"Ann Smith"}, TermIRI)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, "http://ex/Ann%20Smith", out)
}

func TestEvalIRIPercentEncodingDoesNotTouchLiteralPortion(t *testing.T) {
	ev := NewEvaluator(nil)
	out, _, err := ev.Eval("http://ex/{a}/path with space/{a}", []string{"a"}, []string{"x y"}, TermIRI)
	require.NoError(t, err)
	assert.Equal(t, "http://ex/x%20y/path with space/x%20y", out)
}
