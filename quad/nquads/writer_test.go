package nquads

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmlstream/rmlstream/quadgen"
)

func TestWriteQuadDefaultGraphOmitsFourthField(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteQuad(quadgen.Quad{
		Subject: "<http://ex/s>", Predicate: "<http://ex/p>", Object: `"v"`,
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "<http://ex/s> <http://ex/p> \"v\" .\n", buf.String())
}

func TestWriteQuadNamedGraphIncludesFourthField(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteQuad(quadgen.Quad{
		Subject: "<http://ex/s>", Predicate: "<http://ex/p>", Object: `"v"`, Graph: "<http://ex/g>",
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "<http://ex/s> <http://ex/p> \"v\" <http://ex/g> .\n", buf.String())
}

func TestWriteQuadMultipleLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteQuad(quadgen.Quad{Subject: "<a>", Predicate: "<b>", Object: "<c>"}))
	require.NoError(t, w.WriteQuad(quadgen.Quad{Subject: "<d>", Predicate: "<e>", Object: "<f>"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "<a> <b> <c> .\n<d> <e> <f> .\n", buf.String())
}
