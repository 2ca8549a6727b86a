package parentindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmlstream/rmlstream/csvsource"
)

func TestBuildReferenceIndexLastWriteWins(t *testing.T) {
	src := csvsource.NewInMemory("sports.csv", "id,label\nTennis,Ball sport\nTennis,Racquet sport\n")
	idx, err := BuildReferenceIndex(src, "id")
	require.NoError(t, err)

	off, ok := idx.Lookup("Tennis")
	require.True(t, ok)

	cur, err := src.Open()
	require.NoError(t, err)
	defer cur.Close()
	require.NoError(t, cur.Seek(off))
	row, err := cur.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tennis", "Racquet sport"}, row)
}

func TestBuildReferenceIndexMissingColumnErrors(t *testing.T) {
	src := csvsource.NewInMemory("sports.csv", "id,label\nTennis,Ball sport\n")
	_, err := BuildReferenceIndex(src, "missing")
	assert.Error(t, err)
}

func TestBuildFullIndexCollectsAllMatchesProjected(t *testing.T) {
	src := csvsource.NewInMemory("courses.csv", "teacher,course,room\nT1,Math,101\nT1,Physics,102\nT2,Art,103\n")
	idx, err := BuildFullIndex(src, "teacher", "{course}")
	require.NoError(t, err)
	assert.Equal(t, []string{"course"}, idx.Columns)

	rows, ok := idx.Lookup("T1")
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Math"}, rows[0])
	assert.Equal(t, []string{"Physics"}, rows[1])

	_, ok = idx.Lookup("T3")
	assert.False(t, ok)
}

func TestBuildFullIndexMultiFieldTemplate(t *testing.T) {
	src := csvsource.NewInMemory("courses.csv", "teacher,course,room\nT1,Math,101\n")
	idx, err := BuildFullIndex(src, "teacher", "{course}-{room}")
	require.NoError(t, err)
	assert.Equal(t, []string{"course", "room"}, idx.Columns)

	rows, ok := idx.Lookup("T1")
	require.True(t, ok)
	assert.Equal(t, []string{"Math", "101"}, rows[0])
}
