package ttable

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

func TestGetReturnsDefaultOnlyForUnwrittenPairs(t *testing.T) {
	tab := New()
	_, ok := tab.Get(1, 2)
	assert.False(t, ok)
	assert.Equal(t, 0.25, tab.GetOr(1, 2, 0.25))

	tab.Put(1, 2, 0.5)
	w, ok := tab.Get(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 0.5, w)
	assert.Equal(t, 0.5, tab.GetOr(1, 2, 0.25))

	tab.Add(1, 2, 0.25)
	assert.Equal(t, 0.75, tab.GetOr(1, 2, 0))

	tab.Put(1, 2, 0.1)
	assert.Equal(t, 0.1, tab.GetOr(1, 2, 0))
	assert.Equal(t, 0.25, tab.GetOr(2, 1, 0.25))
	assert.Equal(t, 1, tab.Len())
}

func TestAddIsOrderIndependent(t *testing.T) {
	a, b := New(), New()
	a.Add(3, 4, 0.5)
	a.Add(3, 4, 1.25)
	b.Add(3, 4, 1.25)
	b.Add(3, 4, 0.5)
	assert.Equal(t, a.GetOr(3, 4, -1), b.GetOr(3, 4, -1))
	assert.Equal(t, 1.75, a.GetOr(3, 4, -1))
}

func TestRemove(t *testing.T) {
	tab := New()
	tab.Put(1, 1, 1)
	tab.Put(1, 2, 1)
	tab.Remove(1, 1)
	tab.Remove(9, 9)
	assert.Equal(t, 1, tab.Len())
	tab.Remove(1, 2)
	assert.Equal(t, 0, tab.Len())
	assert.Equal(t, 0, tab.Rows())
}

func TestNormalize(t *testing.T) {
	tab := New()
	tab.Put(1, 0, 1)
	tab.Put(1, 2, 3)
	tab.Put(5, 2, 2)
	tab.Normalize()
	assert.InDelta(t, 0.25, tab.GetOr(1, 0, 0), 1e-12)
	assert.InDelta(t, 0.75, tab.GetOr(1, 2, 0), 1e-12)
	assert.InDelta(t, 1.0, tab.GetOr(5, 2, 0), 1e-12)
}

func TestCloneAndMap(t *testing.T) {
	tab := New()
	tab.Put(1, 2, math.Log(0.5))
	c := tab.Clone()
	c.Put(1, 2, 0)
	assert.Equal(t, math.Log(0.5), tab.GetOr(1, 2, 0))

	lin := tab.Map(math.Exp)
	assert.InDelta(t, 0.5, lin.GetOr(1, 2, 0), 1e-12)
	assert.Equal(t, 1, lin.Len())
}

func TestBestAlignment(t *testing.T) {
	tab := New()
	tab.Put(5, 2, 0.9)
	tab.Put(5, 1, 0)
	tab.Put(5, 7, 0)

	src := corpus.Sentence{corpus.Null, 1, 7, 2}
	trg := corpus.Sentence{corpus.Null, 5, 6}
	got := tab.BestAlignment(src, trg)
	assert.Equal(t, []int{NoAlignment, 3, NoAlignment}, got)
}

func TestBestAlignmentTieGoesToLaterPosition(t *testing.T) {
	tab := New()
	tab.Put(5, 1, 0.4)
	tab.Put(5, 2, 0.4)
	got := tab.BestAlignment(corpus.Sentence{corpus.Null, 1, 2}, corpus.Sentence{corpus.Null, 5})
	assert.Equal(t, 2, got[1])
}

func TestIntersect(t *testing.T) {
	// target 1 <-> source 2 agree, target 2 -> source 1 is not confirmed.
	trgToSrc := []int{NoAlignment, 2, 1, 0}
	srcToTrg := []int{NoAlignment, 3, 1}
	assert.Equal(t, []Link{{Source: 2, Target: 1}}, Intersect(trgToSrc, srcToTrg))
	assert.Empty(t, Intersect(nil, srcToTrg))
}

func TestWriteAlignments(t *testing.T) {
	var buf bytes.Buffer
	links := [][]Link{
		{{Source: 1, Target: 1}, {Source: 3, Target: 2}},
		nil,
		{{Source: 2, Target: 1}},
	}
	require.NoError(t, WriteAlignments(&buf, links))
	assert.Equal(t, "0-0 2-1\n\n1-0\n", buf.String())
}

func TestSaveLoad(t *testing.T) {
	tab := New()
	tab.Put(2, 0, -1.5)
	tab.Put(1, 3, 0.125)
	tab.Put(1, 0, math.Inf(-1))

	var buf bytes.Buffer
	require.NoError(t, tab.Save(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "3\n1,0,-Inf\n1,3,0.125\n2,0,-1.5\n"))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
	assert.Equal(t, 0.125, loaded.GetOr(1, 3, 0))
	assert.True(t, math.IsInf(loaded.GetOr(1, 0, 0), -1))
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	_, err := Load(strings.NewReader("1,2,0.5\n"))
	assert.Error(t, err)
}
