package corpus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryAssignsCodesInOrder(t *testing.T) {
	d := NewDictionary()
	assert.Equal(t, 1, d.Size())
	assert.Equal(t, Token(1), d.Code("house"))
	assert.Equal(t, Token(2), d.Code("cat"))
	assert.Equal(t, Token(1), d.Code("house"))
	assert.Equal(t, 3, d.Size())
	assert.Equal(t, "cat", d.Word(2))
	assert.Equal(t, "", d.Word(Null))

	_, ok := d.Lookup("dog")
	assert.False(t, ok)
	assert.Equal(t, 3, d.Size())
}

func TestDictionarySaveLoad(t *testing.T) {
	d := NewDictionary()
	for _, w := range []string{"de", "kat", "zit"} {
		d.Code(w)
	}
	path := filepath.Join(t.TempDir(), "nl.dict.json")
	require.NoError(t, d.Save(path))

	loaded, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, d.Size(), loaded.Size())
	c, ok := loaded.Lookup("zit")
	require.True(t, ok)
	assert.Equal(t, Token(3), c)
	assert.Equal(t, Token(4), loaded.Code("mat"))
}

func TestLoadDictionaryBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a", "b"]`), 0644))

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	c, ok := d.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, Token(2), c)
}

func TestEncoderPrependsNull(t *testing.T) {
	enc := NewEncoder(NewDictionary(), nil)
	c, err := enc.EncodeReader(strings.NewReader("the cat\n\nthe  dog sat\n"))
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.Equal(t, Sentence{Null, 1, 2}, c[0])
	assert.Equal(t, Sentence{Null}, c[1])
	assert.Equal(t, Sentence{Null, 1, 3, 4}, c[2])
	assert.Equal(t, 3+1+4, c.TokenCount())
}

func TestReadParallel(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "cin")
	require.NoError(t, os.WriteFile(prefix+".en", []byte("a b\nc\n"), 0644))
	require.NoError(t, os.WriteFile(prefix+".nl", []byte("x\ny z\n"), 0644))

	p, err := ReadParallel(prefix, "en", "nl",
		NewEncoder(NewDictionary(), nil), NewEncoder(NewDictionary(), nil))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, Sentence{Null, 1}, p.Target[0])

	r := p.Reverse()
	assert.Equal(t, p.Target, r.Source)

	sub := p.Subset([]int{1})
	assert.Equal(t, 1, sub.Len())
	assert.Equal(t, Sentence{Null, 3}, sub.Source[0])
}

func TestReadParallelLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "cmix")
	require.NoError(t, os.WriteFile(prefix+".en", []byte("a\nb\n"), 0644))
	require.NoError(t, os.WriteFile(prefix+".nl", []byte("x\n"), 0644))

	_, err := ReadParallel(prefix, "en", "nl",
		NewEncoder(NewDictionary(), nil), NewEncoder(NewDictionary(), nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestReadParallelMissingFile(t *testing.T) {
	_, err := ReadParallel(filepath.Join(t.TempDir(), "nope"), "en", "nl",
		NewEncoder(NewDictionary(), nil), NewEncoder(NewDictionary(), nil))
	assert.Error(t, err)
}

func TestEncodedRoundTrip(t *testing.T) {
	c := Corpus{{Null, 4, 2}, {Null}, {Null, 7}}
	var buf bytes.Buffer
	require.NoError(t, WriteEncoded(&buf, c))
	assert.Equal(t, "4 2\n\n7\n", buf.String())

	back, err := ReadEncoded(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	_, err = ReadEncoded(strings.NewReader("3 0\n"))
	assert.Error(t, err)
}

func TestNewSegmenter(t *testing.T) {
	s, err := NewSegmenter("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Segment(" a\tb "))

	_, err = NewSegmenter("moses")
	assert.Error(t, err)
}

func TestKagomeSegmenter(t *testing.T) {
	s, err := NewKagomeSegmenter()
	require.NoError(t, err)

	words := s.Segment("私は猫です")
	assert.Greater(t, len(words), 1)
	assert.Equal(t, "私は猫です", strings.Join(words, ""))
}
