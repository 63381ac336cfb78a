package corpus

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Segmenter splits one line of text into words.
type Segmenter interface {
	Segment(line string) []string
}

// Segmenter names accepted by NewSegmenter.
const (
	WhitespaceName = "whitespace"
	KagomeName     = "kagome"
)

// NewSegmenter returns the segmenter registered under name.
func NewSegmenter(name string) (Segmenter, error) {
	switch name {
	case WhitespaceName, "":
		return WhitespaceSegmenter{}, nil
	case KagomeName:
		return NewKagomeSegmenter()
	default:
		return nil, fmt.Errorf("corpus: unknown segmenter %q", name)
	}
}

// WhitespaceSegmenter splits pre-tokenized text on runs of white space.
type WhitespaceSegmenter struct{}

func (WhitespaceSegmenter) Segment(line string) []string { return strings.Fields(line) }

// KagomeSegmenter splits Japanese text into surface forms with the IPA dictionary, for
// corpora that were not tokenized upstream.
type KagomeSegmenter struct {
	t *tokenizer.Tokenizer
}

// NewKagomeSegmenter loads the IPA dictionary.
func NewKagomeSegmenter() (*KagomeSegmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KagomeSegmenter{t: t}, nil
}

func (k *KagomeSegmenter) Segment(line string) []string {
	tokens := k.t.Tokenize(line)
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		words = append(words, token.Surface)
	}
	return words
}
