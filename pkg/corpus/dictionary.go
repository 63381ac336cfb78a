package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// Dictionary assigns codes to words, first seen first served. Code 0 is reserved for the
// NULL word and never handed out to a real word.
//
// A Dictionary is not safe for concurrent writers; use one per language.
type Dictionary struct {
	codes map[string]Token
	words []string
}

// NewDictionary returns a dictionary that only knows the NULL word.
func NewDictionary() *Dictionary {
	return &Dictionary{
		codes: make(map[string]Token),
		words: []string{""},
	}
}

// Code returns the code of word, assigning the next free one when word is new.
func (d *Dictionary) Code(word string) Token {
	if c, ok := d.codes[word]; ok {
		return c
	}
	c := Token(len(d.words))
	d.codes[word] = c
	d.words = append(d.words, word)
	return c
}

// Lookup returns the code of word without assigning one.
func (d *Dictionary) Lookup(word string) (Token, bool) {
	c, ok := d.codes[word]
	return c, ok
}

// Word returns the word coded as c, or "" for Null and unknown codes.
func (d *Dictionary) Word(c Token) string {
	if c <= Null || int(c) >= len(d.words) {
		return ""
	}
	return d.words[c]
}

// Size returns the number of codes in use, NULL included.
func (d *Dictionary) Size() int { return len(d.words) }

type dictionaryFile struct {
	Words []string `json:"words"`
}

// Save writes the dictionary as JSON; the position of a word in "words" is its code.
func (d *Dictionary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(dictionaryFile{Words: d.words}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadDictionary reads a dictionary written by Save. A bare JSON array of words is also
// accepted.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	var wrapped dictionaryFile
	if err := json.NewDecoder(f).Decode(&wrapped); err == nil && len(wrapped.Words) > 0 {
		words = wrapped.Words
	} else {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		if err := json.NewDecoder(f).Decode(&words); err != nil {
			return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
		}
	}
	if len(words) == 0 || words[0] != "" {
		words = append([]string{""}, words...)
	}

	d := &Dictionary{codes: make(map[string]Token, len(words)), words: words}
	for i, w := range words[1:] {
		d.codes[w] = Token(i + 1)
	}
	return d, nil
}
