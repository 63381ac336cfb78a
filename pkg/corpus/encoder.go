package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	log "github.com/golang/glog"
)

const maxLineSize = 16 * 1024 * 1024

// Encoder turns lines of text into sentences using a per-language dictionary.
type Encoder struct {
	Dict      *Dictionary
	Segmenter Segmenter
}

// NewEncoder returns an encoder; a nil segmenter splits on white space.
func NewEncoder(dict *Dictionary, seg Segmenter) *Encoder {
	if seg == nil {
		seg = WhitespaceSegmenter{}
	}
	return &Encoder{Dict: dict, Segmenter: seg}
}

// Encode codes one line. The result always starts with Null.
func (e *Encoder) Encode(line string) Sentence {
	words := e.Segmenter.Segment(line)
	s := make(Sentence, len(words)+1)
	s[0] = Null
	for i, w := range words {
		s[i+1] = e.Dict.Code(w)
	}
	return s
}

// EncodeReader codes every line of r.
func (e *Encoder) EncodeReader(r io.Reader) (Corpus, error) {
	var c Corpus
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		c = append(c, e.Encode(scanner.Text()))
		if len(c)%100000 == 0 {
			log.V(1).Infof("encoded %d sentences", len(c))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeFile codes every line of the file at path.
func (e *Encoder) EncodeFile(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := e.EncodeReader(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return c, nil
}

// FileName returns the conventional "<prefix>.<lang>" name of one side of a corpus.
func FileName(prefix, lang string) string { return prefix + "." + lang }

// EncodedName returns the name the coded form of "<prefix>.<lang>" is stored under.
func EncodedName(prefix, lang string) string { return FileName(prefix, lang) + ".encoded" }

// ReadParallel encodes "<prefix>.<srcLang>" and "<prefix>.<trgLang>" concurrently, each
// side with its own encoder, and checks that both sides have the same length.
func ReadParallel(prefix, srcLang, trgLang string, srcEnc, trgEnc *Encoder) (Parallel, error) {
	var (
		wg             sync.WaitGroup
		src, trg       Corpus
		srcErr, trgErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		src, srcErr = srcEnc.EncodeFile(FileName(prefix, srcLang))
	}()
	go func() {
		defer wg.Done()
		trg, trgErr = trgEnc.EncodeFile(FileName(prefix, trgLang))
	}()
	wg.Wait()

	if srcErr != nil {
		return Parallel{}, srcErr
	}
	if trgErr != nil {
		return Parallel{}, trgErr
	}
	p, err := NewParallel(src, trg)
	if err != nil {
		return Parallel{}, fmt.Errorf("%s: %w", prefix, err)
	}
	log.Infof("%s: %d sentence pairs", prefix, p.Len())
	return p, nil
}

// WriteEncoded writes one line of space separated codes per sentence, NULL omitted.
func WriteEncoded(w io.Writer, c Corpus) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for _, s := range c {
		for i, tok := range s.Words() {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(tok), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		buf = buf[:0]
	}
	return bw.Flush()
}

// WriteEncodedFile writes c to path in the format of WriteEncoded.
func WriteEncodedFile(path string, c Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteEncoded(f, c); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadEncoded parses the output of WriteEncoded, restoring the NULL position.
func ReadEncoded(r io.Reader) (Corpus, error) {
	var c Corpus
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		s := make(Sentence, len(fields)+1)
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", len(c)+1, err)
			}
			if v <= 0 {
				return nil, fmt.Errorf("line %d: invalid code %d", len(c)+1, v)
			}
			s[i+1] = Token(v)
		}
		c = append(c, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
