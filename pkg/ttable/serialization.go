package ttable

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

// Save writes t as a header line with the number of pairs followed by one
// "target,source,weight" line per pair, sorted by target then source.
func (t *Table) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", t.size); err != nil {
		return err
	}

	targets := make([]corpus.Token, 0, len(t.rows))
	for tw := range t.rows {
		targets = append(targets, tw)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	var sources []corpus.Token
	for _, tw := range targets {
		row := t.rows[tw]
		sources = sources[:0]
		for sw := range row {
			sources = append(sources, sw)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
		for _, sw := range sources {
			if _, err := fmt.Fprintf(bw, "%d,%d,%s\n", tw, sw,
				strconv.FormatFloat(row[sw], 'g', -1, 64)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load reads a table written by Save.
func Load(r io.Reader) (*Table, error) {
	t := New()
	scanner := bufio.NewScanner(r)
	lineIdx := 0
	expected := -1
	for scanner.Scan() {
		txt := scanner.Text()
		lineIdx++
		if lineIdx == 1 {
			n, err := strconv.Atoi(strings.TrimSpace(txt))
			if err != nil {
				return nil, fmt.Errorf("ttable: table corrupted, size not found: %q", txt)
			}
			expected = n
			continue
		}

		fields := strings.Split(txt, ",")
		if len(fields) != 3 {
			log.Warningf("ttable: skipping malformed line %d: %q", lineIdx, txt)
			continue
		}
		tw, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("ttable: line %d: %w", lineIdx, err)
		}
		sw, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("ttable: line %d: %w", lineIdx, err)
		}
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("ttable: line %d: %w", lineIdx, err)
		}
		t.Put(corpus.Token(tw), corpus.Token(sw), w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if expected >= 0 && expected != t.size {
		log.Warningf("ttable: header announced %d pairs, read %d", expected, t.size)
	}
	return t, nil
}

// WriteAlignments writes one line per sentence with its links separated by spaces.
func WriteAlignments(w io.Writer, links [][]Link) error {
	bw := bufio.NewWriter(w)
	for _, sent := range links {
		for i, l := range sent {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(l.String())
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
