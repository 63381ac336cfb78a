// Package ttable implements the sparse bilingual co-occurrence table used as an
// IBM-Model-1 style translation model: target word -> source word -> weight.
package ttable

import (
	"strconv"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

// NoAlignment marks a target position that is not aligned to any source position.
const NoAlignment = -1

// Table maps (target, source) token pairs to a weight. Absent pairs are never zero by
// convention; callers supply their own floor through GetOr.
//
// A Table is safe for concurrent readers. Writers need exclusive access.
type Table struct {
	rows map[corpus.Token]map[corpus.Token]float64
	size int
}

// New returns an empty table.
func New() *Table {
	return &Table{rows: make(map[corpus.Token]map[corpus.Token]float64)}
}

// Get returns the weight stored for (tw, sw) and whether it exists.
func (t *Table) Get(tw, sw corpus.Token) (float64, bool) {
	row, ok := t.rows[tw]
	if !ok {
		return 0, false
	}
	w, ok := row[sw]
	return w, ok
}

// GetOr returns the weight stored for (tw, sw), or def when the pair was never written.
func (t *Table) GetOr(tw, sw corpus.Token, def float64) float64 {
	if w, ok := t.Get(tw, sw); ok {
		return w
	}
	return def
}

func (t *Table) row(tw corpus.Token) map[corpus.Token]float64 {
	row, ok := t.rows[tw]
	if !ok {
		row = make(map[corpus.Token]float64)
		t.rows[tw] = row
	}
	return row
}

// Put overwrites the weight of (tw, sw).
func (t *Table) Put(tw, sw corpus.Token, w float64) {
	row := t.row(tw)
	if _, ok := row[sw]; !ok {
		t.size++
	}
	row[sw] = w
}

// Add adds delta to the weight of (tw, sw), initialising it at delta when absent.
func (t *Table) Add(tw, sw corpus.Token, delta float64) {
	row := t.row(tw)
	if _, ok := row[sw]; !ok {
		t.size++
	}
	row[sw] += delta
}

// Remove deletes (tw, sw) if present.
func (t *Table) Remove(tw, sw corpus.Token) {
	row, ok := t.rows[tw]
	if !ok {
		return
	}
	if _, ok := row[sw]; !ok {
		return
	}
	delete(row, sw)
	t.size--
	if len(row) == 0 {
		delete(t.rows, tw)
	}
}

// Len returns the number of stored pairs.
func (t *Table) Len() int { return t.size }

// Rows returns the number of distinct target words.
func (t *Table) Rows() int { return len(t.rows) }

// Range calls fn for every stored pair until fn returns false. Iteration order is
// unspecified.
func (t *Table) Range(fn func(tw, sw corpus.Token, w float64) bool) {
	for tw, row := range t.rows {
		for sw, w := range row {
			if !fn(tw, sw, w) {
				return
			}
		}
	}
}

// Normalize rescales every target row so its weights sum to one. Only meaningful for
// linear weights.
func (t *Table) Normalize() {
	for _, row := range t.rows {
		var sum float64
		for _, w := range row {
			sum += w
		}
		if sum == 0 {
			continue
		}
		for sw, w := range row {
			row[sw] = w / sum
		}
	}
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return t.Map(func(w float64) float64 { return w })
}

// Map returns a new table with fn applied to every weight.
func (t *Table) Map(fn func(float64) float64) *Table {
	return t.MapPairs(func(_, _ corpus.Token, w float64) float64 { return fn(w) })
}

// MapPairs returns a new table holding fn(tw, sw, w) for every stored pair.
func (t *Table) MapPairs(fn func(tw, sw corpus.Token, w float64) float64) *Table {
	c := &Table{rows: make(map[corpus.Token]map[corpus.Token]float64, len(t.rows)), size: t.size}
	for tw, row := range t.rows {
		r := make(map[corpus.Token]float64, len(row))
		for sw, w := range row {
			r[sw] = fn(tw, sw, w)
		}
		c.rows[tw] = r
	}
	return c
}

// BestAlignment returns, for every target position, the index of the source position
// whose token has the largest weight against the target token. Position 0 (NULL) of the
// result is always NoAlignment, as is any position where no weight exceeds zero. Ties
// go to the later source position. Weights must be linear.
func (t *Table) BestAlignment(src, trg corpus.Sentence) []int {
	alignments := make([]int, len(trg))
	if len(alignments) > 0 {
		alignments[0] = NoAlignment
	}
	for j := 1; j < len(trg); j++ {
		tw := trg[j]
		best, ind := 0.0, NoAlignment
		for i, sw := range src {
			p := t.GetOr(tw, sw, 0)
			if p > 0 && p >= best {
				best, ind = p, i
			}
		}
		alignments[j] = ind
	}
	return alignments
}

// Link is one aligned (source position, target position) pair.
type Link struct {
	Source int
	Target int
}

// String formats l as "s-t" with 0-based word indices, NULL not counted.
func (l Link) String() string { return strconv.Itoa(l.Source-1) + "-" + strconv.Itoa(l.Target-1) }

// Intersect keeps the links on which both directional alignments agree. trgToSrc is
// indexed by target position (as returned by a target-given-source table), srcToTrg by
// source position. Links to the NULL position are dropped.
func Intersect(trgToSrc, srcToTrg []int) []Link {
	var links []Link
	for j := 1; j < len(trgToSrc); j++ {
		i := trgToSrc[j]
		if i < 1 || i >= len(srcToTrg) {
			continue
		}
		if srcToTrg[i] == j {
			links = append(links, Link{Source: i, Target: j})
		}
	}
	return links
}
