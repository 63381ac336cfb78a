package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string { return uuid.NewString() }

// CreateRun inserts run, assigning an ID when it has none, and returns the ID.
func CreateRun(db DBExecutor, run Run) (string, error) {
	if strings.TrimSpace(run.SrcLang) == "" || strings.TrimSpace(run.TrgLang) == "" {
		return "", fmt.Errorf("run languages must be non-empty")
	}
	if run.ID == "" {
		run.ID = NewRunID()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return "", fmt.Errorf("run id %q: %w", run.ID, err)
	}
	if run.Arithmetic == "" {
		run.Arithmetic = "log"
	}
	_, err := db.Exec(`INSERT INTO runs (id, src_lang, trg_lang, arithmetic, config) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SrcLang, run.TrgLang, run.Arithmetic, nullableString(run.Config))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

// FinishRun records the outcome of a run.
func FinishRun(db DBExecutor, id string, iterations int, converged bool, priorIn float64, ignored, outDomainSize int) error {
	res, err := db.Exec(`UPDATE runs SET finished_at = ?, iterations = ?, converged = ?, prior_in = ?, ignored = ?, outdomain_size = ? WHERE id = ?`,
		time.Now().UTC(), iterations, converged, priorIn, ignored, outDomainSize, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: %w", sql.ErrNoRows)
	}
	return nil
}

// GetRun loads the run with the given ID.
func GetRun(db DBExecutor, id string) (Run, error) {
	var (
		r        Run
		config   sql.NullString
		finished sql.NullTime
		prior    sql.NullFloat64
	)
	err := db.QueryRow(`SELECT id, src_lang, trg_lang, arithmetic, config, started_at, finished_at, iterations, converged, prior_in, ignored, outdomain_size FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.SrcLang, &r.TrgLang, &r.Arithmetic, &config, &r.StartedAt, &finished, &r.Iterations, &r.Converged, &prior, &r.Ignored, &r.OutDomainSize)
	if err != nil {
		return Run{}, err
	}
	if config.Valid {
		r.Config = config.String
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	if prior.Valid {
		r.PriorIn = prior.Float64
	}
	return r, nil
}

// InsertIteration records the prior estimated by one iteration.
func InsertIteration(db DBExecutor, runID string, number int, priorIn float64) error {
	if number < 1 {
		return fmt.Errorf("iteration must be positive, got %d", number)
	}
	_, err := db.Exec(`INSERT INTO iterations (run_id, number, prior_in) VALUES (?, ?, ?)`, runID, number, priorIn)
	return err
}

// InsertResults stores the ranking of one iteration. Rows are numbered in the given
// order starting at 1.
func InsertResults(db DBExecutor, runID string, iteration int, results []Result) error {
	const chunk = 200
	for start := 0; start < len(results); start += chunk {
		end := min(start+chunk, len(results))
		var (
			sb   strings.Builder
			args = make([]interface{}, 0, (end-start)*6)
		)
		sb.WriteString(`INSERT INTO results (run_id, iteration, rank, sentence, score, lm_score) VALUES `)
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			r := results[i]
			args = append(args, runID, iteration, i+1, r.Sentence, r.Score, r.LMScore)
		}
		if _, err := db.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
	}
	return nil
}

// GetResults returns the ranking of one iteration in rank order.
func GetResults(db DBExecutor, runID string, iteration int) ([]Result, error) {
	rows, err := db.Query(`SELECT rank, sentence, score, lm_score FROM results WHERE run_id = ? AND iteration = ? ORDER BY rank`, runID, iteration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Rank, &r.Sentence, &r.Score, &r.LMScore); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertOutDomain stores the burn-in ranking; the first selected entries are marked
// as the out-of-domain corpus.
func InsertOutDomain(db DBExecutor, runID string, entries []OutDomainEntry) error {
	for _, e := range entries {
		if _, err := db.Exec(`INSERT INTO outdomain (run_id, rank, sentence, score, selected) VALUES (?, ?, ?, ?, ?)`,
			runID, e.Rank, e.Sentence, e.Score, e.Selected); err != nil {
			return fmt.Errorf("insert out-of-domain entry %d: %w", e.Sentence, err)
		}
	}
	return nil
}

// CountSelected returns the number of sentences burn-in accepted for a run.
func CountSelected(db DBExecutor, runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM outdomain WHERE run_id = ? AND selected = 1`, runID).Scan(&n)
	return n, err
}

// InsertIgnored records sentences excluded during an iteration (0 for burn-in).
// Sentences already recorded keep their first iteration.
func InsertIgnored(db DBExecutor, runID string, iteration int, sentences []int) error {
	for _, s := range sentences {
		if _, err := db.Exec(`INSERT INTO ignored (run_id, sentence, iteration) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, runID, s, iteration); err != nil {
			return fmt.Errorf("insert ignored sentence %d: %w", s, err)
		}
	}
	return nil
}

// GetIgnored returns the ignored sentences of a run in ascending order.
func GetIgnored(db DBExecutor, runID string) ([]int, error) {
	rows, err := db.Query(`SELECT sentence FROM ignored WHERE run_id = ? ORDER BY sentence`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullableString returns nil for "" else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
