package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amirkamran/InvitationModel/pkg/db"
	"github.com/amirkamran/InvitationModel/pkg/invitation"
)

// DBSink records a run in the sqlite store. Writes are committed in the background;
// Done waits for them.
type DBSink struct {
	runID string
	w     *db.BatchWriter
}

// NewDBSink inserts run and returns a sink for it. The run ID is taken from run or
// generated.
func NewDBSink(conn *sql.DB, run db.Run) (*DBSink, error) {
	id, err := db.CreateRun(conn, run)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return &DBSink{runID: id, w: db.NewBatchWriter(conn, 4, time.Second)}, nil
}

// RunID returns the ID of the recorded run.
func (s *DBSink) RunID() string { return s.runID }

// OutDomain stores the burn-in ranking and the sentences ignored during burn-in.
func (s *DBSink) OutDomain(_ context.Context, od invitation.OutDomain) error {
	entries := make([]db.OutDomainEntry, len(od.Ranking))
	for i, r := range od.Ranking {
		entries[i] = db.OutDomainEntry{Rank: i + 1, Sentence: r.Sentence + 1, Score: r.Score, Selected: i < len(od.Indices)}
	}
	ignored := oneBased(od.Ignored)
	if err := s.w.Submit(func(ctx context.Context, tx *sql.Tx) error {
		if err := db.InsertOutDomain(tx, s.runID, entries); err != nil {
			return err
		}
		return db.InsertIgnored(tx, s.runID, 0, ignored)
	}); err != nil {
		return err
	}
	return s.w.Err()
}

// Iteration stores the prior and ranking of one iteration.
func (s *DBSink) Iteration(_ context.Context, it invitation.Iteration) error {
	rows := make([]db.Result, len(it.Results))
	for i, r := range it.Results {
		rows[i] = db.Result{Sentence: r.Sentence + 1, Score: r.Score, LMScore: r.LMScore}
	}
	ignored := oneBased(it.Ignored)
	if err := s.w.Submit(func(ctx context.Context, tx *sql.Tx) error {
		if err := db.InsertIteration(tx, s.runID, it.Number, it.PriorIn); err != nil {
			return err
		}
		if err := db.InsertResults(tx, s.runID, it.Number, rows); err != nil {
			return err
		}
		return db.InsertIgnored(tx, s.runID, it.Number, ignored)
	}); err != nil {
		return err
	}
	return s.w.Err()
}

// Done records the summary and flushes every pending write.
func (s *DBSink) Done(_ context.Context, sum invitation.Summary) error {
	if err := s.w.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return db.FinishRun(tx, s.runID, sum.Iterations, sum.Converged, sum.PriorIn, sum.Ignored, sum.OutDomainSize)
	}); err != nil {
		return err
	}
	return s.Close()
}

// Close flushes pending writes. It is safe to call after Done.
func (s *DBSink) Close() error {
	if err := s.w.Close(); err != nil && err != db.ErrBatchWriterClosed {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func oneBased(sentences []int) []int {
	out := make([]int, len(sentences))
	for i, s := range sentences {
		out[i] = s + 1
	}
	return out
}
