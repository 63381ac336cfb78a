package invitation

import (
	"context"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

const alignChunk = 100000

// Align intersects, for every pair of c, the best alignment under trgGivenSrc with the
// best alignment under srcGivenTrg. Table weights must be probabilities.
func Align(ctx context.Context, pool dispatch.Submitter, trgGivenSrc, srcGivenTrg *ttable.Table, c corpus.Parallel) ([][]ttable.Link, error) {
	links := make([][]ttable.Link, c.Len())
	var jobs []dispatch.Job
	for _, r := range dispatch.Chunk(c.Len(), alignChunk) {
		r := r
		jobs = append(jobs, func(ctx context.Context) error {
			for i := r.Start; i < r.End; i++ {
				if i%1000 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				a1 := trgGivenSrc.BestAlignment(c.Source[i], c.Target[i])
				a2 := srcGivenTrg.BestAlignment(c.Target[i], c.Source[i])
				links[i] = ttable.Intersect(a1, a2)
			}
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, pool, jobs); err != nil {
		return nil, err
	}
	return links, nil
}
