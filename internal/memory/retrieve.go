package memory

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// sourceResult is the structured per-source outcome: either a statement list
// or a failure reason. Keeping both lets the merge step tell "empty" apart
// from "errored".
type sourceResult struct {
	statements []model.PreferenceStatement
	err        error
}

func (r sourceResult) failed() bool {
	return r.err != nil
}

// QueryPreference queries the graph and vector stores concurrently and
// reconciles their partial results into one ranked list.
//
// A single failing source degrades to zero results from that source; only
// when both sources fail does the call return an error. Cancelling ctx
// cancels both in-flight sub-queries.
func (s *Service) QueryPreference(ctx context.Context, q model.PreferenceQuery) (*model.PreferenceResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	// One embedding for the topic. If the provider is down the vector source
	// is counted as failed and the graph traversal still runs.
	embedding, embErr := s.embedder.Embed(ctx, q.Topic)

	var graphRes, vectorRes sourceResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statements, err := s.graph.QueryStatements(gctx, q)
		graphRes = sourceResult{statements: statements, err: err}
		return nil
	})
	g.Go(func() error {
		if embErr != nil {
			vectorRes = sourceResult{err: embErr}
			return nil
		}
		statements, err := s.vector.Search(gctx, q, embedding)
		vectorRes = sourceResult{statements: statements, err: err}
		return nil
	})
	// Sub-queries never abort each other; both goroutines always return nil
	_ = g.Wait()

	if graphRes.failed() {
		s.logger.Warn("Graph source failed, degrading to vector only",
			zap.String("user_id", q.UserID),
			zap.Error(graphRes.err),
		)
	}
	if vectorRes.failed() {
		s.logger.Warn("Vector source failed, degrading to graph only",
			zap.String("user_id", q.UserID),
			zap.Error(vectorRes.err),
		)
	}
	if graphRes.failed() && vectorRes.failed() {
		return nil, errors.NewTwoSourceFailure(graphRes.err, vectorRes.err)
	}

	// Dedup before sort, sort before truncation
	merged := mergeStatements(graphRes.statements, vectorRes.statements)
	sortByScore(merged)
	if len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}

	return &model.PreferenceResult{
		Statements:         merged,
		HasPreferences:     len(merged) > 0,
		GraphResultsCount:  len(graphRes.statements),
		VectorResultsCount: len(vectorRes.statements),
	}, nil
}
