package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// ClearAll wipes both stores. Each deletion is attempted regardless of the
// other's outcome; the combined result reports both sub-operations. A failure
// in either store yields a classified error naming which store(s) failed.
func (s *Service) ClearAll(ctx context.Context) (*model.ClearResult, error) {
	var wg sync.WaitGroup
	var graphErr, vectorErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		graphErr = s.graph.ClearAll(ctx)
	}()
	go func() {
		defer wg.Done()
		vectorErr = s.vector.ClearAll(ctx)
	}()
	wg.Wait()

	result := &model.ClearResult{
		Graph:  outcome(errors.StoreGraph, graphErr),
		Vector: outcome(errors.StoreVector, vectorErr),
	}

	if graphErr != nil || vectorErr != nil {
		var failed []string
		firstErr := graphErr
		if graphErr != nil {
			failed = append(failed, errors.StoreGraph)
		}
		if vectorErr != nil {
			failed = append(failed, errors.StoreVector)
			if firstErr == nil {
				firstErr = vectorErr
			}
		}
		s.logger.Error("Store clear failed",
			zap.Strings("failed_stores", failed),
			zap.Error(firstErr),
		)
		return result, errors.NewStoreClearFailed(failed, firstErr)
	}

	s.logger.Info("Both stores cleared")
	return result, nil
}

// UpdateDocumentMetadata updates the owning document's mutable fields.
// Returns false, not an error, when the document does not exist.
func (s *Service) UpdateDocumentMetadata(ctx context.Context, documentID string, update model.DocumentMetadataUpdate) (bool, error) {
	if documentID == "" {
		return false, errors.NewValidationFailed("document_id", "cannot be empty")
	}

	found, err := s.graph.UpdateDocumentMetadata(ctx, documentID, update)
	if err != nil {
		s.logger.Error("Document metadata update failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return false, err
	}
	if !found {
		s.logger.Debug("Document not found for metadata update",
			zap.String("document_id", documentID),
		)
	}
	return found, nil
}

func outcome(store string, err error) model.StoreOutcome {
	o := model.StoreOutcome{Store: store, Success: err == nil}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
