package service

import (
	"context"
	"fmt"
	"iter"

	"matka/models"
)

// historyPageSize is how many archived results are fetched per query while
// iterating history.
const historyPageSize = 100

type archiveService struct {
	uowFactory UnitOfWorkFactory
}

// NewArchiveService creates a new results archive service
func NewArchiveService(uowFactory UnitOfWorkFactory) ArchiveService {
	return &archiveService{uowFactory: uowFactory}
}

// History yields archived results ordered by declaration time descending,
// newest first. The sequence is lazy: pages are fetched as the consumer
// advances, and ranging over the sequence again restarts from the top.
func (s *archiveService) History(ctx context.Context, filter models.ResultFilter) iter.Seq2[*models.Result, error] {
	return func(yield func(*models.Result, error) bool) {
		offset := 0
		for {
			page, err := s.fetchPage(ctx, filter, offset)
			if err != nil {
				yield(nil, fmt.Errorf("failed to fetch results page: %w", err))
				return
			}

			for _, result := range page {
				if !yield(result, nil) {
					return
				}
			}

			if len(page) < historyPageSize {
				return
			}
			offset += historyPageSize
		}
	}
}

func (s *archiveService) fetchPage(ctx context.Context, filter models.ResultFilter, offset int) ([]*models.Result, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ResultRepository().List(ctx, filter, historyPageSize, offset)
}
