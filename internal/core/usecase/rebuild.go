package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/ports"
)

// RebuildUseCase rebuilds the index snapshot, swaps it into the searcher and
// announces the new corpus version on the queue so other instances refresh.
type RebuildUseCase struct {
	builder *IndexBuilder
	search  *SearchUseCase
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewRebuildUseCase(builder *IndexBuilder, search *SearchUseCase, queue ports.MessageQueue, logger *slog.Logger) *RebuildUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildUseCase{builder: builder, search: search, queue: queue, logger: logger}
}

func (uc *RebuildUseCase) Rebuild(ctx context.Context) (string, error) {
	started := time.Now()
	ix, err := uc.builder.Build(ctx)
	if err != nil {
		return "", fmt.Errorf("rebuild index: %w", err)
	}
	uc.search.Swap(ix)
	uc.logger.Info("index rebuilt",
		slog.String("version", ix.Version),
		slog.Duration("took", time.Since(started)),
	)

	if uc.queue != nil {
		if err := uc.queue.PublishCorpusRebuilt(ctx, ix.Version); err != nil {
			uc.logger.Warn("failed to publish rebuild event", slog.String("error", err.Error()))
		}
	}
	return ix.Version, nil
}
