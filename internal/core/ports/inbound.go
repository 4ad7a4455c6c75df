package ports

import (
	"context"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

// JobSearcher is the inbound contract for query-driven job retrieval.
type JobSearcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
	SimilarJobs(ctx context.Context, jobID int64, topK int) (*domain.SearchResult, error)
}

// JobReader is the inbound read model for single postings.
type JobReader interface {
	JobByID(ctx context.Context, jobID int64) (*domain.RankedJob, error)
}

// IndexRebuilder is the inbound contract for asynchronous index refresh.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (version string, err error)
}
