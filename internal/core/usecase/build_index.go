package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/index"
	"github.com/kirillkom/jobmatch/internal/core/ports"
)

// SearchIndex is one immutable, fully built snapshot of everything a search
// request needs. A new snapshot is built on refresh and swapped in atomically;
// in-flight requests keep scoring against the snapshot they started with.
type SearchIndex struct {
	Corpus  *domain.Corpus
	Lexical *index.Lexical
	Vectors *index.Flat
	Encoder ports.Embedder
	Version string
}

type BuilderConfig struct {
	BM25K1       float64
	BM25B        float64
	FieldWeights index.FieldWeights

	DenseEnabled     bool
	TFIDFMaxFeatures int
	TFIDFMaxNGram    int
	EncodeBatchSize  int
}

func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		BM25K1:           index.DefaultBM25K1,
		BM25B:            index.DefaultBM25B,
		FieldWeights:     index.DefaultFieldWeights(),
		DenseEnabled:     true,
		TFIDFMaxFeatures: index.DefaultTFIDFMaxFeatures,
		TFIDFMaxNGram:    index.DefaultTFIDFMaxNGram,
		EncodeBatchSize:  64,
	}
}

// IndexBuilder loads the corpus and assembles a SearchIndex snapshot. The
// remote encoder is optional; when absent the builder fits a TF-IDF
// vectorizer over the corpus instead. Dense corpus vectors are cached in the
// artifact store keyed by corpus version so a restart does not re-encode an
// unchanged corpus.
type IndexBuilder struct {
	repo      ports.CorpusRepository
	encoder   ports.Embedder
	artifacts ports.ArtifactStore
	cfg       BuilderConfig
	logger    *slog.Logger
}

func NewIndexBuilder(
	repo ports.CorpusRepository,
	encoder ports.Embedder,
	artifacts ports.ArtifactStore,
	cfg BuilderConfig,
	logger *slog.Logger,
) *IndexBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexBuilder{
		repo:      repo,
		encoder:   encoder,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger,
	}
}

func (b *IndexBuilder) Build(ctx context.Context) (*SearchIndex, error) {
	corpus, err := b.repo.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if corpus.Len() == 0 {
		return nil, domain.WrapError(domain.ErrCorpusIntegrity, "build index", fmt.Errorf("corpus is empty"))
	}
	b.logger.Info("corpus loaded",
		slog.String("version", corpus.Version()),
		slog.Int("jobs", corpus.Len()),
		slog.Int("dropped", corpus.DroppedJobs()),
	)

	ix := &SearchIndex{
		Corpus:  corpus,
		Lexical: b.buildLexical(corpus),
		Version: corpus.Version(),
	}

	if b.cfg.DenseEnabled {
		if err := b.buildDense(ctx, ix); err != nil {
			return nil, err
		}
	}

	return ix, nil
}

func (b *IndexBuilder) buildLexical(corpus *domain.Corpus) *index.Lexical {
	n := corpus.Len()
	titleDocs := make([][]string, n)
	skillDocs := make([][]string, n)
	descDocs := make([][]string, n)
	for row := 0; row < n; row++ {
		job := corpus.Job(row)
		titleDocs[row] = index.Tokenize(job.Title)
		skillDocs[row] = index.Tokenize(corpus.SkillsText(row))
		descDocs[row] = index.Tokenize(job.Description)
	}
	return index.NewLexical(titleDocs, skillDocs, descDocs, b.cfg.BM25K1, b.cfg.BM25B, b.cfg.FieldWeights)
}

func (b *IndexBuilder) buildDense(ctx context.Context, ix *SearchIndex) error {
	encoder := b.encoder
	if encoder == nil {
		texts := corpusTexts(ix.Corpus)
		tfidf := index.FitTFIDF(texts, b.cfg.TFIDFMaxFeatures, b.cfg.TFIDFMaxNGram)
		b.logger.Info("fitted tf-idf encoder", slog.Int("dim", tfidf.Dim()))
		encoder = tfidf
	}
	ix.Encoder = encoder

	vectors, err := b.loadOrEncode(ctx, ix.Corpus, encoder)
	if err != nil {
		return err
	}
	if len(vectors) != ix.Corpus.Len() {
		return domain.WrapError(domain.ErrArtifactStale, "build index",
			fmt.Errorf("vector count %d does not match corpus size %d", len(vectors), ix.Corpus.Len()))
	}

	flat := index.NewFlat(len(vectors[0]))
	if err := flat.AddBatch(vectors); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	ix.Vectors = flat
	return nil
}

func (b *IndexBuilder) loadOrEncode(ctx context.Context, corpus *domain.Corpus, encoder ports.Embedder) ([][]float32, error) {
	// A TF-IDF fit is corpus-specific and cheap to recompute, so only vectors
	// from the remote encoder go through the artifact store.
	cacheable := b.encoder != nil && b.artifacts != nil

	if cacheable {
		vectors, err := b.artifacts.LoadVectors(ctx, corpus.Version())
		if err == nil {
			b.logger.Info("loaded cached corpus vectors", slog.String("version", corpus.Version()))
			return vectors, nil
		}
		if !domain.IsKind(err, domain.ErrArtifactStale) {
			return nil, fmt.Errorf("load vector artifacts: %w", err)
		}
	}

	vectors, err := b.encodeCorpus(ctx, corpus, encoder)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := b.artifacts.SaveVectors(ctx, corpus.Version(), vectors); err != nil {
			b.logger.Warn("failed to persist corpus vectors", slog.String("error", err.Error()))
		}
	}
	return vectors, nil
}

func (b *IndexBuilder) encodeCorpus(ctx context.Context, corpus *domain.Corpus, encoder ports.Embedder) ([][]float32, error) {
	texts := corpusTexts(corpus)
	batchSize := b.cfg.EncodeBatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := encoder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("encode corpus batch %d: %w", start/batchSize, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func corpusTexts(corpus *domain.Corpus) []string {
	texts := make([]string, corpus.Len())
	for row := 0; row < corpus.Len(); row++ {
		texts[row] = corpus.SearchableText(row)
	}
	return texts
}
