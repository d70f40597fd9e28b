package content

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
)

// IndexConfig tunes the streaming indexing pipeline.
//
// TargetTokens:  approximate tokens per chunk.
// OverlapTokens: token overlap between consecutive chunks for context bleed.
// BatchSize:     how many chunks to embed/write in one batch.
type IndexConfig struct {
	TargetTokens  int
	OverlapTokens int
	BatchSize     int
}

// chunk is the internal representation passed through the pipeline.
type chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// TextExtractor turns raw uploaded bytes into a stream of text fragments.
type TextExtractor interface {
	ExtractText(ctx context.Context, g *errgroup.Group, r []byte, contentType string) (<-chan string, error)
}

// Indexer consumes uploaded content assets and makes their text searchable
// for wizard prompt context.
type Indexer interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(assetID string)
}

// ContentIndexer orchestrates the background pipeline:
// extract -> chunk -> embed -> persist, one asset at a time per worker.
type ContentIndexer struct {
	db        core.DbClient
	obj       core.ObjectClient
	embedder  core.EmbeddingProvider
	extractor TextExtractor
	cfg       *IndexConfig
	log       *logger.Logger
	jobs      chan string
}
