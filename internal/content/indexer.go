package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
)

// NewContentIndexer constructs the indexer with a bounded job queue (64).
func NewContentIndexer(db core.DbClient, obj core.ObjectClient, emb core.EmbeddingProvider, extractor TextExtractor, cfg *IndexConfig, log *logger.Logger) *ContentIndexer {
	return &ContentIndexer{
		db: db, obj: obj, embedder: emb, extractor: extractor, cfg: cfg,
		log:  log.With("component", "content-indexer"),
		jobs: make(chan string, 64),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel.
func (i *ContentIndexer) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.log.Info("indexer worker shutting down", "worker", w)
					return
				case assetID := <-i.jobs:
					if err := i.processOne(ctx, assetID); err != nil {
						i.log.Error("asset indexing failed", "assetID", assetID, "worker", w, "error", err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a content asset for indexing. Blocks when the queue is
// full.
func (i *ContentIndexer) Enqueue(assetID string) {
	i.jobs <- assetID
}

// processOne extracts, chunks, embeds and persists one asset.
func (i *ContentIndexer) processOne(ctx context.Context, assetID string) error {
	proctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	asset, err := i.db.GetContentAssetByID(ctx, assetID)
	if err != nil || asset == nil {
		return fmt.Errorf("content asset not found: %w", err)
	}

	_ = i.db.UpdateContentAssetStatus(ctx, assetID, "processing")

	bucket, key := parseS3URL(asset.StorageURL)
	raw, err := i.obj.GetFile(proctx, bucket, key)
	if err != nil {
		_ = i.db.UpdateContentAssetStatus(ctx, assetID, "failed")
		return fmt.Errorf("get object: %w", err)
	}

	g, gctx := errgroup.WithContext(proctx)

	fragCh, err := i.extractor.ExtractText(gctx, g, raw, asset.ContentType)
	if err != nil {
		_ = i.db.UpdateContentAssetStatus(ctx, assetID, "failed")
		return fmt.Errorf("extract text: %w", err)
	}

	chunkCh := i.streamChunk(gctx, g, fragCh, i.cfg.TargetTokens, i.cfg.OverlapTokens)

	g.Go(func() error {
		return i.embedAndPersist(gctx, assetID, chunkCh, i.cfg.BatchSize)
	})

	if err := g.Wait(); err != nil {
		_ = i.db.UpdateContentAssetStatus(ctx, assetID, "failed")
		return err
	}

	return i.db.UpdateContentAssetStatus(ctx, assetID, "ready")
}

// embedAndPersist consumes chunks, embeds them in batches and writes rows.
func (i *ContentIndexer) embedAndPersist(ctx context.Context, assetID string, in <-chan chunk, batchSize int) error {
	batch := make([]chunk, 0, batchSize)

	flush := func(items []chunk) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for idx := range items {
			texts[idx] = items[idx].Text
		}

		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}

		rows := make([]models.ContentChunk, len(items))
		for k := range items {
			rows[k] = models.ContentChunk{
				ID:         uuid.NewString(),
				AssetID:    assetID,
				Text:       items[k].Text,
				Embedding:  vecs[k],
				Position:   items[k].Pos,
				TokenCount: items[k].TokenCnt,
				CreatedAt:  time.Now().UTC(),
			}
		}
		if err := i.db.InsertContentChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	}

	for c := range in {
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return flush(batch)
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}

var _ Indexer = (*ContentIndexer)(nil)
