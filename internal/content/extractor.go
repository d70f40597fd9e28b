package content

import (
	"bytes"
	"context"
	"strings"

	"code.sajari.com/docconv"
	"golang.org/x/sync/errgroup"

	"github.com/brandforge-app/brandforge/internal/logger"
)

// DocconvExtractor implements TextExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
	log            *logger.Logger
}

func NewDocconvExtractor(useReadability bool, log *logger.Logger) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability, log: log.With("component", "docconv")}
}

var _ TextExtractor = (*DocconvExtractor)(nil)

// ExtractText converts the raw bytes and writes the extracted text as
// line fragments to the returned channel.
func (e *DocconvExtractor) ExtractText(ctx context.Context, g *errgroup.Group, r []byte, contentType string) (<-chan string, error) {
	out := make(chan string, 32)

	reader := bytes.NewReader(r)

	g.Go(func() error {
		defer close(out)

		res, err := docconv.Convert(reader, contentType, e.useReadability)
		if err != nil {
			e.log.Error("extraction failed", "contentType", contentType, "error", err)
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Body == "" {
			e.log.Warn("extracted empty text", "contentType", contentType)
			return nil
		}

		for _, line := range strings.Split(res.Body, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return out, nil
}
