package material

import (
	"context"
	"fmt"

	"chemtutor/internal/document"
)

type Extractor interface {
	Extract(ctx context.Context, docs []document.Document) string
}

type Splitter interface {
	Split(text string) []string
}

type IndexBuilder interface {
	Build(ctx context.Context, chunks []string) (int, error)
}

// Pipeline turns uploaded PDFs into a freshly built index.
type Pipeline struct {
	extractor Extractor
	splitter  Splitter
	builder   IndexBuilder
}

func NewPipeline(e Extractor, s Splitter, b IndexBuilder) *Pipeline {
	return &Pipeline{extractor: e, splitter: s, builder: b}
}

func (p *Pipeline) Run(ctx context.Context, docs []document.Document) (int, error) {
	chunks := p.splitter.Split(p.extractor.Extract(ctx, docs))
	n, err := p.builder.Build(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("build index from %d documents: %w", len(docs), err)
	}
	return n, nil
}
