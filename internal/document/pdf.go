package document

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfReader struct {
	r *pdf.Reader
}

func (p pdfReader) NumPage() int { return p.r.NumPage() }

func (p pdfReader) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func openPDF(data []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return pdfReader{r: r}, nil
}

// PDFExtractor merges the page text of every readable document into one stream.
// Unreadable pages and documents are logged and skipped.
type PDFExtractor struct {
	open func([]byte) (pageSource, error)
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openPDF}
}

func (e *PDFExtractor) Extract(ctx context.Context, docs []Document) string {
	var b strings.Builder
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		text, err := e.extractOne(ctx, doc)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable document", "document", doc.Name, "error", err)
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

func (e *PDFExtractor) extractOne(ctx context.Context, doc Document) (text string, err error) {
	// the pdf package panics on some corrupt cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	src, err := e.open(doc.Data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		pageText, perr := e.pageText(src, i)
		if perr != nil {
			slog.WarnContext(ctx, "no extractable text on page", "document", doc.Name, "page", i, "error", perr)
			continue
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

func (e *PDFExtractor) pageText(src pageSource, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page: %v", r)
		}
	}()
	return src.PageText(i)
}
