package domain

import (
	"context"
	"errors"
	"io"

	saledomain "github.com/smallbiznis/cafepos/internal/sale/domain"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

const (
	SessionsHeading = "Sessions:"
	ItemsHeading    = "Products/Services:"
)

type RenderRequest struct {
	Sessions      []saledomain.SessionInput
	Items         []saledomain.ItemInput
	Total         float64
	ReceiptNumber string
	Format        Format
}

// Document is the laid-out receipt. Renderers only decide typography.
type Document struct {
	Title         string
	ReceiptNumber string
	SessionLines  []string
	ItemLines     []string
	TotalLine     string
	Footer        string
}

// Renderer writes one Document in a concrete output format.
type Renderer interface {
	Format() Format
	ContentType() string
	Filename() string
	Render(ctx context.Context, w io.Writer, doc Document) error
}

// Stream is a lazily produced receipt. It can be read once and must be closed.
type Stream struct {
	io.ReadCloser
	ContentType string
	Filename    string
}

type Service interface {
	Render(ctx context.Context, req RenderRequest) (*Stream, error)
}

var ErrUnsupportedFormat = errors.New("unsupported_receipt_format")
