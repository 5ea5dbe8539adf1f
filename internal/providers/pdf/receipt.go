package pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/phpdave11/gofpdf"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
)

// Fixed so that identical receipts produce identical documents.
var creationDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// maroto builds its gofpdf document from package defaults. Font and image
// catalogs live in maps and ModDate falls back to time.Now unless pinned here.
func init() {
	gofpdf.SetDefaultCatalogSort(true)
	gofpdf.SetDefaultModificationDate(creationDate)
}

func (p *PDFProvider) Render(ctx context.Context, w io.Writer, doc domain.Document) error {
	settings := p.settings.Current()

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		WithCompression(settings.PDFCompression).
		WithTitle(doc.Title, true).
		WithCreator("cafepos", true).
		WithCreationDate(creationDate).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	if doc.ReceiptNumber != "" {
		m.AddRow(8,
			text.NewCol(12, "Receipt No: "+doc.ReceiptNumber, props.Text{Size: 9, Align: align.Center}),
		)
	}
	m.AddRow(6, col.New(12))

	addSection(m, domain.SessionsHeading, doc.SessionLines)
	m.AddRow(6, col.New(12))
	addSection(m, domain.ItemsHeading, doc.ItemLines)
	m.AddRow(6, col.New(12))

	m.AddRow(10,
		text.NewCol(12, doc.TotalLine, props.Text{Size: 14, Style: fontstyle.Bold}),
	)
	if doc.Footer != "" {
		m.AddRow(10,
			text.NewCol(12, doc.Footer, props.Text{Size: 9, Style: fontstyle.Italic, Align: align.Center, Top: 4}),
		)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	generated, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generate receipt pdf: %w", err)
	}
	if _, err := w.Write(generated.GetBytes()); err != nil {
		return fmt.Errorf("write receipt pdf: %w", err)
	}
	return nil
}

func addSection(m core.Maroto, heading string, lines []string) {
	m.AddRow(9,
		text.NewCol(12, heading, props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	for _, line := range lines {
		m.AddRow(7,
			text.NewCol(12, line, props.Text{Size: 11}),
		)
	}
}
