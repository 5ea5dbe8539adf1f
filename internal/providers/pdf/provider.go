package pdf

import (
	appconfig "github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
)

type PDFProvider struct {
	settings *appconfig.ReceiptSettingsHolder
}

func New(settings *appconfig.ReceiptSettingsHolder) *PDFProvider {
	if settings == nil {
		settings = appconfig.NewStaticReceiptSettings(appconfig.DefaultReceiptSettings())
	}
	return &PDFProvider{settings: settings}
}

func (p *PDFProvider) Format() domain.Format { return domain.FormatPDF }

func (p *PDFProvider) ContentType() string { return "application/pdf" }

func (p *PDFProvider) Filename() string { return "receipt.pdf" }
