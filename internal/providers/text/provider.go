package text

import (
	appconfig "github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
)

// TextProvider renders receipts for 58/80mm thermal printers.
type TextProvider struct {
	settings *appconfig.ReceiptSettingsHolder
}

func New(settings *appconfig.ReceiptSettingsHolder) *TextProvider {
	if settings == nil {
		settings = appconfig.NewStaticReceiptSettings(appconfig.DefaultReceiptSettings())
	}
	return &TextProvider{settings: settings}
}

func (p *TextProvider) Format() domain.Format { return domain.FormatText }

func (p *TextProvider) ContentType() string { return "text/plain; charset=utf-8" }

func (p *TextProvider) Filename() string { return "receipt.txt" }
