package text

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	appconfig "github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, p *TextProvider, doc domain.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Render(context.Background(), &buf, doc))
	return buf.Bytes()
}

func TestRenderGolden(t *testing.T) {
	g := goldie.New(t)
	p := New(nil)

	t.Run("scenario", func(t *testing.T) {
		out := render(t, p, domain.Document{
			Title:        "Cyber Café Receipt",
			SessionLines: []string{"Computer: PC3 | Duration: 45 min | Charge: KES 75"},
			ItemLines:    []string{"Soda - KES 50"},
			TotalLine:    "Total: KES 125",
		})
		g.Assert(t, "scenario", out)
	})

	t.Run("empty", func(t *testing.T) {
		out := render(t, p, domain.Document{
			Title:     "Cyber Café Receipt",
			TotalLine: "Total: KES 0",
		})
		g.Assert(t, "empty", out)
	})

	t.Run("numbered_with_footer", func(t *testing.T) {
		out := render(t, p, domain.Document{
			Title:         "Cyber Café Receipt",
			ReceiptNumber: "1850001234567890",
			SessionLines: []string{
				"Computer: PC1 | Duration: 30 min | Charge: KES 50",
				"Computer: PC2 | Duration: 60 min | Charge: KES 100",
			},
			ItemLines: []string{"Printing - KES 12.5"},
			TotalLine: "Total: KES 162.5",
			Footer:    "Karibu tena!",
		})
		g.Assert(t, "numbered_with_footer", out)
	})
}

func TestRenderUsesConfiguredWidth(t *testing.T) {
	settings := appconfig.DefaultReceiptSettings()
	settings.TextWidth = 24
	p := New(appconfig.NewStaticReceiptSettings(settings))

	out := render(t, p, domain.Document{Title: "Till", TotalLine: "Total: 0"})
	lines := bytes.Split(out, []byte("\n"))
	assert.Equal(t, "          Till", string(lines[0]))
	assert.Equal(t, string(bytes.Repeat([]byte("-"), 24)), string(lines[1]))
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after == 0 {
		return 0, errors.New("printer offline")
	}
	w.after--
	return len(p), nil
}

func TestRenderPropagatesWriteError(t *testing.T) {
	err := New(nil).Render(context.Background(), &failingWriter{after: 2}, domain.Document{
		Title:     "Cyber Café Receipt",
		TotalLine: "Total: KES 0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "printer offline")
}
