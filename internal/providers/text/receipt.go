package text

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
)

// Render writes doc one line at a time so a slow reader sees the receipt as it is produced.
func (p *TextProvider) Render(ctx context.Context, w io.Writer, doc domain.Document) error {
	width := p.settings.Current().TextWidth
	rule := strings.Repeat("-", width)

	lines := make([]string, 0, len(doc.SessionLines)+len(doc.ItemLines)+10)
	lines = append(lines, center(width, doc.Title))
	if doc.ReceiptNumber != "" {
		lines = append(lines, "Receipt No: "+doc.ReceiptNumber)
	}
	lines = append(lines, rule, domain.SessionsHeading)
	lines = append(lines, doc.SessionLines...)
	lines = append(lines, "", domain.ItemsHeading)
	lines = append(lines, doc.ItemLines...)
	lines = append(lines, "", doc.TotalLine)
	if doc.Footer != "" {
		lines = append(lines, rule, center(width, doc.Footer))
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("write receipt line: %w", err)
		}
	}
	return nil
}

func center(width int, s string) string {
	return strings.TrimRight(lipgloss.PlaceHorizontal(width, lipgloss.Center, s), " ")
}
