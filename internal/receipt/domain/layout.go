package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Layout holds the presentation values that do not come from the request.
type Layout struct {
	Title    string
	Currency string
	Footer   string
}

// BuildDocument lays out req in input order. The total is printed as given.
func BuildDocument(req RenderRequest, layout Layout) Document {
	doc := Document{
		Title:         layout.Title,
		ReceiptNumber: strings.TrimSpace(req.ReceiptNumber),
		SessionLines:  make([]string, 0, len(req.Sessions)),
		ItemLines:     make([]string, 0, len(req.Items)),
		TotalLine:     "Total: " + money(layout.Currency, FormatAmount(req.Total)),
		Footer:        strings.TrimSpace(layout.Footer),
	}
	for _, s := range req.Sessions {
		doc.SessionLines = append(doc.SessionLines, fmt.Sprintf(
			"Computer: %s | Duration: %d min | Charge: %s",
			s.Computer, s.Duration, money(layout.Currency, strconv.FormatInt(s.Charge, 10)),
		))
	}
	for _, item := range req.Items {
		doc.ItemLines = append(doc.ItemLines, fmt.Sprintf("%s - %s", item.Name, money(layout.Currency, FormatAmount(item.Price))))
	}
	return doc
}

// FormatAmount prints the shortest decimal form, so 50 stays "50" and 12.5 stays "12.5".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func money(currency, amount string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}
