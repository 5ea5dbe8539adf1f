package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	receiptdomain "github.com/smallbiznis/cafepos/internal/receipt/domain"
	saledomain "github.com/smallbiznis/cafepos/internal/sale/domain"
)

const headerReceiptNumber = "X-Receipt-Number"

type receiptRequest struct {
	Items         []saledomain.ItemInput    `json:"items"`
	Sessions      []saledomain.SessionInput `json:"sessions"`
	Total         *float64                  `json:"total"`
	ReceiptNumber string                    `json:"receipt_number"`
}

func (s *Server) GenerateReceipt(c *gin.Context) {
	var req receiptRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	number := strings.TrimSpace(req.ReceiptNumber)
	if number == "" && s.genID != nil {
		number = s.genID.Generate().String()
	}
	var total float64
	if req.Total != nil {
		total = *req.Total
	}

	stream, err := s.receiptSvc.Render(c.Request.Context(), receiptdomain.RenderRequest{
		Sessions:      req.Sessions,
		Items:         req.Items,
		Total:         total,
		ReceiptNumber: number,
		Format:        receiptdomain.Format(c.DefaultQuery("format", string(receiptdomain.FormatPDF))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer stream.Close()

	headers := map[string]string{
		"Content-Disposition": "inline; filename=" + stream.Filename,
	}
	if number != "" {
		headers[headerReceiptNumber] = number
	}
	c.DataFromReader(http.StatusOK, -1, stream.ContentType, stream, headers)
}
