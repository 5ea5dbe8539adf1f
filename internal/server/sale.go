package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	saledomain "github.com/smallbiznis/cafepos/internal/sale/domain"
)

type saleRequest struct {
	Items    []saledomain.ItemInput    `json:"items"`
	Sessions []saledomain.SessionInput `json:"sessions"`
}

func (s *Server) SaveSale(c *gin.Context) {
	var req saleRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	if err := validateSessions(req.Sessions); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.saleSvc.Record(c.Request.Context(), saledomain.RecordRequest{
		Items:    req.Items,
		Sessions: req.Sessions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale recorded successfully.",
		"data":    resp,
	})
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidRequestError()
	}
	return nil
}

func validateSessions(sessions []saledomain.SessionInput) error {
	for i, session := range sessions {
		if session.Duration < 0 {
			return newValidationError(
				fmt.Sprintf("sessions[%d].duration", i),
				"invalid_duration",
				"duration must not be negative",
			)
		}
	}
	return nil
}
