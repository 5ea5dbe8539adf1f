package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesKeepsAllowList(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/save-sale"),
		attribute.String("sale.computer", "PC1"),
		attribute.Int("sale.sessions", 2),
	)
	assert.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
	assert.Equal(t, attribute.Key("sale.sessions"), attrs[1].Key)
}

func TestSafeErrorHidesDetail(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.ErrorIs(t, SafeError(context.Canceled), context.Canceled)
	assert.EqualError(t, SafeError(errors.New("UNIQUE constraint failed: sessions.id")), "request failed")
}
