package receipt

import (
	"github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/providers/pdf"
	"github.com/smallbiznis/cafepos/internal/providers/text"
	"github.com/smallbiznis/cafepos/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(config.NewReceiptSettingsHolder),
	fx.Provide(pdf.New),
	fx.Provide(text.New),
	fx.Provide(service.New),
)
