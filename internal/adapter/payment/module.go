package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/config"
)

// Module exposes the payment client implementation to the fx graph. The
// mode is resolved once here; downstream code only ever sees Client.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.PaymentMode == config.PaymentModeSimulated {
		return SimulatedClient{}, nil
	}
	return NewHTTPClient(p.Config.PaymentGatewayURL, p.Logger)
}
