// Command api-server serves the ice-cream shop ordering API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	scoop "github.com/xenking/scoop/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := scoop.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		lg.Info("Config loaded",
			zap.Float64("rate_limit_rps", cfg.RateLimit.RPS),
			zap.Strings("cors_origins", cfg.CORS.Origins),
			zap.Duration("order_tx_timeout", cfg.Order.TxTimeout),
		)
		return scoop.Run(ctx, lg, m, cfg)
	})
}
