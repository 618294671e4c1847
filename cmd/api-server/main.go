package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/oatandmatcha/storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		lg = lg.Named("storefront")
		lg.Info("Starting storefront API",
			zap.String("addr", cfg.Addr),
			zap.String("base_url", cfg.BaseURL),
		)
		return appkg.Run(ctx, lg, m, cfg)
	})
}
