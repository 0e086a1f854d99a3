package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poolchaos/personalfit-api/internal/cli"
	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/llm"
	"go.uber.org/zap"
)

// BootstrapProviders initializes and registers all enabled providers
// from configuration. Providers that fail validation, construction, or
// the startup health probe are skipped so one bad upstream cannot keep
// the service from starting.
func BootstrapProviders(ctx context.Context, service Service, providers []config.ProviderConfig, log *zap.Logger) int {
	registered := 0
	validate := validator.New()

	for _, pCfg := range providers {
		if !pCfg.Enabled {
			continue
		}

		if err := validate.Struct(&pCfg); err != nil {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.WarningSign(),
				cli.Style(fmt.Sprintf("%s\t", pCfg.ID), cli.Bold),
				cli.Style("Skipping provider with invalid configuration", cli.Yellow),
			))
			continue
		}

		providerInstance, err := llm.New(pCfg)
		if err != nil {
			if errors.Is(err, llm.ErrUnknownProviderType) {
				log.Error("Unknown provider type",
					zap.String("type", pCfg.Type),
					zap.Error(err),
				)
			} else {
				log.Error("Failed to initialize provider",
					zap.String("id", pCfg.ID),
					zap.Error(err),
				)
			}
			continue
		}

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = providerInstance.Health(healthCtx)
		cancel()
		if err != nil {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.WarningSign(),
				cli.Style(fmt.Sprintf("%s\t", pCfg.ID), cli.Bold),
				cli.Style("Provider unhealthy, skipping registration", cli.Yellow),
			), zap.Error(err))
			continue
		}

		service.RegisterProvider(providerInstance)
		log.Info(fmt.Sprintf("%s %s",
			cli.CheckMark(),
			cli.Style(fmt.Sprintf("Provider %s ready", pCfg.ID), cli.Green),
		))
		registered++
	}

	if registered == 0 {
		log.Warn("No providers were registered. Plan generation will not function.")
	}

	return registered
}
