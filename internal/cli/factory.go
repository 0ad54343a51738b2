package cli

import (
	"context"

	"github.com/rs/zerolog"

	"flowtrack/internal/apper"
	"flowtrack/internal/config"
	"flowtrack/internal/filefield"
	"flowtrack/internal/service"
)

// DefaultServiceFactory builds a TaskService backed by the Apper HTTP API.
// Without credentials the service gets no client, so reads come back empty
// and writes fail with service.ErrClientUnavailable.
func DefaultServiceFactory(ctx context.Context, cfg *config.Config, notify service.Notifier) (service.Service, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "service").Logger()
	opts := []service.Option{
		service.WithNotifier(notify),
		service.WithLogger(log),
	}

	if !cfg.HasCredentials() {
		log.Warn().Msg("apper credentials not configured")
		return service.NewTaskService(nil, opts...), nil
	}

	client, err := apper.New(ctx, cfg.Apper.BaseURL, cfg.Apper.ProjectID, cfg.Apper.PublicKey,
		apper.WithLogger(zerolog.Ctx(ctx).With().Str("component", "apper").Logger()),
		apper.WithRateLimit(cfg.Apper.RateLimit, apper.DefaultBurst),
	)
	if err != nil {
		return nil, err
	}
	uploader := client.Uploader()
	opts = append(opts, service.WithFiles(func() filefield.SDK { return uploader }))

	log.Debug().Str("base_url", cfg.Apper.BaseURL).Msg("apper client ready")
	return service.NewTaskService(client, opts...), nil
}
