package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagarc03/pitfall/config"
)

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return config.WithContext(ctx, cfg)
}

// configFromContext retrieves the config stored by the root command.
func configFromContext(ctx context.Context) (*config.Config, error) {
	return config.FromContext(ctx)
}

// shutdownContext is canceled on SIGINT or SIGTERM.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
