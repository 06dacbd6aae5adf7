package app

import (
	"context"

	"chatlog/pkg/logger"
)

// Shutdown stops accepting requests, stops retention and closes the archive.
// It gives up waiting on in-flight requests when ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	a.setState("shutting_down")
	a.ready.Store(false)
	logger.Info("shutdown_requested")

	var err error
	if a.srvFast != nil {
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err = <-done:
			if err != nil {
				logger.Error("http_shutdown_error", "error", err)
			}
		case <-ctx.Done():
			err = ctx.Err()
			logger.Error("http_shutdown_timeout", "error", err)
		}
	}

	if a.retentionCancel != nil {
		a.retentionCancel()
	}
	if a.gateway != nil {
		a.gateway.Close()
	}
	a.closeArchive()

	if err == nil {
		a.setState("stopped")
		logger.Info("shutdown_complete")
	}
	return err
}
