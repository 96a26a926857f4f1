package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apihttp "github.com/oshokin/alarm-assistant/internal/api/http"
	"github.com/oshokin/alarm-assistant/internal/api/ws"
	"github.com/oshokin/alarm-assistant/internal/config"
	"github.com/oshokin/alarm-assistant/internal/logger"
	"github.com/oshokin/alarm-assistant/internal/repository/alarms"
	"github.com/oshokin/alarm-assistant/internal/scheduler"
	"github.com/oshokin/alarm-assistant/internal/service/assistant"
)

// Options controls the assistant-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
	// DatabasePath provides an optional SQLite path override.
	DatabasePath string
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Run starts the assistant HTTP server and blocks until the context is
// canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "assistant-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	databasePath := settings.DatabasePath
	if opts.DatabasePath != "" {
		databasePath = opts.DatabasePath
	}

	repo, err := alarms.NewSQLiteRepository(databasePath)
	if err != nil {
		return fmt.Errorf("open alarm store: %w", err)
	}
	defer repo.Close()

	svc := assistant.New(scheduler.New(repo))
	hub := ws.NewHub()
	e := apihttp.NewServer(svc, hub)

	broadcaster := ws.NewBroadcaster(svc, hub, settings.PollInterval)
	go broadcaster.Run(ctx)

	logger.InfoKV(ctx, "Assistant server listening",
		"listen_address", listenAddress, "database_path", databasePath)

	// Done channel is closed after Shutdown finishes so we block until all
	// in-flight requests drain before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Errorf(ctx, "HTTP shutdown: %v", err)
		}

		hub.Close()
		close(done)
	}()

	if err = e.Start(listenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}
