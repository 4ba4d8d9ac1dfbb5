package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/logtrace"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/server"
)

func init() {
	logtrace.InitLogger()
}

const DefaultConfigFile = "/etc/steward/stewardsrv.conf"

type cmdoptions struct {
	configFile string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	opt := parseFlags()

	slog.Info().Str("config_file", opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(opt.configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if config.Config().Server.Port == "" {
		return fmt.Errorf("server port not defined")
	}

	watcher := server.Startup(ctx)

	s, err := server.CreateNewServer()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:    ":" + config.Config().Server.Port,
		Handler: s.Router,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info().Str("port", config.Config().Server.Port).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		// Give outstanding requests 5 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
		server.Shutdown(shutdownCtx, watcher)
	}

	slog.Info().Msg("server stopped")
	return nil
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	flag.StringVar(&opt.configFile, "config", DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
