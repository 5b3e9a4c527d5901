package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/rtcpeer/internal/adapters/http"
	"github.com/dkeye/rtcpeer/internal/adapters/rtc"
	"github.com/dkeye/rtcpeer/internal/app"
	"github.com/dkeye/rtcpeer/internal/config"
	"github.com/dkeye/rtcpeer/internal/events"
	"github.com/dkeye/rtcpeer/internal/peer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	dispatcher := events.NewDispatcher(ctx, cfg.EventQueueSize)
	engine, err := rtc.NewEngine(dispatcher, rtc.Options{
		UDPPortMin:         cfg.UDPPortMin,
		UDPPortMax:         cfg.UDPPortMax,
		LoopbackCandidates: cfg.LoopbackCandidates,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start engine")
	}

	var opts []peer.Option
	if cfg.ExclusiveNegotiation {
		opts = append(opts, peer.WithExclusiveNegotiation())
	}
	factory := &peer.Factory{Engine: engine, Events: dispatcher, Registry: peer.NewRegistry()}
	manager := app.NewManager(factory, cfg.PeerConfiguration(), opts...)

	r := router.SetupRouter(ctx, cfg, manager, engine)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("rtcpeer server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	manager.CloseAll()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("engine shutdown")
	}
	dispatcher.Close()
	log.Info().Msg("Server exited gracefully")
}
