package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	router "github.com/sorens/notary/internal/adapters/http"
	"github.com/sorens/notary/internal/adapters/notarize"
	"github.com/sorens/notary/internal/app"
	"github.com/sorens/notary/internal/app/orch"
	"github.com/sorens/notary/internal/config"
	"github.com/sorens/notary/internal/signing"
	"github.com/sorens/notary/internal/verifier"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	host := flag.String("host", "", "bind address (overrides config)")
	port := flag.Int("port", 0, "bind port (overrides config)")
	seed := flag.String("signing-key-seed", "", "signing key seed (overrides config and SIGNING_KEY_SEED)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *seed != "" {
		cfg.SigningKeySeed = *seed
	}

	var signer signing.ContextSigner
	if cfg.SigningKeySeed != "" {
		s, err := signing.NewSecp256k1Signer(cfg.SigningKeySeed)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create signer from seed")
		}
		signer = s
		log.Info().Str("algorithm", s.Algorithm()).Msg("signing exchange enabled")
	}

	reg := app.NewRegistry()
	o := &orch.Orchestrator{
		Verifiers:      verifier.Factory{},
		Builder:        verifier.Builder{},
		Signer:         signer,
		Encoder:        signing.JSONEncoder{},
		SessionTimeout: cfg.SessionTimeout,
		ReclaimTimeout: cfg.ReclaimTimeout,
	}
	ctl := notarize.NewController(o, reg, app.CapPolicy{Max: cfg.MaxSessions}, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("notary server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	reg.CancelAll()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
