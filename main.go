// findit serves the number-guessing game over HTTP (`findit serve`, the
// default) or plays it in the terminal (`findit play`).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/findit/internal/config"
	"github.com/robalobadob/findit/internal/console"
	"github.com/robalobadob/findit/internal/game"
	"github.com/robalobadob/findit/internal/httpserver"
	"github.com/robalobadob/findit/internal/session"
	"github.com/robalobadob/findit/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log.Logger = cfg.Logger()
	zerolog.SetGlobalLevel(log.Logger.GetLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "play":
		err = console.Run(ctx, os.Stdin, os.Stdout, game.RandomGenerator{})
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [serve|play]\n", os.Args[0])
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("exited")
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	tokens, err := session.NewIssuer(cfg.RoundSecret, cfg.RoundTokenTTL)
	if err != nil {
		return err
	}
	srv := httpserver.New(store.NewMemoryStore(), tokens, cfg)
	log.Info().Str("addr", cfg.Addr()).Msg("starting findit")
	return srv.Run(ctx, cfg.Addr())
}
