package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	_ = godotenv.Load()
	cfg := LoadConfig()
	log.Info().
		Str("db", cfg.DBPath).
		Str("rabbit", cfg.RabbitURL).
		Msg("starting warehouse service")

	// Repo
	repo, err := NewRepository(cfg.DBPath)
	must(err)
	defer repo.Close()

	// Rabbit
	rabbit, err := NewRabbit(cfg)
	must(err)
	defer rabbit.Close()

	svc, err := NewService(repo, rabbit)
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := NewWarehouseServer(cfg, svc, rabbit)
	must(server.StartConsumers(ctx))
	log.Info().Msg("rabbit consumers started")

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Warn().Msg("shutting down...")
	cancel()
	time.Sleep(ShutdownGrace)
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
