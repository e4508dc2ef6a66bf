package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quidque.com/discord-maestro/internal/config"
	"quidque.com/discord-maestro/internal/discord"
	"quidque.com/discord-maestro/internal/logging"
	"quidque.com/discord-maestro/internal/shutdown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logging.New("info")
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.LogLevel)

	client, err := discord.NewClient(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}

	if err := client.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}

	shut := shutdown.NewManager(log)
	shut.Register(shutdown.Func{
		ComponentName: "discord",
		Close: func(context.Context) error {
			return client.Disconnect()
		},
	})
	shut.Register(shutdown.Func{
		ComponentName: "panels",
		Close: func(context.Context) error {
			client.Engine.Close()
			return nil
		},
	})

	log.Info().Msg("bot is running, press Ctrl+C to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := shut.Shutdown(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("shutdown finished with errors")
		os.Exit(1)
	}
}
