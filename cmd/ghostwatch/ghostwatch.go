package main

import (
	"os"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/alerts"
	"github.com/ghostwatch/ghostwatch/pkg/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("GHOSTWATCH_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("GHOSTWATCH_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "ghostwatch",
		Description: "Single binary of truth for Ghostwatch - runs all the services",

		Commands: []*cli.Command{
			ingest.RegisterCLI(),
			alerts.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
