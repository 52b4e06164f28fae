package ingest

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/alerts"
	"github.com/ghostwatch/ghostwatch/pkg/api"
	"github.com/ghostwatch/ghostwatch/pkg/config"
	"github.com/ghostwatch/ghostwatch/pkg/database"
	"github.com/ghostwatch/ghostwatch/pkg/feed"
	"github.com/ghostwatch/ghostwatch/pkg/geo"
	"github.com/ghostwatch/ghostwatch/pkg/hub"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/ghostwatch/ghostwatch/pkg/recurrence"
	"github.com/ghostwatch/ghostwatch/pkg/redis_client"
	"github.com/ghostwatch/ghostwatch/pkg/routegeom"
	"github.com/ghostwatch/ghostwatch/pkg/score"
	"github.com/ghostwatch/ghostwatch/pkg/snapshots"
	"github.com/ghostwatch/ghostwatch/pkg/statestore"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const routeCacheExpiration = 90 * time.Minute
const externalEventsChannel = "vehicles:updates"

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "detector",
		Usage: "Ghost vehicle detection engine",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the detection pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "address for the query API",
						Value: ":8080",
					},
				},
				Action: func(c *cli.Context) error {
					detectionConfig := config.GetDetectionConfig()

					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					database.CreateIndexes(detectionConfig.SnapshotRetention)

					store := statestore.NewStore(detectionConfig.HistoryCapacity)
					store.SetMirror(statestore.NewMirror(redis_client.Client, detectionConfig.StateMirrorTTL))

					tracker := recurrence.NewTracker(
						detectionConfig.RecurringWindowSize,
						detectionConfig.RecurringMinSamples,
						detectionConfig.RecurringRatio,
						detectionConfig.RecurringRetention,
					)

					broadcastHub := hub.NewHub(hub.DefaultBufferSize)
					broadcastHub.SetExternal(redis_client.Client, externalEventsChannel)
					defer broadcastHub.Shutdown()

					snapshotStore := snapshots.NewStore(detectionConfig.SnapshotWriteRetries)

					alertPublisher, err := alerts.NewPublisher()
					if err != nil {
						return err
					}

					loop := &Loop{
						Source:  feed.NewGTFSRT(detectionConfig.FeedURL, detectionConfig.FetchTimeout),
						Store:   store,
						Tracker: tracker,
						Hub:     broadcastHub,
						Config:  detectionConfig,

						Routes:    routegeom.NewCached(routegeom.MongoProvider{}, routeCacheExpiration),
						Snapshots: snapshotStore,
						Alerts:    alertPublisher,
					}

					go func() {
						if err := api.SetupServer(c.String("listen"), store, tracker, snapshotStore); err != nil {
							log.Fatal().Err(err).Msg("Failed to start query API")
						}
					}()

					ctx, cancel := context.WithCancel(context.Background())

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					go func() {
						<-signals
						cancel()

						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					loop.Run(ctx)

					return nil
				},
			},
			{
				Name:  "score-test",
				Usage: "run a single scoring pass over a synthetic vehicle",
				Action: func(c *cli.Context) error {
					detectionConfig := config.GetDetectionConfig()
					now := time.Now()

					state := &model.VehicleState{
						PrimaryIdentifier: "TEST-1",
						RouteIdentifier:   "route-1",
						TripIdentifier:    "trip-1",
						Position: model.VehiclePosition{
							Location:  geo.NewPoint(-71.0589, 42.3601),
							Timestamp: now,
						},
						History: []model.VehiclePosition{
							{Location: geo.NewPoint(-71.0589, 42.3601), Timestamp: now.Add(-11 * time.Minute)},
							{Location: geo.NewPoint(-71.0589, 42.3601), Timestamp: now},
						},
						LastSeen: now.Add(-6 * time.Minute),
					}

					ghostScore, results := score.Evaluate(score.Input{
						State:  state,
						Now:    now,
						Config: detectionConfig,
					})

					pretty.Println(ghostScore, results)

					return nil
				},
			},
		},
	}
}
