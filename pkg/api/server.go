// Package api is the read-only query surface over the live vehicle state
// store and the historical snapshot store. It imposes nothing on the
// detection core beyond read-after-write per vehicle.
package api

import (
	"github.com/ghostwatch/ghostwatch/pkg/api/routes"
	"github.com/ghostwatch/ghostwatch/pkg/recurrence"
	"github.com/ghostwatch/ghostwatch/pkg/snapshots"
	"github.com/ghostwatch/ghostwatch/pkg/statestore"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(listen string, store *statestore.Store, tracker *recurrence.Tracker, snapshotStore *snapshots.Store) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.VehiclesRouter(group.Group("/vehicles"), store, tracker)
	routes.SnapshotsRouter(group.Group("/snapshots"), snapshotStore)

	return webApp.Listen(listen)
}
