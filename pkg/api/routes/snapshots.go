package routes

import (
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/snapshots"
	"github.com/gofiber/fiber/v2"
)

func SnapshotsRouter(router fiber.Router, snapshotStore *snapshots.Store) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listSnapshots(c, snapshotStore)
	})
}

func listSnapshots(c *fiber.Ctx, snapshotStore *snapshots.Store) error {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if fromQuery := c.Query("from"); fromQuery != "" {
		parsed, err := time.Parse(time.RFC3339, fromQuery)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "from must be RFC3339",
			})
		}
		from = parsed
	}

	if toQuery := c.Query("to"); toQuery != "" {
		parsed, err := time.Parse(time.RFC3339, toQuery)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "to must be RFC3339",
			})
		}
		to = parsed
	}

	results, err := snapshotStore.Range(c.Context(), from, to)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not query historical snapshots",
		})
	}

	return c.JSON(results)
}
