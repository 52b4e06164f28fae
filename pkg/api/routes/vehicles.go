package routes

import (
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/ghostwatch/ghostwatch/pkg/recurrence"
	"github.com/ghostwatch/ghostwatch/pkg/statestore"
	"github.com/gofiber/fiber/v2"
)

func VehiclesRouter(router fiber.Router, store *statestore.Store, tracker *recurrence.Tracker) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listVehicles(c, store)
	})
	router.Get("/recurring", func(c *fiber.Ctx) error {
		return listRecurringVehicles(c, store, tracker)
	})
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		return getVehicle(c, store)
	})
}

func listVehicles(c *fiber.Ctx, store *statestore.Store) error {
	routeFilter := c.Query("route")

	states := store.List(routeFilter)

	statesReduced, err := reduceToGroup("basic", states)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not reduce vehicle states",
		})
	}

	return c.JSON(statesReduced)
}

func listRecurringVehicles(c *fiber.Ctx, store *statestore.Store, tracker *recurrence.Tracker) error {
	states := []*model.VehicleState{}

	for _, vehicleID := range tracker.Vehicles() {
		if state, found := store.Get(vehicleID); found {
			states = append(states, state)
		}
	}

	statesReduced, err := reduceToGroup("basic", states)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not reduce vehicle states",
		})
	}

	return c.JSON(statesReduced)
}

func getVehicle(c *fiber.Ctx, store *statestore.Store) error {
	identifier := c.Params("identifier")

	state, found := store.Get(identifier)
	if !found {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Vehicle matching Identifier",
		})
	}

	return c.JSON(state)
}
