package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

const Version = "0.1.0"

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
	})
}

func reduceToGroup(group string, value interface{}) (interface{}, error) {
	return sheriff.Marshal(&sheriff.Options{
		Groups: []string{group},
	}, value)
}
