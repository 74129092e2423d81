// handlers/scoreboard_routes.go
package handlers

import (
	"strconv"

	"flag-hunt-system/middleware"
	"flag-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupScoreboardRoutes(app *fiber.App, scoreboardService *services.ScoreboardService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/scoreboard", func(c *fiber.Ctx) error {
		standings, err := scoreboardService.ClassStandings()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"standings": standings})
	})

	secured.Get("/scoreboard/users", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		standings, err := scoreboardService.UserStandings(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"standings": standings})
	})

	secured.Get("/users/me/stats", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		stats, err := scoreboardService.UserStats(userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(stats)
	})
}
