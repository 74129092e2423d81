// handlers/challenge_routes.go
package handlers

import (
	"errors"

	"flag-hunt-system/middleware"
	"flag-hunt-system/models"
	"flag-hunt-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type submitFlagRequest struct {
	Flag string `json:"flag"`
}

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var prereq *services.PrerequisiteNotMetError
	switch {
	case errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, services.ErrAlreadyLocked),
		errors.Is(err, services.ErrDuplicateCompletion),
		errors.Is(err, services.ErrAlreadyInvalidated),
		errors.Is(err, services.ErrHuntInactive),
		errors.Is(err, services.ErrChallengeNotReleased):
		return fiber.StatusConflict
	case errors.As(err, &prereq):
		return fiber.StatusPreconditionFailed
	default:
		return fiber.StatusInternalServerError
	}
}

func errorBody(err error) fiber.Map {
	body := fiber.Map{"error": err.Error()}
	var prereq *services.PrerequisiteNotMetError
	if errors.As(err, &prereq) {
		body["missing_challenges"] = prereq.Missing
	}
	return body
}

func requestMeta(c *fiber.Ctx) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

func SetupChallengeRoutes(app *fiber.App, submissionService *services.SubmissionService, scoreboardService *services.ScoreboardService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/challenges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var user models.User
		if err := submissionService.DB.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown user"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching user"})
		}

		board, err := scoreboardService.ChallengeBoard(user.ClassID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"total": len(board), "challenges": board})
	})

	secured.Post("/challenges/:id/submit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		var req submitFlagRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if req.Flag == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "flag is required"})
		}

		result, err := submissionService.SubmitFlag(userID, challengeID, req.Flag, requestMeta(c))
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(result)
	})

	secured.Get("/challenges/:id/solves", func(c *fiber.Ctx) error {
		solves, err := scoreboardService.ChallengeSolves(c.Params("id"))
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"total": len(solves), "solves": solves})
	})

	secured.Get("/challenges/:id/lock", func(c *fiber.Ctx) error {
		locked, err := scoreboardService.LockState(c.Params("id"))
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"locked": locked})
	})
}
