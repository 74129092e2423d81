// handlers/admin_routes.go
package handlers

import (
	"flag-hunt-system/middleware"
	"flag-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

type bulkInvalidateRequest struct {
	Kind      string   `json:"kind"` // "submissions" or "completions"
	TargetIDs []string `json:"target_ids"`
}

func SetupAdminRoutes(app *fiber.App, challengeService *services.ChallengeService, invalidationService *services.InvalidationService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.StaffOnly())

	admin.Post("/challenges", func(c *fiber.Ctx) error {
		var in services.CreateChallengeInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		challenge, err := challengeService.CreateChallenge(in)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody(err))
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	admin.Get("/challenges", func(c *fiber.Ctx) error {
		challenges, err := challengeService.ListChallenges(c.Query("mode"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"total": len(challenges), "challenges": challenges})
	})

	admin.Post("/challenges/:id/release", func(c *fiber.Ctx) error {
		if err := challengeService.ReleaseChallenge(c.Params("id")); err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(fiber.Map{"released": true})
	})

	admin.Post("/challenges/:id/attachments", func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		attachment, err := challengeService.AttachFile(c.Params("id"), file)
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.Status(fiber.StatusCreated).JSON(attachment)
	})

	admin.Post("/submissions/:id/invalidate", func(c *fiber.Ctx) error {
		actorID := c.Locals("user_id").(string)
		result, err := invalidationService.InvalidateSubmission(c.Params("id"), actorID, requestMeta(c))
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(result)
	})

	admin.Post("/completions/:id/invalidate", func(c *fiber.Ctx) error {
		actorID := c.Locals("user_id").(string)
		result, err := invalidationService.InvalidateCompletion(c.Params("id"), actorID, requestMeta(c))
		if err != nil {
			return c.Status(statusForError(err)).JSON(errorBody(err))
		}
		return c.JSON(result)
	})

	admin.Post("/invalidate/bulk", func(c *fiber.Ctx) error {
		actorID := c.Locals("user_id").(string)

		var req bulkInvalidateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if len(req.TargetIDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target_ids is required"})
		}

		var result *services.BulkResult
		switch req.Kind {
		case "completions":
			result = invalidationService.BulkInvalidateCompletions(req.TargetIDs, actorID, requestMeta(c))
		case "submissions", "":
			result = invalidationService.BulkInvalidateSubmissions(req.TargetIDs, actorID, requestMeta(c))
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kind must be submissions or completions"})
		}
		return c.JSON(result)
	})
}
