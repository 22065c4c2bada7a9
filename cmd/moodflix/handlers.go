package main

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/feedback"
	"github.com/doingodswork/moodflix/pkg/profile"
	"github.com/doingodswork/moodflix/pkg/recommend"
)

type recommendRequest struct {
	Genre  string `json:"genre"`
	Mood   string `json:"mood"`
	UserID string `json:"user_id"`
}

type feedbackRequest struct {
	Title string `json:"title"`
	// A pointer, so a missing score can be told apart from a 0 one
	Score *float64 `json:"score"`
}

type favoriteRequest struct {
	Title  string `json:"title"`
	Action string `json:"action"`
}

type profileRequest struct {
	UserID          string   `json:"user_id"`
	Mood            string   `json:"mood"`
	PreferredGenres []string `json:"preferred_genres"`
}

func createRecommendHandler(engine *recommend.Engine, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req recommendRequest
		if err := c.BodyParser(&req); err != nil {
			logger.Debug("Couldn't parse recommend request body", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": recommend.ErrGenreRequired.Error()})
		}

		recommendations, err := engine.Recommend(c.Context(), req.Genre, req.Mood, req.UserID, 0)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"recommendations": recommendations})
	}
}

func createFeedbackHandler(store *feedback.Store, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req feedbackRequest
		// A non-numeric score fails the body parsing, which is the same
		// validation failure as an out-of-range one
		if err := c.BodyParser(&req); err != nil || req.Score == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": feedback.ErrInvalidScore.Error()})
		}

		if err := store.Record(req.Title, *req.Score); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Debug("Recorded feedback", zap.String("title", req.Title), zap.Float64("score", *req.Score))
		return c.JSON(fiber.Map{"status": "success"})
	}
}

func createFavoriteHandler(store *feedback.Store, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": feedback.ErrInvalidFavorite.Error()})
		}

		if err := store.ToggleFavorite(req.Title, req.Action); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Debug("Toggled favorite", zap.String("title", req.Title), zap.String("action", req.Action))
		return c.JSON(fiber.Map{
			"status":    "success",
			"favorites": store.Favorites(),
		})
	}
}

func createFavoritesHandler(engine *recommend.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"favorites": engine.Favorites(c.Context())})
	}
}

func createProfileHandler(store *profile.Store, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			logger.Debug("Couldn't parse profile request body", zap.Error(err))
			return c.SendStatus(fiber.StatusBadRequest)
		}

		updated := store.Update(req.UserID, req.Mood, req.PreferredGenres)
		return c.JSON(fiber.Map{
			"status":  "success",
			"profile": updated,
		})
	}
}

func healthHandler(c *fiber.Ctx) error {
	return c.SendString("OK")
}
