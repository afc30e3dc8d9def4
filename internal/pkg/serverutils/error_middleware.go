package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"research-workflow-be/pkg/resolve"
)

// ErrorHandlerMiddleware converts service errors into uniform JSON bodies.
// A blocked save is a client-resolvable condition, not a server fault, so it
// answers 422 with the offending variable names.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var blocked *resolve.ValidationBlockedError
		if errors.As(err, &blocked) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(
				ErrorResponse(blocked.Error(), "VALIDATION_BLOCKED", fiber.Map{"unresolved": blocked.Vars}),
			)
		}

		var transition *resolve.TransitionError
		if errors.As(err, &transition) {
			return ctx.Status(fiber.StatusConflict).JSON(
				ErrorResponse(transition.Error(), "INVALID_TRANSITION", nil),
			)
		}

		var app *AppError
		if errors.As(err, &app) {
			return ctx.Status(app.Status).JSON(ErrorResponse(app.Message, app.Code, nil))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message, "", nil))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse("Internal server error", "INTERNAL", nil),
		)
	}
}
