package serverutils

import (
	"errors"

	"infra-assistant-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindAlreadyExists:
		return fiber.StatusConflict
	case apperror.KindUnavailable:
		return fiber.StatusServiceUnavailable
	case apperror.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperror.KindTransportFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders errors returned by handlers as ErrorResponse.
// 5xx responses never include the underlying error text.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:    fiber.StatusBadRequest,
			Message: "validation failed",
			Errors:  validationErr.Fields,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse{Code: fiberErr.Code, Message: fiberErr.Message})
	}

	status := statusOf(apperror.KindOf(err))
	message := apperror.MessageOf(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		message = "internal server error"
	}
	return ctx.Status(status).JSON(ErrorResponse{Code: status, Message: message})
}
