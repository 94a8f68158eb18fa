package controller

import (
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/pkg/serverutils"
	"infra-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMemoryController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Search(ctx *fiber.Ctx) error
}

type memoryController struct {
	service service.IMemoryService
}

func NewMemoryController(service service.IMemoryService) IMemoryController {
	return &memoryController{service: service}
}

func (c *memoryController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/memory/v1")
	h.Use(auth)
	h.Post("/search", c.Search)
}

// Search ranks the caller's memories against a query, for inspecting what
// the assistant will recall.
func (c *memoryController) Search(ctx *fiber.Ctx) error {
	var req dto.MemorySearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SearchMemories(ctx.UserContext(), serverutils.Identity(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search memories", res))
}
