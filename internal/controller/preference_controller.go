package controller

import (
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/serverutils"
	"infra-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPreferenceController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Get(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ListShortcuts(ctx *fiber.Ctx) error
	CreateShortcut(ctx *fiber.Ctx) error
	UseShortcut(ctx *fiber.Ctx) error
	DeleteShortcut(ctx *fiber.Ctx) error
}

type preferenceController struct {
	service service.IPreferenceService
}

func NewPreferenceController(service service.IPreferenceService) IPreferenceController {
	return &preferenceController{service: service}
}

// Shortcut commands usually start with "/", so they travel in the body or
// query string rather than the path.
func (c *preferenceController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/preference/v1")
	h.Use(auth)
	h.Get("", c.Get)
	h.Put("", c.Update)
	h.Get("/shortcuts", c.ListShortcuts)
	h.Post("/shortcuts", c.CreateShortcut)
	h.Post("/shortcuts/use", c.UseShortcut)
	h.Delete("/shortcuts", c.DeleteShortcut)
}

func (c *preferenceController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.GetPreferences(ctx.UserContext(), serverutils.Identity(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get preferences", res))
}

func (c *preferenceController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdatePreferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdatePreferences(ctx.UserContext(), serverutils.Identity(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update preferences", res))
}

func (c *preferenceController) ListShortcuts(ctx *fiber.Ctx) error {
	res, err := c.service.ListShortcuts(ctx.UserContext(), serverutils.Identity(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get shortcuts", res))
}

func (c *preferenceController) CreateShortcut(ctx *fiber.Ctx) error {
	var req dto.CreateShortcutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateShortcut(ctx.UserContext(), serverutils.Identity(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create shortcut", res))
}

func (c *preferenceController) UseShortcut(ctx *fiber.Ctx) error {
	var req dto.UseShortcutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	template, err := c.service.UseShortcut(ctx.UserContext(), serverutils.Identity(ctx), req.Command)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success use shortcut", dto.UseShortcutResponse{
		Command:  req.Command,
		Template: template,
	}))
}

func (c *preferenceController) DeleteShortcut(ctx *fiber.Ctx) error {
	command := ctx.Query("command")
	if command == "" {
		return apperror.InvalidInput("shortcut.delete", "command query parameter is required")
	}
	if err := c.service.DeleteShortcut(ctx.UserContext(), serverutils.Identity(ctx), command); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete shortcut", nil))
}
