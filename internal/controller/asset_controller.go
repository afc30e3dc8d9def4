package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/service"
)

type IAssetController interface {
	RegisterRoutes(r fiber.Router)
	ListBuild(ctx *fiber.Ctx) error
	ListPrereg(ctx *fiber.Ctx) error
}

type assetController struct {
	service service.IAssetService
}

func NewAssetController(service service.IAssetService) IAssetController {
	return &assetController{service: service}
}

func (c *assetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/study/v1/:id/assets")
	h.Use(serverutils.JwtMiddleware)
	h.Get("build", c.ListBuild)
	h.Get("prereg", c.ListPrereg)
}

func (c *assetController) ListBuild(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid study id")
	}

	res, err := c.service.ListBuildAssets(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list build assets", res))
}

func (c *assetController) ListPrereg(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid study id")
	}

	res, err := c.service.ListPreregAssets(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list prereg assets", res))
}
