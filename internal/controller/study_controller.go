package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/service"
)

type IStudyController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type studyController struct {
	service service.IStudyService
}

func NewStudyController(service service.IStudyService) IStudyController {
	return &studyController{service: service}
}

func (c *studyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/study/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll) // ?project_id=
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *studyController) GetAll(ctx *fiber.Ctx) error {
	projectId, err := uuid.Parse(ctx.Query("project_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid or missing project_id")
	}

	res, err := c.service.GetAll(ctx.Context(), projectId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all studies", res))
}

func (c *studyController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateStudyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create study", res))
}

func (c *studyController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid study id")
	}

	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show study", res))
}

func (c *studyController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid study id")
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete study", nil))
}
