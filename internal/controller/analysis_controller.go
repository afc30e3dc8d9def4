package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/service"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Rows(ctx *fiber.Ctx) error
	EligibleColumns(ctx *fiber.Ctx) error
	Override(ctx *fiber.Ctx) error
	SetManualVars(ctx *fiber.Ctx) error
	SetTemplateChoice(ctx *fiber.Ctx) error
	Layouts(ctx *fiber.Ctx) error
	Options(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	CurrentSpec(ctx *fiber.Ctx) error
}

type analysisController struct {
	service service.IAnalysisService
}

func NewAnalysisController(service service.IAnalysisService) IAnalysisController {
	return &analysisController{service: service}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll) // ?study_id=
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)

	h.Post(":id/generate", c.Generate)
	h.Get(":id/session", c.Status)
	h.Get(":id/rows", c.Rows)
	h.Get(":id/columns", c.EligibleColumns)
	h.Put(":id/mapping", c.Override)
	h.Put(":id/manual-vars", c.SetManualVars)
	h.Put(":id/template", c.SetTemplateChoice)
	h.Get(":id/layouts", c.Layouts)
	h.Get(":id/options", c.Options)
	h.Post(":id/save", c.Save)
	h.Get(":id/spec", c.CurrentSpec)
}

func analysisId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid analysis id")
	}
	return id, nil
}

func (c *analysisController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateAnalysisRequest
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

	return ctx.JSON(serverutils.SuccessResponse("Success create analysis", res))
}

func (c *analysisController) GetAll(ctx *fiber.Ctx) error {
	studyId, err := uuid.Parse(ctx.Query("study_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid or missing study_id")
	}

	res, err := c.service.GetAll(ctx.Context(), studyId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all analyses", res))
}

func (c *analysisController) Show(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show analysis", res))
}

func (c *analysisController) Delete(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete analysis", nil))
}

func (c *analysisController) Generate(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Generate(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate spec", res))
}

func (c *analysisController) Status(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Status(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session status", res))
}

func (c *analysisController) Rows(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Rows(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get mapping rows", res))
}

func (c *analysisController) EligibleColumns(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.EligibleColumns(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get eligible columns", res))
}

func (c *analysisController) Override(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	var req dto.OverrideMappingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Override(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success override mapping", res))
}

func (c *analysisController) SetManualVars(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	var req dto.ManualVarsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.SetManualVars(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set manual variables", res))
}

func (c *analysisController) SetTemplateChoice(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	var req dto.TemplateChoiceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetTemplateChoice(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set template choice", res))
}

func (c *analysisController) Layouts(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Layouts(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success derive layouts", res))
}

func (c *analysisController) Options(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Options(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build wizard options", res))
}

func (c *analysisController) Save(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Save(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save spec", res))
}

func (c *analysisController) CurrentSpec(ctx *fiber.Ctx) error {
	id, err := analysisId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.CurrentSpec(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get current spec", res))
}
