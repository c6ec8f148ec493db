package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/api/dto"
	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/service"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

// ProblemsHandler manages problem report endpoints.
type ProblemsHandler struct {
	service *service.ProblemService
}

// NewProblemsHandler constructs handler.
func NewProblemsHandler(problemService *service.ProblemService) *ProblemsHandler {
	return &ProblemsHandler{service: problemService}
}

// CreateProblem POST /problems.
func (h *ProblemsHandler) CreateProblem(c *fiber.Ctx) error {
	reporter, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.CreateProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	problem, err := h.service.Create(c.UserContext(), reporter, service.ProblemCreateInput{
		Type:        req.Type,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(problem))
}

// ListProblems GET /problems.
func (h *ProblemsHandler) ListProblems(c *fiber.Ctx) error {
	query, err := parseProblemQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}

	items := make([]dto.ProblemResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewProblemResponse(&page.Items[i]))
	}
	return c.JSON(dto.ProblemListResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	})
}

// GetProblem GET /problems/:id.
func (h *ProblemsHandler) GetProblem(c *fiber.Ctx) error {
	problem, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(problem))
}

// UpdateStatus PUT /problems/:id/status. The status may come in the JSON body
// or as the "status" query parameter.
func (h *ProblemsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, _ := auth.PrincipalFromContext(c)

	req := dto.UpdateStatusRequest{Status: c.Query("status")}
	if req.Status == "" {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	problem, err := h.service.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(problem))
}

// DeleteProblem DELETE /problems/:id.
func (h *ProblemsHandler) DeleteProblem(c *fiber.Ctx) error {
	actor, _ := auth.PrincipalFromContext(c)
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "problem deleted successfully"})
}

func parseProblemQuery(c *fiber.Ctx) (service.ProblemQuery, error) {
	query := service.ProblemQuery{
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("is_from_inspector"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return query, apperrors.NewValidationError("invalid is_from_inspector", nil)
		}
		query.IsFromInspector = &parsed
	}
	var err error
	if query.Page, err = intQuery(c, "page"); err != nil {
		return query, err
	}
	if query.Limit, err = intQuery(c, "limit"); err != nil {
		return query, err
	}
	return query, nil
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+key, nil)
	}
	if value == 0 {
		// zero means "default" to the service, so reject it here
		return 0, apperrors.NewValidationError(key+" must be positive", nil)
	}
	return value, nil
}
