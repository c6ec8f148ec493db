package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/api/dto"
	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/service"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

// AdminHandler exposes account administration.
type AdminHandler struct {
	users *service.UserService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// UpdateRole handles PUT /admin/users/role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor, _ := auth.PrincipalFromContext(c)
	user, err := h.users.UpdateRole(c.UserContext(), actor, req.UserID, req.NewRole)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(items)
}
