package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/services"
)

type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Get(c *fiber.Ctx) error {
	resp, err := h.accountService.Get(c.UserContext(), identity.GetViewer(c))
	if err != nil {
		return serviceError(c, err, "Failed to load account")
	}
	return c.JSON(resp)
}

func (h *AccountHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.accountService.UpdateProfile(c.UserContext(), identity.GetViewer(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to update profile")
	}
	return c.JSON(user)
}

func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	if err := h.accountService.DeleteAccount(c.UserContext(), identity.GetViewer(c)); err != nil {
		return serviceError(c, err, "Failed to delete account")
	}
	return c.JSON(dto.MessageResponse{Message: "Account deleted successfully"})
}

// ListUsers is the moderator's user directory.
func (h *AccountHandler) ListUsers(c *fiber.Ctx) error {
	page, offset := paging.Page(c.Query("page"), paging.MaxPageSize)
	users, total, err := h.accountService.ListUsers(c.UserContext(), offset, paging.MaxPageSize)
	if err != nil {
		return serviceError(c, err, "Failed to list users")
	}
	return c.JSON(pageResponse(users, page, paging.MaxPageSize, total))
}
