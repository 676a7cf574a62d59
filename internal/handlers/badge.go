package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/services"
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
)

type BadgeHandler struct {
	badges *services.BadgeService
}

func NewBadgeHandler(badges *services.BadgeService) *BadgeHandler {
	return &BadgeHandler{badges: badges}
}

// ListBadges GET /api/badges
func (h *BadgeHandler) ListBadges(c *gin.Context) {
	badges, err := h.badges.ListActive(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// CreateBadge POST /api/admin/badges
func (h *BadgeHandler) CreateBadge(c *gin.Context) {
	var input services.CreateBadgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}

	badge, err := h.badges.Create(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, badge)
}

// UpdateBadge PATCH /api/admin/badges/:id
func (h *BadgeHandler) UpdateBadge(c *gin.Context) {
	var input services.UpdateBadgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}

	badge, err := h.badges.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, badge)
}

// DeleteBadge DELETE /api/admin/badges/:id
func (h *BadgeHandler) DeleteBadge(c *gin.Context) {
	if err := h.badges.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AutoAssign POST /api/admin/badges/auto-assign
func (h *BadgeHandler) AutoAssign(c *gin.Context) {
	summary, err := h.badges.AutoAssign(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Badge auto-assignment completed", "summary": summary})
}
