package handlers

import (
	"net/http"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/middleware"
	"etaca_backend/internal/services"
	"etaca_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	*BaseHandler
	goals services.GoalService
}

func NewGoalHandler(v *validator.Validator, goals services.GoalService) *GoalHandler {
	return &GoalHandler{
		BaseHandler: NewBaseHandler(v),
		goals:       goals,
	}
}

// Create godoc
// POST /api/v1/org/goals (владелец организации)
func (h *GoalHandler) Create(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}

	var req dto.CreateGoalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.goals.Create(h.GetDB(c), orgID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// PUT /api/v1/org/goals/:id
func (h *GoalHandler) Update(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}
	goalID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.goals.Update(h.GetDB(c), orgID, goalID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// DELETE /api/v1/org/goals/:id
func (h *GoalHandler) Deactivate(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}
	goalID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.goals.Deactivate(h.GetDB(c), orgID, goalID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}

// List godoc
// GET /api/v1/org/goals
func (h *GoalHandler) List(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}

	activeOnly := c.Query("active") == "true"
	goals, err := h.goals.ListByOrganization(h.GetDB(c), orgID, activeOnly)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}
