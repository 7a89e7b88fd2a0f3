package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/response"
)

type departmentLister interface {
	List(ctx context.Context) ([]models.Department, error)
}

// DepartmentHandler serves the department lookup list.
type DepartmentHandler struct {
	departments departmentLister
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(departments departmentLister) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	if h.departments == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "department store not configured"))
		return
	}
	departments, err := h.departments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}
