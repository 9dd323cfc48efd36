package controllers

import (
	"net/http"

	"school_inventory/app"
	"school_inventory/db"
	"school_inventory/models"

	"github.com/gin-gonic/gin"
)

type DepartmentController struct{ *Srv }

func NewDepartmentController(s *Srv) *DepartmentController { return &DepartmentController{Srv: s} }

func (dc *DepartmentController) List(c *gin.Context) {
	ds, err := dc.Repo.ListDepartments(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ds})
}

func (dc *DepartmentController) Create(c *gin.Context) {
	var in struct {
		Name  string `json:"name" binding:"required"`
		Head  string `json:"head"`
		Phone string `json:"phone"`
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d := &models.Department{Name: in.Name, Head: in.Head, Phone: in.Phone, Email: in.Email}
	if err := dc.Repo.CreateDepartment(c.Request.Context(), d); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// DELETE /api/departments/:id?confirm=true
func (dc *DepartmentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	guardedDelete(c, "department",
		func() (db.DeleteSummary, error) { return dc.Repo.DepartmentDependents(ctx, id) },
		func() (db.DeleteSummary, error) { return dc.Repo.DeleteDepartment(ctx, id) },
	)
}
