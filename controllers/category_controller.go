package controllers

import (
	"net/http"

	"school_inventory/app"
	"school_inventory/db"
	"school_inventory/models"

	"github.com/gin-gonic/gin"
)

type CategoryController struct{ *Srv }

func NewCategoryController(s *Srv) *CategoryController { return &CategoryController{Srv: s} }

func (cc *CategoryController) List(c *gin.Context) {
	cs, err := cc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": cs})
}

func (cc *CategoryController) Create(c *gin.Context) {
	var in struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	cat := &models.Category{Name: in.Name, Description: in.Description}
	if err := cc.Repo.CreateCategory(c.Request.Context(), cat); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// DELETE /api/categories/:id?confirm=true
func (cc *CategoryController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	guardedDelete(c, "category",
		func() (db.DeleteSummary, error) { return cc.Repo.CategoryDependents(ctx, id) },
		func() (db.DeleteSummary, error) { return cc.Repo.DeleteCategory(ctx, id) },
	)
}
