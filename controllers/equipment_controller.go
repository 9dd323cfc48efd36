// controllers/equipment_controller.go
package controllers

import (
	"fmt"
	"net/http"
	"time"

	"school_inventory/app"
	"school_inventory/db"
	"school_inventory/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: purchaseDate must be YYYY-MM-DD", models.ErrValidation)
	}
	return &t, nil
}

// GET /api/equipment?category=&status=&search=
func (ec *EquipmentController) List(c *gin.Context) {
	catID, ok := queryID(c, "category")
	if !ok {
		return
	}
	items, err := ec.Repo.ListEquipment(c.Request.Context(), db.EquipmentQuery{
		CategoryID: catID,
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

func (ec *EquipmentController) Create(c *gin.Context) {
	var in struct {
		Name         string   `json:"name" binding:"required"`
		Code         string   `json:"code" binding:"required"`
		CategoryID   uint     `json:"categoryId" binding:"required"`
		Description  string   `json:"description"`
		PurchaseDate *string  `json:"purchaseDate"`
		Value        *float64 `json:"value"`
		Location     string   `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	pd, err := parseDate(in.PurchaseDate)
	if err != nil {
		fail(c, err)
		return
	}
	eq, err := ec.Repo.CreateEquipment(c.Request.Context(), db.NewEquipmentInput{
		Name:         in.Name,
		Code:         in.Code,
		CategoryID:   in.CategoryID,
		Description:  in.Description,
		PurchaseDate: pd,
		Value:        in.Value,
		Location:     in.Location,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// Get returns the item together with its borrowing history.
func (ec *EquipmentController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := ec.Repo.EquipmentWithHistory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	now := ec.Repo.Clock()
	hist := make([]borrowingView, 0, len(d.History))
	for _, l := range d.History {
		hist = append(hist, viewOf(l, now))
	}
	c.JSON(http.StatusOK, app.H{"equipment": d.Equipment, "history": hist})
}

// PUT /api/equipment/:id
func (ec *EquipmentController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Name         *string  `json:"name"`
		Code         *string  `json:"code"`
		CategoryID   *uint    `json:"categoryId"`
		Description  *string  `json:"description"`
		Location     *string  `json:"location"`
		Status       *string  `json:"status"`
		PurchaseDate *string  `json:"purchaseDate"`
		Value        *float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	pd, err := parseDate(in.PurchaseDate)
	if err != nil {
		fail(c, err)
		return
	}
	eq, err := ec.Repo.UpdateEquipment(c.Request.Context(), id, db.EquipmentUpdate{
		Name:         in.Name,
		Code:         in.Code,
		CategoryID:   in.CategoryID,
		Description:  in.Description,
		Location:     in.Location,
		Status:       in.Status,
		PurchaseDate: pd,
		Value:        in.Value,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

// DELETE /api/equipment/:id?confirm=true
func (ec *EquipmentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	guardedDelete(c, "equipment",
		func() (db.DeleteSummary, error) { return ec.Repo.EquipmentDependents(ctx, id) },
		func() (db.DeleteSummary, error) { return ec.Repo.DeleteEquipment(ctx, id) },
	)
}
