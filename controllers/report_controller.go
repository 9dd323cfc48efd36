package controllers

import (
	"net/http"

	"school_inventory/app"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

func (rc *ReportController) ByCategory(c *gin.Context) {
	rows, err := rc.Repo.ReportByCategory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

func (rc *ReportController) ByDepartment(c *gin.Context) {
	rows, err := rc.Repo.ReportByDepartment(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// Dashboard is the summary shown on the landing page. Overdue is counted live.
func (rc *ReportController) Dashboard(c *gin.Context) {
	d, err := rc.Repo.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	now := rc.Repo.Clock()
	recent := make([]borrowingView, 0, len(d.Recent))
	for _, l := range d.Recent {
		recent = append(recent, viewOf(l, now))
	}
	c.JSON(http.StatusOK, app.H{
		"totalEquipment":   d.TotalEquipment,
		"available":        d.Available,
		"borrowed":         d.Borrowed,
		"maintenance":      d.Maintenance,
		"retired":          d.Retired,
		"activeBorrowings": d.ActiveBorrowings,
		"overdue":          d.Overdue,
		"recent":           recent,
	})
}
