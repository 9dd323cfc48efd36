// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"school_inventory/app"
	"school_inventory/config"
	"school_inventory/db"
	"school_inventory/metrics"
	"school_inventory/models"
	"school_inventory/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo    *db.Repo
	Keys    *session.BorrowKeyStore // nil without redis
	Metrics *metrics.Metrics
	Cfg     config.Config
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	repo.Log = a.Log
	s := &Srv{Repo: repo, Metrics: a.Metrics, Cfg: a.Config}
	if a.RDB != nil {
		s.Keys = session.NewBorrowKeyStore(a.RDB, a.Config.IdempotencyTTL)
	}
	return s
}

// --- helpers ---

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func outcome(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	return "error"
}

// fail writes err with the status code its kind maps to.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), app.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}

// guardedDelete refuses to cascade into dependents unless confirm=true.
func guardedDelete(c *gin.Context, what string, dependents, del func() (db.DeleteSummary, error)) {
	if c.Query("confirm") != "true" {
		deps, err := dependents()
		if err != nil {
			fail(c, err)
			return
		}
		if !deps.Empty() {
			c.JSON(http.StatusConflict, app.H{
				"error":      what + " has dependents that would be deleted; repeat with confirm=true",
				"dependents": deps,
			})
			return
		}
	}
	sum, err := del()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "deleted": sum})
}
