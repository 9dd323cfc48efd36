// controllers/borrowing_controller.go
package controllers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"school_inventory/app"
	"school_inventory/db"
	"school_inventory/models"
	"school_inventory/session"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type BorrowingController struct{ *Srv }

func NewBorrowingController(s *Srv) *BorrowingController { return &BorrowingController{Srv: s} }

// borrowingView adds the read-time overdue state to a record.
type borrowingView struct {
	models.BorrowingRecord
	Overdue       bool   `json:"overdue"`
	DisplayStatus string `json:"displayStatus"`
}

func viewOf(l models.BorrowingRecord, now time.Time) borrowingView {
	return borrowingView{BorrowingRecord: l, Overdue: l.IsOverdue(now), DisplayStatus: l.DisplayStatus(now)}
}

func (bc *BorrowingController) views(ls []models.BorrowingRecord) []borrowingView {
	now := bc.Repo.Clock()
	out := make([]borrowingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, viewOf(l, now))
	}
	return out
}

// GET /api/borrowings?status=borrowed|returned|overdue&department=
func (bc *BorrowingController) List(c *gin.Context) {
	deptID, ok := queryID(c, "department")
	if !ok {
		return
	}
	ls, err := bc.Repo.ListBorrowings(c.Request.Context(), db.BorrowingFilter{
		Status:       c.Query("status"),
		DepartmentID: deptID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": bc.views(ls)})
}

func (bc *BorrowingController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	l, err := bc.Repo.FindBorrowingByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*l, bc.Repo.Clock()))
}

// GET /api/borrowings/overdue
func (bc *BorrowingController) Overdue(c *gin.Context) {
	ls, err := bc.Repo.ComputeOverdue(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": bc.views(ls)})
}

type borrowReq struct {
	EquipmentID  uint   `json:"equipmentId" binding:"required"`
	DepartmentID uint   `json:"departmentId" binding:"required"`
	BorrowedBy   string `json:"borrowedBy" binding:"required"`
	Purpose      string `json:"purpose"`
	DurationDays *int   `json:"durationDays"`
}

// Borrow starts a loan. With an Idempotency-Key header, a repeated request
// answers with the record the first one created.
func (bc *BorrowingController) Borrow(c *gin.Context) {
	ctx := c.Request.Context()
	var req borrowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	days := bc.Cfg.DefaultLoanDays
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			c.JSON(http.StatusBadRequest, app.H{"error": "durationDays must be positive"})
			return
		}
		days = *req.DurationDays
	}

	idemKey := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if idemKey != "" && bc.Keys != nil {
		if bk, err := bc.Keys.Lookup(ctx, idemKey); err == nil {
			if l, err := bc.Repo.FindBorrowingByID(ctx, bk.RecordID); err == nil {
				c.Header("Idempotent-Replayed", "true")
				c.JSON(http.StatusOK, viewOf(*l, bc.Repo.Clock()))
				return
			}
		} else if !errors.Is(err, session.ErrKeyMissing) {
			bc.Repo.Log.Warn("idempotency lookup failed", "error", err)
		}
	}

	l, err := bc.Repo.StartBorrow(ctx, db.BorrowInput{
		EquipmentID:  req.EquipmentID,
		DepartmentID: req.DepartmentID,
		BorrowedBy:   req.BorrowedBy,
		Purpose:      req.Purpose,
		DurationDays: days,
	})
	if err != nil {
		bc.Metrics.LifecycleRejected.WithLabelValues("borrow", outcome(err)).Inc()
		fail(c, err)
		return
	}
	bc.Metrics.BorrowsStarted.Inc()

	if idemKey != "" && bc.Keys != nil {
		if _, err := bc.Keys.Remember(ctx, idemKey, l.ID, l.EquipmentID); err != nil {
			bc.Repo.Log.Warn("idempotency store failed", "record_id", l.ID, "error", err)
		}
	}
	c.JSON(http.StatusCreated, viewOf(*l, bc.Repo.Clock()))
}

// POST /api/borrowings/:id/return
func (bc *BorrowingController) Return(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	l, err := bc.Repo.CompleteReturn(c.Request.Context(), id, in.Notes)
	if err != nil {
		bc.Metrics.LifecycleRejected.WithLabelValues("return", outcome(err)).Inc()
		fail(c, err)
		return
	}
	bc.Metrics.BorrowsReturned.Inc()
	c.JSON(http.StatusOK, viewOf(*l, bc.Repo.Clock()))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Export streams the filtered records as CSV without loading them all.
// GET /api/borrowings/export.csv?status=&department=
func (bc *BorrowingController) Export(c *gin.Context) {
	deptID, ok := queryID(c, "department")
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="borrowings.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "equipment_id", "department_id", "borrowed_by", "borrowed_date", "expected_return", "return_date", "status", "display_status"})
	now := bc.Repo.Clock()
	seq := bc.Repo.Borrowings(c.Request.Context(), db.BorrowingFilter{Status: c.Query("status"), DepartmentID: deptID})
	for l, err := range seq {
		if err != nil {
			bc.Repo.Log.Error("borrowing export aborted", "error", err)
			break
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(l.ID), 10),
			strconv.FormatUint(uint64(l.EquipmentID), 10),
			strconv.FormatUint(uint64(l.DepartmentID), 10),
			l.BorrowedBy,
			formatTime(&l.BorrowedDate),
			formatTime(l.ExpectedReturn),
			formatTime(l.ReturnDate),
			string(l.Status),
			l.DisplayStatus(now),
		})
	}
	w.Flush()
}
