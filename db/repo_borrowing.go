// db/repo_borrowing.go
package db

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"school_inventory/models"

	"gorm.io/gorm"
)

type BorrowInput struct {
	EquipmentID  uint
	DepartmentID uint
	BorrowedBy   string
	Purpose      string
	DurationDays int // 0 means models.DefaultLoanDays
}

type BorrowingFilter struct {
	Status       string // borrowed, returned or overdue; empty for all
	DepartmentID uint
}

func (r *Repo) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// StartBorrow lends an available item to a department. The availability
// check and the status flip are one conditional update inside the
// transaction, and the partial unique index on open records backs it up, so
// two racing borrows of the same item cannot both commit.
func (r *Repo) StartBorrow(ctx context.Context, in BorrowInput) (*models.BorrowingRecord, error) {
	in.BorrowedBy = strings.TrimSpace(in.BorrowedBy)
	if err := required("borrowedBy", in.BorrowedBy); err != nil {
		return nil, err
	}
	if in.DurationDays < 0 {
		return nil, fmt.Errorf("%w: durationDays must be positive", models.ErrValidation)
	}
	if in.DurationDays == 0 {
		in.DurationDays = models.DefaultLoanDays
	}

	log := r.logger().With("equipment_id", in.EquipmentID, "department_id", in.DepartmentID)
	var rec *models.BorrowingRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := tx.First(&eq, in.EquipmentID).Error; err != nil {
			return translate(err, fmt.Sprintf("equipment %d", in.EquipmentID))
		}
		if err := models.CheckTransition(eq.Status, models.StatusBorrowed, models.ActorLifecycle); err != nil {
			return notAvailable(eq)
		}
		var dept models.Department
		if err := tx.First(&dept, in.DepartmentID).Error; err != nil {
			return translate(err, fmt.Sprintf("department %d", in.DepartmentID))
		}

		now := r.now()
		res := tx.Model(&models.Equipment{}).
			Where("id = ? AND status = ?", eq.ID, models.StatusAvailable).
			Updates(map[string]any{"status": models.StatusBorrowed, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race: someone changed the status since we read it.
			if err := tx.First(&eq, eq.ID).Error; err != nil {
				return err
			}
			return notAvailable(eq)
		}

		due := models.DueDate(now, in.DurationDays)
		l := &models.BorrowingRecord{
			EquipmentID:    eq.ID,
			DepartmentID:   dept.ID,
			BorrowedBy:     in.BorrowedBy,
			BorrowedDate:   now,
			ExpectedReturn: &due,
			Purpose:        in.Purpose,
			Status:         models.BorrowingOpen,
			CreatedAt:      now,
		}
		if err := tx.Create(l).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: equipment %s already has an open borrowing record", models.ErrConflict, eq.Code)
			}
			return err
		}
		rec = l
		return nil
	})
	if err != nil {
		log.Warn("borrow rejected", "error", err)
		return nil, err
	}
	log.Info("borrow started", "record_id", rec.ID, "borrowed_by", rec.BorrowedBy, "expected_return", rec.ExpectedReturn)
	return rec, nil
}

func notAvailable(eq models.Equipment) error {
	return fmt.Errorf("%w: equipment %s is not available (status: %s)", models.ErrConflict, eq.Code, eq.Status)
}

// CompleteReturn closes an open record and puts its equipment back to
// available. A record can be returned once; a second call is a conflict and
// leaves return_date untouched.
func (r *Repo) CompleteReturn(ctx context.Context, recordID uint, notes string) (*models.BorrowingRecord, error) {
	log := r.logger().With("record_id", recordID)
	var l models.BorrowingRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, recordID).Error; err != nil {
			return translate(err, fmt.Sprintf("borrowing record %d", recordID))
		}
		if l.Status != models.BorrowingOpen || l.ReturnDate != nil {
			return fmt.Errorf("%w: borrowing record %d is already returned", models.ErrConflict, recordID)
		}

		now := r.now()
		res := tx.Model(&models.BorrowingRecord{}).
			Where("id = ? AND status = ? AND return_date IS NULL", l.ID, models.BorrowingOpen).
			Updates(map[string]any{
				"return_date": now,
				"status":      models.BorrowingReturned,
				"notes":       notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: borrowing record %d is already returned", models.ErrConflict, recordID)
		}

		// Safe without looking at other records: there is never more than
		// one open record per item.
		if err := tx.Model(&models.Equipment{}).
			Where("id = ?", l.EquipmentID).
			Updates(map[string]any{"status": models.StatusAvailable, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Preload("Equipment").Preload("Department").First(&l, l.ID).Error
	})
	if err != nil {
		log.Warn("return rejected", "error", err)
		return nil, err
	}
	log.Info("equipment returned", "equipment_id", l.EquipmentID, "overdue", l.ExpectedReturn != nil && l.ExpectedReturn.Before(*l.ReturnDate))
	return &l, nil
}

func (r *Repo) FindBorrowingByID(ctx context.Context, id uint) (*models.BorrowingRecord, error) {
	var l models.BorrowingRecord
	if err := r.DB.WithContext(ctx).Preload("Equipment").Preload("Department").First(&l, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("borrowing record %d", id))
	}
	return &l, nil
}

func (r *Repo) borrowingQuery(ctx context.Context, f BorrowingFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.BorrowingRecord{})
	switch f.Status {
	case "":
	case models.DisplayOverdue:
		q = q.Where("return_date IS NULL AND expected_return < ?", r.now())
	default:
		q = q.Where("status = ?", f.Status)
	}
	if f.DepartmentID != 0 {
		q = q.Where("department_id = ?", f.DepartmentID)
	}
	return q.Order("borrowed_date DESC, id DESC")
}

// ListBorrowings returns the matching records newest first, with their
// equipment and department loaded.
func (r *Repo) ListBorrowings(ctx context.Context, f BorrowingFilter) ([]models.BorrowingRecord, error) {
	var ls []models.BorrowingRecord
	if err := r.borrowingQuery(ctx, f).Preload("Equipment").Preload("Department").Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

// Borrowings streams the matching records newest first. Each range over the
// sequence runs the query again, so the sequence can be restarted; the
// overdue filter is evaluated against the clock at that moment.
func (r *Repo) Borrowings(ctx context.Context, f BorrowingFilter) iter.Seq2[models.BorrowingRecord, error] {
	return func(yield func(models.BorrowingRecord, error) bool) {
		rows, err := r.borrowingQuery(ctx, f).Rows()
		if err != nil {
			yield(models.BorrowingRecord{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var l models.BorrowingRecord
			if err := r.DB.ScanRows(rows, &l); err != nil {
				yield(models.BorrowingRecord{}, err)
				return
			}
			if !yield(l, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.BorrowingRecord{}, err)
		}
	}
}

// ComputeOverdue returns the open records whose due date has passed. Nothing
// is written; the answer depends only on the clock at call time.
func (r *Repo) ComputeOverdue(ctx context.Context) ([]models.BorrowingRecord, error) {
	return r.ListBorrowings(ctx, BorrowingFilter{Status: models.DisplayOverdue})
}
