package db

import (
	"context"
	"fmt"
	"strings"

	"school_inventory/models"

	"gorm.io/gorm"
)

// Departments

func (r *Repo) CreateDepartment(ctx context.Context, d *models.Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if err := required("name", d.Name); err != nil {
		return err
	}
	d.CreatedAt = r.now()
	return translate(r.DB.WithContext(ctx).Create(d).Error, fmt.Sprintf("department %q", d.Name))
}

func (r *Repo) FindDepartmentByID(ctx context.Context, id uint) (*models.Department, error) {
	var d models.Department
	if err := r.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("department %d", id))
	}
	return &d, nil
}

func (r *Repo) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var ds []models.Department
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&ds).Error
	return ds, err
}

func (r *Repo) DepartmentDependents(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	if _, err := r.FindDepartmentByID(ctx, id); err != nil {
		return s, err
	}
	err := r.DB.WithContext(ctx).Model(&models.BorrowingRecord{}).
		Where("department_id = ?", id).
		Count(&s.BorrowingRecords).Error
	return s, err
}

// DeleteDepartment removes the department and its borrowing records.
// Equipment still out on one of the deleted open records goes back to
// available, otherwise it would stay borrowed with no open record.
func (r *Repo) DeleteDepartment(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	now := r.now()
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Department
		if err := tx.First(&d, id).Error; err != nil {
			return translate(err, fmt.Sprintf("department %d", id))
		}
		var held []uint
		if err := tx.Model(&models.BorrowingRecord{}).
			Where("department_id = ? AND return_date IS NULL", id).
			Pluck("equipment_id", &held).Error; err != nil {
			return err
		}
		if len(held) > 0 {
			if err := tx.Model(&models.Equipment{}).
				Where("id IN ? AND status = ?", held, models.StatusBorrowed).
				Updates(map[string]any{"status": models.StatusAvailable, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("department_id = ?", id).Delete(&models.BorrowingRecord{})
		if res.Error != nil {
			return res.Error
		}
		s.BorrowingRecords = res.RowsAffected
		return tx.Delete(&d).Error
	})
	return s, err
}
