package db

import (
	"context"
	"fmt"
	"strings"

	"school_inventory/models"

	"gorm.io/gorm"
)

// DeleteSummary counts the dependents a cascading delete removed, or would remove.
type DeleteSummary struct {
	Equipment        int64 `json:"equipment"`
	BorrowingRecords int64 `json:"borrowingRecords"`
}

func (s DeleteSummary) Empty() bool { return s.Equipment == 0 && s.BorrowingRecords == 0 }

// Categories

func (r *Repo) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := required("name", c.Name); err != nil {
		return err
	}
	c.CreatedAt = r.now()
	return translate(r.DB.WithContext(ctx).Create(c).Error, fmt.Sprintf("category %q", c.Name))
}

func (r *Repo) FindCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("category %d", id))
	}
	return &c, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cs []models.Category
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&cs).Error
	return cs, err
}

// CategoryDependents counts what DeleteCategory would take with it.
func (r *Repo) CategoryDependents(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	db := r.DB.WithContext(ctx)
	if _, err := r.FindCategoryByID(ctx, id); err != nil {
		return s, err
	}
	if err := db.Model(&models.Equipment{}).Where("category_id = ?", id).Count(&s.Equipment).Error; err != nil {
		return s, err
	}
	err := db.Model(&models.BorrowingRecord{}).
		Where("equipment_id IN (?)", db.Model(&models.Equipment{}).Select("id").Where("category_id = ?", id)).
		Count(&s.BorrowingRecords).Error
	return s, err
}

// DeleteCategory removes the category, all of its equipment and the whole
// borrowing history of that equipment.
func (r *Repo) DeleteCategory(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.First(&c, id).Error; err != nil {
			return translate(err, fmt.Sprintf("category %d", id))
		}
		var ids []uint
		if err := tx.Model(&models.Equipment{}).Where("category_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			res := tx.Where("equipment_id IN ?", ids).Delete(&models.BorrowingRecord{})
			if res.Error != nil {
				return res.Error
			}
			s.BorrowingRecords = res.RowsAffected
			res = tx.Where("category_id = ?", id).Delete(&models.Equipment{})
			if res.Error != nil {
				return res.Error
			}
			s.Equipment = res.RowsAffected
		}
		return tx.Delete(&c).Error
	})
	return s, err
}
