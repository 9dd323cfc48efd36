// db/repo_equipment.go
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"school_inventory/models"

	"gorm.io/gorm"
)

type NewEquipmentInput struct {
	Name         string
	Code         string
	CategoryID   uint
	Description  string
	PurchaseDate *time.Time
	Value        *float64
	Location     string
}

// EquipmentUpdate carries an administrative edit. Nil fields are left as they are.
type EquipmentUpdate struct {
	Name         *string
	Code         *string
	CategoryID   *uint
	Description  *string
	Location     *string
	Status       *string
	PurchaseDate *time.Time
	Value        *float64
}

type EquipmentQuery struct {
	CategoryID uint
	Status     string
	Search     string // matches name or code
}

type EquipmentDetail struct {
	Equipment models.Equipment         `json:"equipment"`
	History   []models.BorrowingRecord `json:"history"`
}

func categoryExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: category %d does not exist", models.ErrValidation, id)
	}
	return nil
}

// New equipment always starts out available.
func (r *Repo) CreateEquipment(ctx context.Context, in NewEquipmentInput) (*models.Equipment, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	if err := required("name", in.Name); err != nil {
		return nil, err
	}
	if err := required("code", in.Code); err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, fmt.Errorf("%w: categoryId is required", models.ErrValidation)
	}
	if in.Value != nil && *in.Value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", models.ErrValidation)
	}

	now := r.now()
	eq := &models.Equipment{
		Name:         in.Name,
		Code:         in.Code,
		CategoryID:   in.CategoryID,
		Description:  in.Description,
		PurchaseDate: in.PurchaseDate,
		Value:        in.Value,
		Location:     in.Location,
		Status:       models.StatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, in.CategoryID); err != nil {
			return err
		}
		return tx.Create(eq).Error
	})
	if err != nil {
		return nil, translate(err, fmt.Sprintf("equipment code %q", in.Code))
	}
	return eq, nil
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id uint) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.DB.WithContext(ctx).Preload("Category").First(&eq, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("equipment %d", id))
	}
	return &eq, nil
}

// EquipmentWithHistory returns one item and its borrowing history, newest first.
func (r *Repo) EquipmentWithHistory(ctx context.Context, id uint) (*EquipmentDetail, error) {
	eq, err := r.FindEquipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var hist []models.BorrowingRecord
	if err := r.DB.WithContext(ctx).
		Preload("Department").
		Where("equipment_id = ?", id).
		Order("borrowed_date DESC, id DESC").
		Find(&hist).Error; err != nil {
		return nil, err
	}
	return &EquipmentDetail{Equipment: *eq, History: hist}, nil
}

func (r *Repo) ListEquipment(ctx context.Context, q EquipmentQuery) ([]models.Equipment, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Equipment{}).Preload("Category")
	if q.CategoryID != 0 {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	var items []models.Equipment
	err := tx.Order("created_at DESC, id DESC").Find(&items).Error
	return items, err
}

// UpdateEquipment applies an administrative edit. The status field may be
// set to any value of the enum regardless of borrowing state.
func (r *Repo) UpdateEquipment(ctx context.Context, id uint, in EquipmentUpdate) (*models.Equipment, error) {
	var eq models.Equipment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&eq, id).Error; err != nil {
			return translate(err, fmt.Sprintf("equipment %d", id))
		}
		upd := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if err := required("name", name); err != nil {
				return err
			}
			upd["name"] = name
		}
		if in.Code != nil {
			code := strings.TrimSpace(*in.Code)
			if err := required("code", code); err != nil {
				return err
			}
			upd["code"] = code
		}
		if in.CategoryID != nil {
			if err := categoryExists(tx, *in.CategoryID); err != nil {
				return err
			}
			upd["category_id"] = *in.CategoryID
		}
		if in.Description != nil {
			upd["description"] = *in.Description
		}
		if in.Location != nil {
			upd["location"] = *in.Location
		}
		if in.Status != nil {
			to := models.EquipmentStatus(*in.Status)
			if err := models.CheckTransition(eq.Status, to, models.ActorAdmin); err != nil {
				return err
			}
			upd["status"] = to
		}
		if in.PurchaseDate != nil {
			upd["purchase_date"] = *in.PurchaseDate
		}
		if in.Value != nil {
			if *in.Value < 0 {
				return fmt.Errorf("%w: value must not be negative", models.ErrValidation)
			}
			upd["value"] = *in.Value
		}
		upd["updated_at"] = r.now()
		if err := tx.Model(&models.Equipment{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return err
		}
		return tx.Preload("Category").First(&eq, id).Error
	})
	if err != nil {
		return nil, translate(err, "equipment code")
	}
	return &eq, nil
}

func (r *Repo) EquipmentDependents(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	if _, err := r.FindEquipmentByID(ctx, id); err != nil {
		return s, err
	}
	err := r.DB.WithContext(ctx).Model(&models.BorrowingRecord{}).
		Where("equipment_id = ?", id).
		Count(&s.BorrowingRecords).Error
	return s, err
}

// DeleteEquipment removes the item and its whole borrowing history.
func (r *Repo) DeleteEquipment(ctx context.Context, id uint) (DeleteSummary, error) {
	var s DeleteSummary
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := tx.First(&eq, id).Error; err != nil {
			return translate(err, fmt.Sprintf("equipment %d", id))
		}
		res := tx.Where("equipment_id = ?", id).Delete(&models.BorrowingRecord{})
		if res.Error != nil {
			return res.Error
		}
		s.BorrowingRecords = res.RowsAffected
		return tx.Delete(&eq).Error
	})
	return s, err
}
