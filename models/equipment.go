// models/equipment.go
package models

import (
	"fmt"
	"time"
)

const EquipmentTable = "equipment"

type EquipmentStatus string

const (
	StatusAvailable   EquipmentStatus = "available"
	StatusBorrowed    EquipmentStatus = "borrowed"
	StatusMaintenance EquipmentStatus = "maintenance"
	StatusRetired     EquipmentStatus = "retired"
)

var equipmentStatuses = []EquipmentStatus{StatusAvailable, StatusBorrowed, StatusMaintenance, StatusRetired}

func (s EquipmentStatus) Valid() bool {
	for _, v := range equipmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseEquipmentStatus rejects anything outside the enum.
func ParseEquipmentStatus(raw string) (EquipmentStatus, error) {
	s := EquipmentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: invalid equipment status %q", ErrValidation, raw)
	}
	return s, nil
}

// Actor identifies who is asking for a status change.
type Actor int

const (
	// ActorLifecycle is the borrowing lifecycle: the only writer of
	// available<->borrowed.
	ActorLifecycle Actor = iota
	// ActorAdmin is a direct administrative edit. It may set any status,
	// including forcing a borrowed item back to available.
	ActorAdmin
)

// CheckTransition reports whether the actor may move equipment from one
// status to another. A lifecycle transition that is refused because of the
// current state is a conflict; an unknown target status is a validation error.
func CheckTransition(from, to EquipmentStatus, actor Actor) error {
	if !to.Valid() {
		return fmt.Errorf("%w: invalid equipment status %q", ErrValidation, to)
	}
	if actor == ActorAdmin {
		return nil
	}
	switch {
	case from == StatusAvailable && to == StatusBorrowed:
		return nil
	case from == StatusBorrowed && to == StatusAvailable:
		return nil
	}
	return fmt.Errorf("%w: equipment is not available (status: %s)", ErrConflict, from)
}

type Equipment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Code         string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	CategoryID   uint            `gorm:"index;not null" json:"categoryId"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	PurchaseDate *time.Time      `gorm:"type:date" json:"purchaseDate,omitempty"`
	Value        *float64        `json:"value,omitempty"`
	Status       EquipmentStatus `gorm:"size:20;not null;default:'available';index" json:"status"`
	Location     string          `gorm:"size:100" json:"location,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	Category         *Category         `json:"category,omitempty"`
	BorrowingRecords []BorrowingRecord `gorm:"constraint:OnDelete:CASCADE" json:"borrowingRecords,omitempty"`
}

func (Equipment) TableName() string { return EquipmentTable }
