package models

import "time"

const CategoryTable = "categories"

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Equipment []Equipment `gorm:"constraint:OnDelete:CASCADE" json:"equipment,omitempty"`
}

func (Category) TableName() string { return CategoryTable }
