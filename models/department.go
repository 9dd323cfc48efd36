package models

import "time"

const DepartmentTable = "departments"

// Department is the organisational unit a borrower belongs to. Contact
// fields are free text.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Head      string    `gorm:"size:100" json:"head,omitempty"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Email     string    `gorm:"size:100" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	BorrowingRecords []BorrowingRecord `gorm:"constraint:OnDelete:CASCADE" json:"borrowingRecords,omitempty"`
}

func (Department) TableName() string { return DepartmentTable }
