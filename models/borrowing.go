// models/borrowing.go
package models

import "time"

const BorrowingTable = "borrowing_records"

// DefaultLoanDays is used when a borrow request names no duration.
const DefaultLoanDays = 7

type BorrowingStatus string

// Only two states are ever stored. Overdue is derived at read time.
const (
	BorrowingOpen     BorrowingStatus = "borrowed"
	BorrowingReturned BorrowingStatus = "returned"
)

// DisplayOverdue is the derived display status of an open record past its due date.
const DisplayOverdue = "overdue"

type BorrowingRecord struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	EquipmentID    uint            `gorm:"index;not null" json:"equipmentId"`
	DepartmentID   uint            `gorm:"index;not null" json:"departmentId"`
	BorrowedBy     string          `gorm:"size:100;not null" json:"borrowedBy"`
	BorrowedDate   time.Time       `gorm:"not null;index" json:"borrowedDate"`
	ReturnDate     *time.Time      `json:"returnDate,omitempty"`
	ExpectedReturn *time.Time      `json:"expectedReturn,omitempty"`
	Purpose        string          `gorm:"type:text" json:"purpose,omitempty"`
	Status         BorrowingStatus `gorm:"size:20;not null;default:'borrowed';index" json:"status"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`

	Equipment  *Equipment  `json:"equipment,omitempty"`
	Department *Department `json:"department,omitempty"`
}

func (BorrowingRecord) TableName() string { return BorrowingTable }

// IsOverdue is true iff the record is still open and its due date lies
// strictly before now.
func (r BorrowingRecord) IsOverdue(now time.Time) bool {
	if r.ReturnDate != nil || r.ExpectedReturn == nil {
		return false
	}
	return r.ExpectedReturn.Before(now)
}

func (r BorrowingRecord) DisplayStatus(now time.Time) string {
	if r.IsOverdue(now) {
		return DisplayOverdue
	}
	return string(r.Status)
}

// DueDate computes expected_return for a loan starting at borrowed.
func DueDate(borrowed time.Time, days int) time.Time {
	return borrowed.AddDate(0, 0, days)
}
