// db/repo_reports.go
package db

import (
	"context"

	"school_inventory/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

type CategoryReport struct {
	CategoryID uint   `json:"categoryId"`
	Name       string `json:"name"`
	Total      int64  `json:"total"`
	Available  int64  `json:"available"`
	Borrowed   int64  `json:"borrowed"`
}

type DepartmentReport struct {
	DepartmentID uint   `json:"departmentId"`
	Name         string `json:"name"`
	TotalBorrows int64  `json:"totalBorrows"`
	Active       int64  `json:"active"`
}

type Dashboard struct {
	TotalEquipment   int64                    `json:"totalEquipment"`
	Available        int64                    `json:"available"`
	Borrowed         int64                    `json:"borrowed"`
	Maintenance      int64                    `json:"maintenance"`
	Retired          int64                    `json:"retired"`
	ActiveBorrowings int64                    `json:"activeBorrowings"`
	Overdue          int64                    `json:"overdue"`
	Recent           []models.BorrowingRecord `json:"recent"`
}

const dashboardRecent = 5

func (r *Repo) sqlDialect() goqu.DialectWrapper {
	if r.DB.Dialector.Name() == "sqlite" {
		return goqu.Dialect("sqlite3")
	}
	return goqu.Dialect("postgres")
}

// countWhen renders COALESCE(SUM(CASE WHEN col = v THEN 1 ELSE 0 END), 0).
func countWhen(col exp.IdentifierExpression, v string) exp.SQLFunctionExpression {
	return goqu.COALESCE(goqu.SUM(goqu.Case().When(col.Eq(v), 1).Else(0)), 0)
}

func (r *Repo) scanReport(ctx context.Context, ds *goqu.SelectDataset, dest any) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

// ReportByCategory counts equipment per category, including empty categories.
func (r *Repo) ReportByCategory(ctx context.Context) ([]CategoryReport, error) {
	status := goqu.I("e.status")
	ds := r.sqlDialect().
		From(goqu.T(models.CategoryTable).As("c")).
		LeftJoin(goqu.T(models.EquipmentTable).As("e"), goqu.On(goqu.I("e.category_id").Eq(goqu.I("c.id")))).
		Select(
			goqu.I("c.id").As("category_id"),
			goqu.I("c.name").As("name"),
			goqu.COUNT(goqu.I("e.id")).As("total"),
			countWhen(status, string(models.StatusAvailable)).As("available"),
			countWhen(status, string(models.StatusBorrowed)).As("borrowed"),
		).
		GroupBy(goqu.I("c.id"), goqu.I("c.name")).
		Order(goqu.I("c.name").Asc())

	rows := []CategoryReport{}
	if err := r.scanReport(ctx, ds, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReportByDepartment counts borrowing records per department, including
// departments that never borrowed anything.
func (r *Repo) ReportByDepartment(ctx context.Context) ([]DepartmentReport, error) {
	ds := r.sqlDialect().
		From(goqu.T(models.DepartmentTable).As("d")).
		LeftJoin(goqu.T(models.BorrowingTable).As("b"), goqu.On(goqu.I("b.department_id").Eq(goqu.I("d.id")))).
		Select(
			goqu.I("d.id").As("department_id"),
			goqu.I("d.name").As("name"),
			goqu.COUNT(goqu.I("b.id")).As("total_borrows"),
			countWhen(goqu.I("b.status"), string(models.BorrowingOpen)).As("active"),
		).
		GroupBy(goqu.I("d.id"), goqu.I("d.name")).
		Order(goqu.I("d.name").Asc())

	rows := []DepartmentReport{}
	if err := r.scanReport(ctx, ds, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type equipmentCounts struct {
	TotalEquipment int64
	Available      int64
	Borrowed       int64
	Maintenance    int64
	Retired        int64
}

func (r *Repo) Dashboard(ctx context.Context) (*Dashboard, error) {
	var c equipmentCounts
	status := goqu.I("status")
	ds := r.sqlDialect().
		From(goqu.T(models.EquipmentTable)).
		Select(
			goqu.COUNT(goqu.I("id")).As("total_equipment"),
			countWhen(status, string(models.StatusAvailable)).As("available"),
			countWhen(status, string(models.StatusBorrowed)).As("borrowed"),
			countWhen(status, string(models.StatusMaintenance)).As("maintenance"),
			countWhen(status, string(models.StatusRetired)).As("retired"),
		)
	if err := r.scanReport(ctx, ds, &c); err != nil {
		return nil, err
	}
	d := Dashboard{
		TotalEquipment: c.TotalEquipment,
		Available:      c.Available,
		Borrowed:       c.Borrowed,
		Maintenance:    c.Maintenance,
		Retired:        c.Retired,
		Recent:         []models.BorrowingRecord{},
	}

	db := r.DB.WithContext(ctx)
	if err := db.Model(&models.BorrowingRecord{}).
		Where("status = ?", models.BorrowingOpen).
		Count(&d.ActiveBorrowings).Error; err != nil {
		return nil, err
	}
	if err := r.borrowingQuery(ctx, BorrowingFilter{Status: models.DisplayOverdue}).
		Count(&d.Overdue).Error; err != nil {
		return nil, err
	}
	if err := r.borrowingQuery(ctx, BorrowingFilter{}).
		Preload("Equipment").Preload("Department").
		Limit(dashboardRecent).
		Find(&d.Recent).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
