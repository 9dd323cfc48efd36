package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"school_inventory/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// openTestDB returns a migrated in-memory database private to the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(conn))
	return conn
}

func newTestRepo(t *testing.T) (*Repo, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: t0}
	r := NewRepo(openTestDB(t))
	r.Now = clock.Now
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return r, clock
}

type fixture struct {
	category  *models.Category
	deptA     *models.Department
	deptB     *models.Department
	projector *models.Equipment
}

// seed creates the "Projectors" category with one projector and two departments.
func seed(t *testing.T, r *Repo) fixture {
	t.Helper()
	ctx := context.Background()
	cat := &models.Category{Name: "Projectors", Description: "Ceiling and portable projectors"}
	require.NoError(t, r.CreateCategory(ctx, cat))
	a := &models.Department{Name: "Science", Head: "Dr. Osei"}
	require.NoError(t, r.CreateDepartment(ctx, a))
	b := &models.Department{Name: "History"}
	require.NoError(t, r.CreateDepartment(ctx, b))
	eq, err := r.CreateEquipment(ctx, NewEquipmentInput{Name: "Epson EB-X41", Code: "PRJ-01", CategoryID: cat.ID})
	require.NoError(t, err)
	return fixture{category: cat, deptA: a, deptB: b, projector: eq}
}

func equipmentStatus(t *testing.T, r *Repo, id uint) models.EquipmentStatus {
	t.Helper()
	eq, err := r.FindEquipmentByID(context.Background(), id)
	require.NoError(t, err)
	return eq.Status
}

// assertStatusConsistent checks that every item is borrowed exactly when it
// has one open record, and never has more than one.
func assertStatusConsistent(t *testing.T, r *Repo) {
	t.Helper()
	var items []models.Equipment
	require.NoError(t, r.DB.Find(&items).Error)
	for _, eq := range items {
		var open int64
		require.NoError(t, r.DB.Model(&models.BorrowingRecord{}).
			Where("equipment_id = ? AND status = ? AND return_date IS NULL", eq.ID, models.BorrowingOpen).
			Count(&open).Error)
		require.LessOrEqual(t, open, int64(1), "equipment %s has %d open records", eq.Code, open)
		require.Equal(t, eq.Status == models.StatusBorrowed, open == 1, "equipment %s status %s with %d open records", eq.Code, eq.Status, open)
	}
}
