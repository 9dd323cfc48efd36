package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"school_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowAndReturnScenario(t *testing.T) {
	r, clock := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	rec, err := r.StartBorrow(ctx, BorrowInput{
		EquipmentID:  f.projector.ID,
		DepartmentID: f.deptA.ID,
		BorrowedBy:   "Alice",
		Purpose:      "Year 9 physics lecture",
		DurationDays: 3,
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, models.BorrowingOpen, rec.Status)
	assert.True(t, rec.BorrowedDate.Equal(t0))
	require.NotNil(t, rec.ExpectedReturn)
	assert.True(t, rec.ExpectedReturn.Equal(t0.AddDate(0, 0, 3)))
	assert.Nil(t, rec.ReturnDate)
	assert.Equal(t, models.StatusBorrowed, equipmentStatus(t, r, f.projector.ID))
	assertStatusConsistent(t, r)

	_, err = r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob"})
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "borrowed")

	clock.Advance(2 * time.Hour)
	returned, err := r.CompleteReturn(ctx, rec.ID, "lens cap missing")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.ReturnDate.Equal(t0.Add(2*time.Hour)))
	assert.Equal(t, "lens cap missing", returned.Notes)
	assert.True(t, returned.ExpectedReturn.Equal(t0.AddDate(0, 0, 3)), "due date is not touched by a return")
	assert.Equal(t, models.StatusAvailable, equipmentStatus(t, r, f.projector.ID))
	assertStatusConsistent(t, r)

	// The item can go out again once it is back.
	_, err = r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob"})
	require.NoError(t, err)
	assertStatusConsistent(t, r)
}

func TestStartBorrowDefaultsToSevenDays(t *testing.T) {
	r, _ := newTestRepo(t)
	f := seed(t, r)

	rec, err := r.StartBorrow(context.Background(), BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"})
	require.NoError(t, err)
	assert.True(t, rec.ExpectedReturn.Equal(t0.AddDate(0, 0, models.DefaultLoanDays)))
}

func TestStartBorrowRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, r *Repo, f fixture) BorrowInput
		wantErr error
		wantMsg string
	}{
		{
			name: "unknown equipment",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				return BorrowInput{EquipmentID: 999, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"}
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "unknown department",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				return BorrowInput{EquipmentID: f.projector.ID, DepartmentID: 999, BorrowedBy: "Alice"}
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "missing borrower",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				return BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "  "}
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "negative duration",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				return BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice", DurationDays: -1}
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "in maintenance",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				st := string(models.StatusMaintenance)
				_, err := r.UpdateEquipment(context.Background(), f.projector.ID, EquipmentUpdate{Status: &st})
				require.NoError(t, err)
				return BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"}
			},
			wantErr: models.ErrConflict,
			wantMsg: "status: maintenance",
		},
		{
			name: "retired",
			prepare: func(t *testing.T, r *Repo, f fixture) BorrowInput {
				st := string(models.StatusRetired)
				_, err := r.UpdateEquipment(context.Background(), f.projector.ID, EquipmentUpdate{Status: &st})
				require.NoError(t, err)
				return BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"}
			},
			wantErr: models.ErrConflict,
			wantMsg: "status: retired",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRepo(t)
			f := seed(t, r)
			in := tt.prepare(t, r, f)
			before := equipmentStatus(t, r, f.projector.ID)

			_, err := r.StartBorrow(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}

			var n int64
			require.NoError(t, r.DB.Model(&models.BorrowingRecord{}).Count(&n).Error)
			assert.Zero(t, n, "a rejected borrow writes nothing")
			assert.Equal(t, before, equipmentStatus(t, r, f.projector.ID))
		})
	}
}

func TestConcurrentBorrowsOnlyOneWins(t *testing.T) {
	r, _ := newTestRepo(t)
	f := seed(t, r)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.StartBorrow(context.Background(), BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "racer"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, models.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
	assertStatusConsistent(t, r)
}

func TestForcedAvailableStillBlocksSecondOpenRecord(t *testing.T) {
	r, _ := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	_, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"})
	require.NoError(t, err)

	// Administrative edits may force any status, even mid-borrow.
	st := string(models.StatusAvailable)
	_, err = r.UpdateEquipment(ctx, f.projector.ID, EquipmentUpdate{Status: &st})
	require.NoError(t, err)

	_, err = r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob"})
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "open borrowing record")

	var open int64
	require.NoError(t, r.DB.Model(&models.BorrowingRecord{}).Where("return_date IS NULL").Count(&open).Error)
	assert.Equal(t, int64(1), open)
	assert.Equal(t, models.StatusAvailable, equipmentStatus(t, r, f.projector.ID), "failed borrow is rolled back")
}

func TestCompleteReturnTwiceIsRejected(t *testing.T) {
	r, clock := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	rec, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	first, err := r.CompleteReturn(ctx, rec.ID, "ok")
	require.NoError(t, err)

	// Someone else borrows it in the meantime; a stale second return must
	// not release the new loan.
	_, err = r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = r.CompleteReturn(ctx, rec.ID, "again")
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "already returned")

	again, err := r.FindBorrowingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, again.ReturnDate.Equal(*first.ReturnDate), "return_date is never rewritten")
	assert.Equal(t, "ok", again.Notes)
	assert.Equal(t, models.StatusBorrowed, equipmentStatus(t, r, f.projector.ID))
	assertStatusConsistent(t, r)
}

func TestCompleteReturnUnknownRecord(t *testing.T) {
	r, _ := newTestRepo(t)
	_, err := r.CompleteReturn(context.Background(), 42, "")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestComputeOverdueFollowsTheClock(t *testing.T) {
	r, clock := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	rec, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice", DurationDays: 3})
	require.NoError(t, err)

	overdue, err := r.ComputeOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	clock.Advance(3 * 24 * time.Hour)
	overdue, err = r.ComputeOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue, "due exactly now is not overdue yet")

	clock.Advance(24 * time.Hour)
	overdue, err = r.ComputeOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, rec.ID, overdue[0].ID)
	assert.Equal(t, models.BorrowingOpen, overdue[0].Status, "overdue is never stored")

	// Moving the clock back takes it out again without any write.
	clock.Advance(-2 * 24 * time.Hour)
	overdue, err = r.ComputeOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	clock.Advance(10 * 24 * time.Hour)
	_, err = r.CompleteReturn(ctx, rec.ID, "late")
	require.NoError(t, err)
	overdue, err = r.ComputeOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue, "returned records are never overdue")
}

func TestListBorrowingsFiltersAndOrder(t *testing.T) {
	r, clock := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	second, err := r.CreateEquipment(ctx, NewEquipmentInput{Name: "BenQ MW560", Code: "PRJ-02", CategoryID: f.category.ID})
	require.NoError(t, err)

	r1, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice", DurationDays: 1})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	r2, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: second.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob", DurationDays: 14})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = r.CompleteReturn(ctx, r1.ID, "")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	r3, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Carol", DurationDays: 1})
	require.NoError(t, err)

	ids := func(ls []models.BorrowingRecord) []uint {
		out := make([]uint, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.ID)
		}
		return out
	}

	all, err := r.ListBorrowings(ctx, BorrowingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID, r2.ID, r1.ID}, ids(all), "newest borrowed_date first")
	require.NotNil(t, all[0].Equipment)
	assert.Equal(t, "PRJ-01", all[0].Equipment.Code)
	require.NotNil(t, all[0].Department)
	assert.Equal(t, "Science", all[0].Department.Name)

	open, err := r.ListBorrowings(ctx, BorrowingFilter{Status: string(models.BorrowingOpen)})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID, r2.ID}, ids(open))

	returned, err := r.ListBorrowings(ctx, BorrowingFilter{Status: string(models.BorrowingReturned)})
	require.NoError(t, err)
	assert.Equal(t, []uint{r1.ID}, ids(returned))

	science, err := r.ListBorrowings(ctx, BorrowingFilter{DepartmentID: f.deptA.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID, r1.ID}, ids(science))

	clock.Advance(2 * 24 * time.Hour)
	late, err := r.ListBorrowings(ctx, BorrowingFilter{Status: models.DisplayOverdue})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID}, ids(late))
}

func TestBorrowingsSequenceIsRestartable(t *testing.T) {
	r, clock := newTestRepo(t)
	f := seed(t, r)
	ctx := context.Background()

	first, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptA.ID, BorrowedBy: "Alice"})
	require.NoError(t, err)

	seq := r.Borrowings(ctx, BorrowingFilter{})
	collect := func() []uint {
		var out []uint
		for l, err := range seq {
			require.NoError(t, err)
			out = append(out, l.ID)
		}
		return out
	}
	assert.Equal(t, []uint{first.ID}, collect())

	clock.Advance(time.Hour)
	_, err = r.CompleteReturn(ctx, first.ID, "")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	second, err := r.StartBorrow(ctx, BorrowInput{EquipmentID: f.projector.ID, DepartmentID: f.deptB.ID, BorrowedBy: "Bob"})
	require.NoError(t, err)

	// Ranging again sees the current state.
	assert.Equal(t, []uint{second.ID, first.ID}, collect())

	// Stopping early is fine.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
