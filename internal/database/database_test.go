package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *DB, service, date, clock string) *models.Booking {
	t.Helper()
	b := &models.Booking{Name: "Ada", Service: service, Date: date, Time: clock, Duration: 60}
	_, err := db.InsertBooking(context.Background(), b)
	require.NoError(t, err)
	return b
}

func TestInsertBooking_AssignsIDAndTimestamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := &models.Booking{
		Name:     "Ada",
		Service:  "Audio Engineering",
		Date:     "2024-06-01",
		Time:     "10:00",
		Duration: 90,
		Notes:    "bring stems",
	}
	id, err := db.InsertBooking(ctx, b)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := db.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.Service, got.Service)
	assert.Equal(t, b.Date, got.Date)
	assert.Equal(t, b.Time, got.Time)
	assert.Equal(t, 90, got.Duration)
	assert.Equal(t, "bring stems", got.Notes)
	assert.WithinDuration(t, b.CreatedAt, got.CreatedAt, time.Second)

	second := insert(t, db, "Audio Engineering", "2024-06-02", "10:00")
	assert.NotEqual(t, id, second.ID)
}

func TestNewDB_CreatesParentDir(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "data", "bookings.db")

	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.FileExists(t, path)
	assert.Equal(t, path, db.Path())
}

func TestInsertBooking_Nil(t *testing.T) {
	db := newTestDB(t)
	_, err := db.InsertBooking(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidBooking)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBooking(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListBookings_OrderedByDateThenTime(t *testing.T) {
	db := newTestDB(t)

	insert(t, db, "Videography", "2024-06-02", "09:00")
	insert(t, db, "Audio Engineering", "2024-06-01", "15:00")
	insert(t, db, "Videography", "2024-06-01", "08:30")
	insert(t, db, "Audio Engineering", "2024-06-01", "10:00")

	list, err := db.ListBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)

	var got [][2]string
	for _, b := range list {
		got = append(got, [2]string{b.Date, b.Time})
	}
	assert.Equal(t, [][2]string{
		{"2024-06-01", "08:30"},
		{"2024-06-01", "10:00"},
		{"2024-06-01", "15:00"},
		{"2024-06-02", "09:00"},
	}, got)
}

func TestListBookings_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)
	list, err := db.ListBookings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestFindByServiceAndDate(t *testing.T) {
	db := newTestDB(t)

	want := insert(t, db, "Audio Engineering", "2024-06-01", "10:00")
	insert(t, db, "Videography", "2024-06-01", "10:00")
	insert(t, db, "Audio Engineering", "2024-06-02", "10:00")

	got, err := db.FindByServiceAndDate(context.Background(), "Audio Engineering", "2024-06-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
}

func TestDeleteBooking_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := insert(t, db, "Audio Engineering", "2024-06-01", "10:00")
	require.NoError(t, db.DeleteBooking(ctx, b.ID))
	require.NoError(t, db.DeleteBooking(ctx, b.ID))
	require.NoError(t, db.DeleteBooking(ctx, 9999))

	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookingsSurviveReopen(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "durable.db")

	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	b := insert(t, db, "Videography", "2024-06-01", "12:00")
	require.NoError(t, db.Close())

	reopened, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ListBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestBackupAndCleanup(t *testing.T) {
	db := newTestDB(t)
	insert(t, db, "Audio Engineering", "2024-06-01", "10:00")

	dir := t.TempDir()
	dest := filepath.Join(dir, "snapshot.db")
	require.NoError(t, db.Backup(dest))
	assert.Error(t, db.Backup(dest), "existing target must not be overwritten")

	logger := zerolog.Nop()
	snapshot, err := NewDB(dest, &logger)
	require.NoError(t, err)
	list, err := snapshot.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, snapshot.Close())

	old := filepath.Join(dir, "old.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), past, past))

	deleted, err := db.CleanupBackups(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, old)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestBackupService_PerformBackup(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewBackupService(db, BackupConfig{Enabled: true, StoragePath: t.TempDir(), RetentionDays: 7}, &logger)

	path, err := svc.PerformBackup()
	require.NoError(t, err)
	assert.FileExists(t, path)

	svc.CleanupOldBackups()
	assert.FileExists(t, path)
}

func TestGetTableData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	insert(t, db, "Audio Engineering", "2024-06-01", "10:00")
	insert(t, db, "Videography", "2024-05-30", "16:00")

	names, err := db.GetTableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bookings"}, names)

	rows, columns, err := db.GetTableData(ctx, "bookings")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "service", "date", "time", "duration", "notes", "created_at"}, columns)
	require.Len(t, rows, 2)
	assert.EqualValues(t, "Videography", rows[0]["service"])
	assert.EqualValues(t, "Audio Engineering", rows[1]["service"])

	_, _, err = db.GetTableData(ctx, "sqlite_master")
	assert.Error(t, err)
}
