package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	conn, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func seedWeek(t *testing.T, conn *gorm.DB, classID uint, title string, entries int) models.Week {
	week := models.Week{ClassID: classID, Title: title}
	require.NoError(t, conn.Create(&week).Error)
	for i := 0; i < entries; i++ {
		entry := models.TimetableEntry{
			WeekID:  week.ID,
			Day:     "monday",
			Hour:    i + 1,
			Subject: "Math",
			Groups:  []models.GroupTag{{GroupNumber: 1}, {GroupNumber: 2}},
		}
		require.NoError(t, conn.Create(&entry).Error)
	}
	return week
}

func count(t *testing.T, conn *gorm.DB, model any, query string, args ...any) int64 {
	var n int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestDeleteClassRemovesEverything(t *testing.T) {
	conn := setupTestDB(t)

	class := models.Class{OwnerID: 1, Title: "10A"}
	require.NoError(t, conn.Create(&class).Error)
	other := models.Class{OwnerID: 1, Title: "10B"}
	require.NoError(t, conn.Create(&other).Error)

	require.NoError(t, conn.Create(&models.Membership{UserID: 1, ClassID: class.ID, Role: models.RoleOwner}).Error)
	require.NoError(t, conn.Create(&models.TeacherColor{ClassID: class.ID, Teacher: "MUE", Color: "#ff0000"}).Error)
	require.NoError(t, conn.Create(&models.Invitation{Code: "ABCDEF", CreatedBy: 1, ClassID: class.ID, ExpiresAt: models.NeverExpires}).Error)
	w1 := seedWeek(t, conn, class.ID, "KW10", 5)
	w2 := seedWeek(t, conn, class.ID, "KW11", 5)
	kept := seedWeek(t, conn, other.ID, "KW10", 2)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return DeleteClass(tx, class.ID)
	}))

	assert.Zero(t, count(t, conn, &models.Class{}, "id = ?", class.ID))
	assert.Zero(t, count(t, conn, &models.Membership{}, "class_id = ?", class.ID))
	assert.Zero(t, count(t, conn, &models.TeacherColor{}, "class_id = ?", class.ID))
	assert.Zero(t, count(t, conn, &models.Invitation{}, "class_id = ?", class.ID))
	assert.Zero(t, count(t, conn, &models.Week{}, "class_id = ?", class.ID))
	assert.Zero(t, count(t, conn, &models.TimetableEntry{}, "week_id IN ?", []uint{w1.ID, w2.ID}))

	// Only the other class's tags survive: 2 entries × 2 tags.
	assert.Equal(t, int64(4), count(t, conn, &models.GroupTag{}, "1 = 1"))
	assert.Equal(t, int64(2), count(t, conn, &models.TimetableEntry{}, "week_id = ?", kept.ID))
}

func TestDeleteWeeksEmpty(t *testing.T) {
	conn := setupTestDB(t)
	assert.NoError(t, DeleteWeeks(conn, nil))
}
