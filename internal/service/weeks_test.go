package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
	"github.com/in-nis/classplan/internal/timetable"
)

const sampleWeek = `{
	"tuesday": {
		"1": [{"subject": "Deutsch", "teacher": "MUE", "room": "A1", "specialization": 1}]
	},
	"monday": {
		"2": [
			{"subject": "Englisch", "teacher": "SCH", "room": "B2", "specialization": 2},
			{"subject": "Franz", "teacher": "LEH", "room": "B3", "specialization": 3}
		],
		"1": [{"subject": "Mathe", "teacher": "MUE", "room": "A1", "start_time": "08:00", "end_time": "08:45", "specialization": [1]}]
	},
	"friday": {
		"3": [{"subject": "Sport", "teacher": "BEC", "room": "Halle", "specialization": [2, 3]}]
	}
}`

func parseTree(t *testing.T, raw string) timetable.Tree {
	t.Helper()
	var tree timetable.Tree
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))
	return tree
}

func subjects(entries []models.TimetableEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Subject)
	}
	return out
}

func TestImportWeek(t *testing.T) {
	s, conn := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	res, err := s.ImportWeek(ctx, owner, class.ID, "KW10", parseTree(t, sampleWeek))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Entries)
	assert.Equal(t, 6, res.Tags)
	assert.Equal(t, int64(5), countRows(t, conn, &models.TimetableEntry{}, "week_id = ?", res.WeekID))

	view, err := s.GetTimetable(ctx, owner, res.WeekID, nil)
	require.NoError(t, err)
	assert.Equal(t, "KW10", view.Week.Title)
	assert.Equal(t, []string{"Mathe", "Englisch", "Franz", "Deutsch", "Sport"}, subjects(view.Entries))

	first := view.Entries[0]
	assert.Equal(t, "monday", first.Day)
	assert.Equal(t, 1, first.Hour)
	assert.Equal(t, "08:00", first.StartTime)
	assert.Equal(t, "08:45", first.EndTime)
	assert.Equal(t, []int{2, 3}, view.Entries[4].GroupNumbers())

	weeks, err := s.ListWeeks(ctx, owner, class.ID)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, res.WeekID, weeks[0].ID)
}

func TestImportWeekRejectsInvalidTree(t *testing.T) {
	s, conn := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	tests := map[string]string{
		"unknown day":    `{"caturday": {"1": [{"subject": "Mathe"}]}}`,
		"bad hour":       `{"monday": {"first": [{"subject": "Mathe"}]}}`,
		"hour range":     `{"monday": {"0": [{"subject": "Mathe"}]}}`,
		"bad time":       `{"monday": {"1": [{"subject": "Mathe", "start_time": "8 Uhr"}]}}`,
		"negative group": `{"monday": {"1": [{"subject": "Mathe", "specialization": [-1]}]}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.ImportWeek(ctx, owner, class.ID, "KW10", parseTree(t, raw))
			assertKind(t, err, apperr.InvalidTimetable)
		})
	}
	assert.Equal(t, int64(0), countRows(t, conn, &models.Week{}, "class_id = ?", class.ID))

	_, err := s.ImportWeek(ctx, owner, class.ID, " ", parseTree(t, sampleWeek))
	assertKind(t, err, apperr.InvalidTitle)

	outsider := newUser(t, s, "ben")
	_, err = s.ImportWeek(ctx, outsider, class.ID, "KW10", parseTree(t, sampleWeek))
	assertKind(t, err, apperr.Forbidden)
}

func TestGetTimetableGroupFilter(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	res, err := s.ImportWeek(ctx, owner, class.ID, "KW10", parseTree(t, sampleWeek))
	require.NoError(t, err)

	group := func(g int) []string {
		view, err := s.GetTimetable(ctx, owner, res.WeekID, &g)
		require.NoError(t, err)
		return subjects(view.Entries)
	}

	assert.Equal(t, []string{"Mathe", "Englisch", "Franz", "Deutsch", "Sport"}, group(1))
	assert.Equal(t, []string{"Mathe", "Englisch", "Deutsch", "Sport"}, group(2))
	assert.Equal(t, []string{"Mathe", "Franz", "Deutsch", "Sport"}, group(3))
	assert.Empty(t, group(4))
}

func TestWeekLifecycle(t *testing.T) {
	s, conn := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	member := newUser(t, s, "ben")
	outsider := newUser(t, s, "carl")
	class := newClass(t, s, owner, "10A")
	join(t, s, owner, member, class.ID)

	week, err := s.CreateWeek(ctx, member, class.ID, " KW11 ")
	require.NoError(t, err)
	assert.Equal(t, "KW11", week.Title)

	renamed, err := s.RenameWeek(ctx, member, week.ID, "KW12")
	require.NoError(t, err)
	assert.Equal(t, "KW12", renamed.Title)

	_, err = s.RenameWeek(ctx, outsider, week.ID, "KW13")
	assertKind(t, err, apperr.Forbidden)
	_, err = s.GetTimetable(ctx, outsider, week.ID, nil)
	assertKind(t, err, apperr.Forbidden)

	empty, err := s.GetTimetable(ctx, member, week.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty.Entries)
	assert.Empty(t, empty.Entries)

	imported, err := s.ImportWeek(ctx, owner, class.ID, "KW13", parseTree(t, sampleWeek))
	require.NoError(t, err)

	require.NoError(t, s.DeleteWeek(ctx, member, imported.WeekID))
	assert.Equal(t, int64(0), countRows(t, conn, &models.TimetableEntry{}, "week_id = ?", imported.WeekID))
	assert.Equal(t, int64(0), countRows(t, conn, &models.GroupTag{}, "1 = 1"))

	err = s.DeleteWeek(ctx, member, imported.WeekID)
	assertKind(t, err, apperr.NotFound)
}

func TestUpdateLessonNotes(t *testing.T) {
	s, conn := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	outsider := newUser(t, s, "ben")
	class := newClass(t, s, owner, "10A")

	res, err := s.ImportWeek(ctx, owner, class.ID, "KW10", parseTree(t, sampleWeek))
	require.NoError(t, err)
	view, err := s.GetTimetable(ctx, owner, res.WeekID, nil)
	require.NoError(t, err)
	entry := view.Entries[0]

	updated, err := s.UpdateLessonNotes(ctx, owner, entry.ID, "  Hausaufgabe S. 12 ")
	require.NoError(t, err)
	assert.Equal(t, "Hausaufgabe S. 12", updated.Notes)
	assert.Equal(t, []int{1}, updated.GroupNumbers())

	var stored models.TimetableEntry
	require.NoError(t, conn.First(&stored, entry.ID).Error)
	assert.Equal(t, "Hausaufgabe S. 12", stored.Notes)
	assert.Equal(t, int64(1), countRows(t, conn, &models.GroupTag{}, "timetable_entry_id = ?", entry.ID))

	_, err = s.UpdateLessonNotes(ctx, owner, entry.ID, strings.Repeat("x", maxNotesLength+1))
	assertKind(t, err, apperr.InvalidInput)
	_, err = s.UpdateLessonNotes(ctx, outsider, entry.ID, "nope")
	assertKind(t, err, apperr.Forbidden)
	_, err = s.UpdateLessonNotes(ctx, owner, 9999, "nope")
	assertKind(t, err, apperr.NotFound)

	cleared, err := s.UpdateLessonNotes(ctx, owner, entry.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.Notes)
}
