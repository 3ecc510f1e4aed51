package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/metrics"
	"github.com/in-nis/classplan/internal/models"
	"github.com/in-nis/classplan/internal/timetable"
)

// importWithNotes imports tree and then sets the notes given per subject.
func importWithNotes(t *testing.T, s *Service, user *models.User, classID uint, title string, tree timetable.Tree, notes map[string]string) uint {
	t.Helper()
	ctx := context.Background()
	res, err := s.ImportWeek(ctx, user, classID, title, tree)
	require.NoError(t, err)

	view, err := s.GetTimetable(ctx, user, res.WeekID, nil)
	require.NoError(t, err)
	for _, e := range view.Entries {
		if n, ok := notes[e.Subject]; ok {
			_, err := s.UpdateLessonNotes(ctx, user, e.ID, n)
			require.NoError(t, err)
		}
	}
	return res.WeekID
}

func weekNotes(t *testing.T, s *Service, user *models.User, weekID uint) map[string]string {
	t.Helper()
	view, err := s.GetTimetable(context.Background(), user, weekID, nil)
	require.NoError(t, err)
	out := make(map[string]string)
	for _, e := range view.Entries {
		out[e.Subject] = e.Notes
	}
	return out
}

func mondayLesson(subject string, groups ...int) timetable.Lesson {
	return timetable.Lesson{Subject: subject, Teacher: "MUE", Room: "A1", Specialization: groups}
}

func TestCopyNotes(t *testing.T) {
	m := metrics.New()
	s, _ := setupService(t, WithMetrics(m))
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	kw10 := importWithNotes(t, s, owner, class.ID, "KW10", timetable.Tree{
		"monday": {"1": {mondayLesson("Mathe", 1)}},
	}, nil)
	kw11 := importWithNotes(t, s, owner, class.ID, "KW11", timetable.Tree{
		"monday": {"1": {mondayLesson("Mathe", 1)}},
	}, map[string]string{"Mathe": "Testklausur"})

	updated, err := s.CopyNotes(ctx, owner, kw10, kw11, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, map[string]string{"Mathe": "Testklausur"}, weekNotes(t, s, owner, kw10))

	// Nothing left to copy.
	updated, err = s.CopyNotes(ctx, owner, kw10, kw11, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestCopyNotesMatching(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	source := importWithNotes(t, s, owner, class.ID, "KW11", timetable.Tree{
		"monday": {
			"1": {mondayLesson("Mathe", 1)},
			"2": {mondayLesson("Englisch", 2)},
			"3": {mondayLesson("Franz", 3)},
			"4": {mondayLesson("Physik", 1)},
			"5": {mondayLesson("Chemie", 1)},
		},
	}, map[string]string{
		"Mathe":    "Testklausur",
		"Englisch": "Vokabeltest",
		"Franz":    "Referat",
		"Physik":   "Versuch",
		"Chemie":   "  ",
	})
	target := importWithNotes(t, s, owner, class.ID, "KW10", timetable.Tree{
		"monday": {
			"1": {mondayLesson("Mathe", 1)},
			"2": {mondayLesson("Englisch", 2)},
			"3": {mondayLesson("Franz", 3)},
			"4": {mondayLesson("Physik", 1)},
			"5": {mondayLesson("Chemie", 1)},
		},
	}, map[string]string{"Physik": "eigene Notiz"})

	// Group 2 sees tags 1 and 2, never 3. Existing notes stay.
	updated, err := s.CopyNotes(ctx, owner, target, source, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, map[string]string{
		"Mathe":    "Testklausur",
		"Englisch": "Vokabeltest",
		"Franz":    "",
		"Physik":   "eigene Notiz",
		"Chemie":   "",
	}, weekNotes(t, s, owner, target))
}

func TestCopyNotesSlotMustMatch(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	source := importWithNotes(t, s, owner, class.ID, "KW11", timetable.Tree{
		"monday": {"1": {mondayLesson("Mathe", 1)}},
	}, map[string]string{"Mathe": "Testklausur"})

	moved := timetable.Lesson{Subject: "Mathe", Teacher: "MUE", Room: "B7", Specialization: []int{1}}
	target := importWithNotes(t, s, owner, class.ID, "KW10", timetable.Tree{
		"monday":  {"1": {moved}, "2": {mondayLesson("Mathe", 1)}},
		"tuesday": {"1": {mondayLesson("Mathe", 1)}},
	}, nil)

	updated, err := s.CopyNotes(ctx, owner, target, source, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestPlanNotesTieBreak(t *testing.T) {
	entry := func(id uint, notes string, groups ...int) models.TimetableEntry {
		e := models.TimetableEntry{ID: id, Day: "monday", Hour: 1, Subject: "Mathe", Teacher: "MUE", Room: "A1", Notes: notes}
		for _, g := range groups {
			e.Groups = append(e.Groups, models.GroupTag{GroupNumber: g})
		}
		return e
	}

	sources := []models.TimetableEntry{entry(1, "erste", 1), entry(2, "zweite", 1), entry(3, "dritte", 1)}
	targets := []models.TimetableEntry{entry(10, ""), entry(11, "belegt"), entry(12, "")}

	patches := planNotes(sources, targets, 1)
	assert.Equal(t, []notePatch{
		{targetID: 10, notes: "erste"},
		{targetID: 12, notes: "zweite"},
	}, patches)

	assert.Empty(t, planNotes(sources, targets, 4))
	assert.Empty(t, planNotes(nil, targets, 1))
}

func TestTransferNotes(t *testing.T) {
	s, conn := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	member := newUser(t, s, "ben")
	class := newClass(t, s, owner, "10A")
	join(t, s, owner, member, class.ID)

	tree := timetable.Tree{"monday": {
		"1": {mondayLesson("Mathe", 1)},
		"2": {mondayLesson("Englisch", 2)},
		"3": {mondayLesson("Physik", 1)},
	}}
	source := importWithNotes(t, s, owner, class.ID, "KW11", tree, map[string]string{
		"Mathe":    "Testklausur",
		"Englisch": "Vokabeltest",
		"Physik":   "Versuch",
	})
	target := importWithNotes(t, s, owner, class.ID, "KW10", tree, map[string]string{"Physik": "eigene Notiz"})

	n, err := s.TransferPreview(ctx, member, source, target, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1), countRows(t, conn, &models.TimetableEntry{}, "week_id = ? AND notes <> ''", target))

	res, err := s.TransferNotes(ctx, member, source, target, 1)
	require.NoError(t, err)
	assert.Equal(t, &TransferResult{Updated: 2, Remaining: 0}, res)
	assert.Equal(t, map[string]string{
		"Mathe":    "Testklausur",
		"Englisch": "Vokabeltest",
		"Physik":   "eigene Notiz",
	}, weekNotes(t, s, owner, target))

	n, err = s.TransferPreview(ctx, member, source, target, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTransferNotesErrors(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	outsider := newUser(t, s, "ben")
	a := newClass(t, s, owner, "10A")
	b := newClass(t, s, owner, "10B")

	weekA, err := s.CreateWeek(ctx, owner, a.ID, "KW10")
	require.NoError(t, err)
	weekA2, err := s.CreateWeek(ctx, owner, a.ID, "KW11")
	require.NoError(t, err)
	weekB, err := s.CreateWeek(ctx, owner, b.ID, "KW10")
	require.NoError(t, err)

	_, err = s.TransferNotes(ctx, owner, weekA.ID, weekB.ID, 1)
	assertKind(t, err, apperr.WeeksNotInSameClass)
	_, err = s.TransferPreview(ctx, owner, weekA.ID, weekB.ID, 1)
	assertKind(t, err, apperr.WeeksNotInSameClass)
	_, err = s.CopyNotes(ctx, owner, weekB.ID, weekA.ID, 1)
	assertKind(t, err, apperr.WeeksNotInSameClass)

	_, err = s.TransferNotes(ctx, owner, weekA.ID, weekA.ID, 1)
	assertKind(t, err, apperr.InvalidInput)
	_, err = s.TransferNotes(ctx, owner, weekA.ID, 9999, 1)
	assertKind(t, err, apperr.NotFound)
	_, err = s.TransferNotes(ctx, outsider, weekA.ID, weekA2.ID, 1)
	assertKind(t, err, apperr.Forbidden)
}

func TestListWeeksForNotesImport(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	owner := newUser(t, s, "anna")
	class := newClass(t, s, owner, "10A")

	tree := timetable.Tree{"monday": {
		"1": {mondayLesson("Mathe", 1)},
		"2": {mondayLesson("Englisch", 2)},
		"3": {mondayLesson("Franz", 3)},
	}}
	current := importWithNotes(t, s, owner, class.ID, "KW12", tree, map[string]string{"Mathe": "eigene"})
	kw10 := importWithNotes(t, s, owner, class.ID, "KW10", tree, map[string]string{"Mathe": "a", "Englisch": "b", "Franz": "c"})
	_ = importWithNotes(t, s, owner, class.ID, "KW11", tree, nil)
	kw09 := importWithNotes(t, s, owner, class.ID, "KW09", tree, map[string]string{"Franz": "c"})

	sources, err := s.ListWeeksForNotesImport(ctx, owner, current, 2)
	require.NoError(t, err)
	assert.Equal(t, []NotesSource{{WeekID: kw10, Title: "KW10", Count: 2}}, sources)

	sources, err = s.ListWeeksForNotesImport(ctx, owner, current, 1)
	require.NoError(t, err)
	assert.Equal(t, []NotesSource{
		{WeekID: kw10, Title: "KW10", Count: 3},
		{WeekID: kw09, Title: "KW09", Count: 1},
	}, sources)

	sources, err = s.ListWeeksForNotesImport(ctx, owner, kw09, 4)
	require.NoError(t, err)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}
