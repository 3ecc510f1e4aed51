package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
)

func findTeacher(sets []TeacherColorSet, teacher string) *TeacherColorSet {
	for i := range sets {
		if sets[i].Teacher == teacher {
			return &sets[i]
		}
	}
	return nil
}

func colorsSetup(t *testing.T) (*Service, *models.User, *models.User, *models.Class) {
	t.Helper()
	s, _ := setupService(t)
	owner := newUser(t, s, "anna")
	member := newUser(t, s, "ben")
	class := newClass(t, s, owner, "10A")
	join(t, s, owner, member, class.ID)
	return s, owner, member, class
}

func TestListTeacherColorsDefaults(t *testing.T) {
	s, _, member, class := colorsSetup(t)

	sets, err := s.ListTeacherColors(context.Background(), member, class.ID)
	require.NoError(t, err)
	require.Len(t, sets, len(defaultColors))
	assert.Equal(t, "BAU", sets[0].Teacher)
	assert.Equal(t, "ZIM", sets[len(sets)-1].Teacher)

	mue := findTeacher(sets, "MUE")
	require.NotNil(t, mue)
	assert.Equal(t, "#e6194b", mue.Color)
	assert.NotNil(t, mue.Subjects)
	assert.Empty(t, mue.Subjects)

	outsider := newUser(t, s, "carl")
	_, err = s.ListTeacherColors(context.Background(), outsider, class.ID)
	assertKind(t, err, apperr.Forbidden)
}

func TestSaveTeacherColorsUpsert(t *testing.T) {
	s, owner, _, class := colorsSetup(t)
	ctx := context.Background()

	sets, err := s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{Teacher: " MUE ", Color: "#ABCDEF", Subjects: []SubjectColorInput{
			{Subject: "Mathe", Color: "#111111"},
			{Subject: "Physik", Color: "#222222"},
		}},
		{Teacher: "NEW", Color: "#010203"},
	})
	require.NoError(t, err)
	require.Len(t, sets, len(defaultColors)+1)

	mue := findTeacher(sets, "MUE")
	require.NotNil(t, mue)
	assert.Equal(t, "#abcdef", mue.Color)
	require.Len(t, mue.Subjects, 2)
	assert.Equal(t, "Mathe", mue.Subjects[0].Subject)
	assert.Equal(t, "#111111", mue.Subjects[0].Color)

	added := findTeacher(sets, "NEW")
	require.NotNil(t, added)
	assert.Equal(t, "#010203", added.Color)

	// Saving again with one subject changed and one dropped.
	sets, err = s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{ID: &mue.ID, Teacher: "MUE", Color: "#abcdef", Subjects: []SubjectColorInput{
			{Subject: "Mathe", Color: "#333333"},
			{Subject: "Chemie", Color: "#444444"},
		}},
	})
	require.NoError(t, err)
	mue2 := findTeacher(sets, "MUE")
	require.NotNil(t, mue2)
	assert.Equal(t, mue.ID, mue2.ID)
	assert.Equal(t, []SubjectColor{
		{ID: mue.Subjects[0].ID, Subject: "Mathe", Color: "#333333"},
		{ID: mue2.Subjects[1].ID, Subject: "Chemie", Color: "#444444"},
	}, mue2.Subjects)
	assert.NotNil(t, findTeacher(sets, "NEW"))
}

func TestSaveTeacherColorsRename(t *testing.T) {
	s, owner, _, class := colorsSetup(t)
	ctx := context.Background()

	sets, err := s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{Teacher: "MUE", Color: "#e6194b", Subjects: []SubjectColorInput{{Subject: "Mathe", Color: "#111111"}}},
	})
	require.NoError(t, err)
	mue := findTeacher(sets, "MUE")
	require.NotNil(t, mue)

	sets, err = s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{ID: &mue.ID, Teacher: "MÜL", Color: "#e6194b", Subjects: []SubjectColorInput{{Subject: "Mathe", Color: "#111111"}}},
	})
	require.NoError(t, err)
	assert.Nil(t, findTeacher(sets, "MUE"))
	renamed := findTeacher(sets, "MÜL")
	require.NotNil(t, renamed)
	assert.Equal(t, mue.ID, renamed.ID)
	assert.Equal(t, mue.Subjects, renamed.Subjects)

	_, err = s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{ID: &renamed.ID, Teacher: "SCH", Color: "#e6194b"},
	})
	assertKind(t, err, apperr.InvalidTeacher)

	missing := uint(9999)
	_, err = s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{ID: &missing, Teacher: "X", Color: "#e6194b"},
	})
	assertKind(t, err, apperr.NotFound)

	// Subject rows cannot be addressed as base rows.
	_, err = s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{ID: &renamed.Subjects[0].ID, Teacher: "MÜL", Color: "#e6194b"},
	})
	assertKind(t, err, apperr.NotFound)
}

func TestSaveTeacherColorsValidation(t *testing.T) {
	s, owner, member, class := colorsSetup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		entries []TeacherColorInput
		want    apperr.Kind
	}{
		{"short color", []TeacherColorInput{{Teacher: "MUE", Color: "#fff"}}, apperr.InvalidColor},
		{"named color", []TeacherColorInput{{Teacher: "MUE", Color: "red"}}, apperr.InvalidColor},
		{"bad subject color", []TeacherColorInput{{Teacher: "MUE", Color: "#ffffff", Subjects: []SubjectColorInput{{Subject: "Mathe", Color: "#ggg000"}}}}, apperr.InvalidColor},
		{"empty teacher", []TeacherColorInput{{Teacher: "  ", Color: "#ffffff"}}, apperr.InvalidTeacher},
		{"empty subject", []TeacherColorInput{{Teacher: "MUE", Color: "#ffffff", Subjects: []SubjectColorInput{{Subject: " ", Color: "#000000"}}}}, apperr.InvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveTeacherColors(ctx, owner, class.ID, tt.entries)
			assertKind(t, err, tt.want)
		})
	}

	_, err := s.SaveTeacherColors(ctx, member, class.ID, []TeacherColorInput{{Teacher: "MUE", Color: "#ffffff"}})
	assertKind(t, err, apperr.Forbidden)

	sets, err := s.ListTeacherColors(ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Equal(t, "#e6194b", findTeacher(sets, "MUE").Color)
}

func TestDeleteAndResetTeacherColors(t *testing.T) {
	s, owner, member, class := colorsSetup(t)
	ctx := context.Background()

	_, err := s.SaveTeacherColors(ctx, owner, class.ID, []TeacherColorInput{
		{Teacher: "MUE", Color: "#000000", Subjects: []SubjectColorInput{{Subject: "Mathe", Color: "#111111"}}},
		{Teacher: "NEW", Color: "#010203"},
	})
	require.NoError(t, err)

	err = s.DeleteTeacherColor(ctx, member, class.ID, "MUE")
	assertKind(t, err, apperr.Forbidden)

	require.NoError(t, s.DeleteTeacherColor(ctx, owner, class.ID, "MUE"))
	sets, err := s.ListTeacherColors(ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Nil(t, findTeacher(sets, "MUE"))
	assert.Len(t, sets, len(defaultColors))

	err = s.DeleteTeacherColor(ctx, owner, class.ID, "MUE")
	assertKind(t, err, apperr.NotFound)

	_, err = s.ResetTeacherColors(ctx, member, class.ID)
	assertKind(t, err, apperr.Forbidden)

	sets, err = s.ResetTeacherColors(ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Len(t, sets, len(defaultColors))
	assert.Nil(t, findTeacher(sets, "NEW"))
	mue := findTeacher(sets, "MUE")
	require.NotNil(t, mue)
	assert.Equal(t, "#e6194b", mue.Color)
	assert.Empty(t, mue.Subjects)
}
