package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
	"github.com/in-nis/classplan/internal/timetable"
)

const maxNotesLength = 2000

type TimetableView struct {
	Week    models.Week             `json:"week"`
	Entries []models.TimetableEntry `json:"entries"`
}

func loadEntries(tx *gorm.DB, weekID uint) ([]models.TimetableEntry, error) {
	var entries []models.TimetableEntry
	err := tx.Preload("Groups", func(q *gorm.DB) *gorm.DB { return q.Order("group_number") }).
		Where("week_id = ?", weekID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, storageErr(err, "load timetable entries")
	}
	return entries, nil
}

// GetTimetable returns the week's entries ordered by day and hour. A non-nil
// group restricts the result to entries tagged for the expanded group set.
func (s *Service) GetTimetable(ctx context.Context, user *models.User, weekID uint, group *int) (*TimetableView, error) {
	tx := s.db.WithContext(ctx)
	week, err := loadWeek(tx, user.ID, weekID)
	if err != nil {
		return nil, err
	}

	entries, err := loadEntries(tx, weekID)
	if err != nil {
		return nil, err
	}

	if group != nil {
		expanded := timetable.Expand(*group)
		filtered := entries[:0]
		for _, e := range entries {
			if timetable.Intersects(e.GroupNumbers(), expanded) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := timetable.Day(entries[i].Day).Index(), timetable.Day(entries[j].Day).Index()
		if di != dj {
			return di < dj
		}
		return entries[i].Hour < entries[j].Hour
	})

	if entries == nil {
		entries = []models.TimetableEntry{}
	}
	return &TimetableView{Week: *week, Entries: entries}, nil
}

// UpdateLessonNotes sets the free-text notes of one entry. Blank notes clear it.
func (s *Service) UpdateLessonNotes(ctx context.Context, user *models.User, entryID uint, notes string) (*models.TimetableEntry, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, apperr.New(apperr.InvalidInput, "notes must be at most %d characters", maxNotesLength)
	}

	var entry models.TimetableEntry
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Preload("Groups").First(&entry, entryID).Error; err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "lesson %d", entryID)
			}
			return storageErr(err, "load lesson")
		}
		if _, err := loadWeek(tx, user.ID, entry.WeekID); err != nil {
			return err
		}
		entry.Notes = notes
		return storageErr(setNotes(tx, entry.ID, notes), "update notes")
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
