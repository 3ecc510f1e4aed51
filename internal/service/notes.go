package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
	"github.com/in-nis/classplan/internal/timetable"
)

type TransferResult struct {
	Updated   int `json:"updated"`
	Remaining int `json:"remaining"`
}

// NotesSource is a week that has notes worth importing for a group.
type NotesSource struct {
	WeekID uint   `json:"week_id"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

type notePatch struct {
	targetID uint
	notes    string
}

func setNotes(tx *gorm.DB, entryID uint, notes string) error {
	return tx.Model(&models.TimetableEntry{}).Where("id = ?", entryID).Update("notes", notes).Error
}

// planNotes pairs every source entry that has notes and is tagged for the
// group with the first target of the same slot whose notes are empty. Both
// slices are in ascending id order, so among duplicate slots the lowest id
// wins, and a target is never paired twice.
func planNotes(sources, targets []models.TimetableEntry, group int) []notePatch {
	expanded := timetable.Expand(group)
	claimed := make(map[uint]bool)

	var patches []notePatch
	for _, src := range sources {
		if !timetable.HasNotes(src) || !timetable.Intersects(src.GroupNumbers(), expanded) {
			continue
		}
		for _, dst := range targets {
			if claimed[dst.ID] || timetable.HasNotes(dst) || !timetable.SameSlot(src, dst) {
				continue
			}
			claimed[dst.ID] = true
			patches = append(patches, notePatch{targetID: dst.ID, notes: src.Notes})
			break
		}
	}
	return patches
}

// loadWeekPair checks both weeks exist, share a class and that the user is a member of it.
func loadWeekPair(tx *gorm.DB, userID, sourceID, targetID uint) error {
	if sourceID == targetID {
		return apperr.New(apperr.InvalidInput, "source and target week are the same")
	}

	var weeks []models.Week
	if err := tx.Where("id IN ?", []uint{sourceID, targetID}).Find(&weeks).Error; err != nil {
		return storageErr(err, "load weeks")
	}
	if len(weeks) != 2 {
		return apperr.New(apperr.NotFound, "week %d or %d", sourceID, targetID)
	}
	if weeks[0].ClassID != weeks[1].ClassID {
		return apperr.E(apperr.WeeksNotInSameClass)
	}
	_, err := requireRole(tx, userID, weeks[0].ClassID)
	return err
}

func (s *Service) planTransfer(tx *gorm.DB, userID, sourceID, targetID uint, group int) ([]notePatch, error) {
	if err := loadWeekPair(tx, userID, sourceID, targetID); err != nil {
		return nil, err
	}
	sources, err := loadEntries(tx, sourceID)
	if err != nil {
		return nil, err
	}
	targets, err := loadEntries(tx, targetID)
	if err != nil {
		return nil, err
	}
	return planNotes(sources, targets, group), nil
}

func applyPatches(tx *gorm.DB, patches []notePatch) error {
	for _, p := range patches {
		if err := setNotes(tx, p.targetID, p.notes); err != nil {
			return storageErr(err, "copy notes")
		}
	}
	return nil
}

// CopyNotes fills empty notes in currentWeekID from matching lessons of
// selectedWeekID and returns how many entries were updated.
func (s *Service) CopyNotes(ctx context.Context, user *models.User, currentWeekID, selectedWeekID uint, group int) (int, error) {
	var updated int
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		patches, err := s.planTransfer(tx, user.ID, selectedWeekID, currentWeekID, group)
		if err != nil {
			return err
		}
		updated = len(patches)
		return applyPatches(tx, patches)
	})
	if err != nil {
		return 0, err
	}

	s.metrics.Event("notes_copied", updated)
	s.logger.WithFields(logrus.Fields{
		"source_week": selectedWeekID,
		"target_week": currentWeekID,
		"group":       group,
		"updated":     updated,
	}).Info("Notes copied")
	return updated, nil
}

// TransferPreview counts what TransferNotes would update without writing.
func (s *Service) TransferPreview(ctx context.Context, user *models.User, sourceWeekID, targetWeekID uint, group int) (int, error) {
	patches, err := s.planTransfer(s.db.WithContext(ctx), user.ID, sourceWeekID, targetWeekID, group)
	if err != nil {
		return 0, err
	}
	return len(patches), nil
}

// TransferNotes writes the transfer and recounts what is still eligible,
// which is zero unless someone changed the weeks concurrently.
func (s *Service) TransferNotes(ctx context.Context, user *models.User, sourceWeekID, targetWeekID uint, group int) (*TransferResult, error) {
	result := &TransferResult{}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		patches, err := s.planTransfer(tx, user.ID, sourceWeekID, targetWeekID, group)
		if err != nil {
			return err
		}
		if err := applyPatches(tx, patches); err != nil {
			return err
		}
		result.Updated = len(patches)

		remaining, err := s.planTransfer(tx, user.ID, sourceWeekID, targetWeekID, group)
		if err != nil {
			return err
		}
		result.Remaining = len(remaining)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Event("notes_copied", result.Updated)
	s.logger.WithFields(logrus.Fields{
		"source_week": sourceWeekID,
		"target_week": targetWeekID,
		"group":       group,
		"updated":     result.Updated,
	}).Info("Notes transferred")
	return result, nil
}

// ListWeeksForNotesImport lists the other weeks of the class that hold notes
// for the group, with how many such lessons each has.
func (s *Service) ListWeeksForNotesImport(ctx context.Context, user *models.User, excludeWeekID uint, group int) ([]NotesSource, error) {
	tx := s.db.WithContext(ctx)
	week, err := loadWeek(tx, user.ID, excludeWeekID)
	if err != nil {
		return nil, err
	}

	var weeks []models.Week
	if err := tx.Where("class_id = ? AND id <> ?", week.ClassID, week.ID).Order("id").Find(&weeks).Error; err != nil {
		return nil, storageErr(err, "list weeks")
	}

	expanded := timetable.Expand(group)
	out := []NotesSource{}
	for _, w := range weeks {
		var entries []models.TimetableEntry
		err := tx.Preload("Groups").
			Where("week_id = ? AND notes IS NOT NULL AND notes <> ''", w.ID).
			Find(&entries).Error
		if err != nil {
			return nil, storageErr(err, "load notes")
		}

		count := 0
		for _, e := range entries {
			if timetable.HasNotes(e) && timetable.Intersects(e.GroupNumbers(), expanded) {
				count++
			}
		}
		if count > 0 {
			out = append(out, NotesSource{WeekID: w.ID, Title: w.Title, Count: count})
		}
	}
	return out, nil
}
