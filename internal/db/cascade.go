package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/models"
)

// DeleteWeeks removes the given weeks together with their timetable entries
// and group tags, children first. Call it inside a transaction.
func DeleteWeeks(tx *gorm.DB, weekIDs []uint) error {
	if len(weekIDs) == 0 {
		return nil
	}

	var entryIDs []uint
	if err := tx.Model(&models.TimetableEntry{}).
		Where("week_id IN ?", weekIDs).
		Pluck("id", &entryIDs).Error; err != nil {
		return fmt.Errorf("list timetable entries: %w", err)
	}

	if len(entryIDs) > 0 {
		if err := tx.Where("timetable_entry_id IN ?", entryIDs).Delete(&models.GroupTag{}).Error; err != nil {
			return fmt.Errorf("delete group tags: %w", err)
		}
		if err := tx.Where("id IN ?", entryIDs).Delete(&models.TimetableEntry{}).Error; err != nil {
			return fmt.Errorf("delete timetable entries: %w", err)
		}
	}

	if err := tx.Where("id IN ?", weekIDs).Delete(&models.Week{}).Error; err != nil {
		return fmt.Errorf("delete weeks: %w", err)
	}
	return nil
}

// DeleteClass removes a class and every row that references it: memberships,
// teacher colors, invitations, weeks and, through the weeks, their entries and
// tags. Call it inside a transaction so a failure leaves no orphans.
func DeleteClass(tx *gorm.DB, classID uint) error {
	if err := tx.Where("class_id = ?", classID).Delete(&models.Membership{}).Error; err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := tx.Where("class_id = ?", classID).Delete(&models.TeacherColor{}).Error; err != nil {
		return fmt.Errorf("delete teacher colors: %w", err)
	}
	if err := tx.Where("class_id = ?", classID).Delete(&models.Invitation{}).Error; err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}

	var weekIDs []uint
	if err := tx.Model(&models.Week{}).Where("class_id = ?", classID).Pluck("id", &weekIDs).Error; err != nil {
		return fmt.Errorf("list weeks: %w", err)
	}
	if err := DeleteWeeks(tx, weekIDs); err != nil {
		return err
	}

	if err := tx.Delete(&models.Class{}, classID).Error; err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
