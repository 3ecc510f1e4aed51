package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/db"
	"github.com/in-nis/classplan/internal/models"
	"github.com/in-nis/classplan/internal/timetable"
)

type ImportResult struct {
	WeekID  uint `json:"week_id"`
	Entries int  `json:"entries"`
	Tags    int  `json:"tags"`
}

// loadWeek fetches a week and checks that the user belongs to its class.
func loadWeek(tx *gorm.DB, userID, weekID uint) (*models.Week, error) {
	var week models.Week
	if err := tx.First(&week, weekID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "week %d", weekID)
		}
		return nil, storageErr(err, "load week")
	}
	if _, err := requireRole(tx, userID, week.ClassID); err != nil {
		return nil, err
	}
	return &week, nil
}

func (s *Service) ListWeeks(ctx context.Context, user *models.User, classID uint) ([]models.Week, error) {
	tx := s.db.WithContext(ctx)
	if _, err := requireRole(tx, user.ID, classID); err != nil {
		return nil, err
	}

	weeks := []models.Week{}
	if err := tx.Where("class_id = ?", classID).Order("id").Find(&weeks).Error; err != nil {
		return nil, storageErr(err, "list weeks")
	}
	return weeks, nil
}

// CreateWeek adds an empty week.
func (s *Service) CreateWeek(ctx context.Context, user *models.User, classID uint, title string) (*models.Week, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	week := &models.Week{ClassID: classID, Title: title}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID); err != nil {
			return err
		}
		return storageErr(tx.Create(week).Error, "create week")
	})
	if err != nil {
		return nil, err
	}
	return week, nil
}

func (s *Service) RenameWeek(ctx context.Context, user *models.User, weekID uint, title string) (*models.Week, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	var week *models.Week
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		week, err = loadWeek(tx, user.ID, weekID)
		if err != nil {
			return err
		}
		week.Title = title
		return storageErr(tx.Model(week).Update("title", title).Error, "rename week")
	})
	if err != nil {
		return nil, err
	}
	return week, nil
}

// DeleteWeek removes the week with its entries and their group tags.
func (s *Service) DeleteWeek(ctx context.Context, user *models.User, weekID uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := loadWeek(tx, user.ID, weekID); err != nil {
			return err
		}
		return storageErr(db.DeleteWeeks(tx, []uint{weekID}), "delete week")
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"week_id": weekID, "user_id": user.ID}).Info("Week deleted")
	return nil
}

// ImportWeek validates tree and materializes it as a new week of the class.
func (s *Service) ImportWeek(ctx context.Context, user *models.User, classID uint, title string, tree timetable.Tree) (*ImportResult, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	slots, err := timetable.Flatten(tree)
	if err != nil {
		var verr *timetable.ValidationError
		if errors.As(err, &verr) {
			return nil, apperr.New(apperr.InvalidTimetable, "%s", verr.Error())
		}
		return nil, apperr.Wrap(apperr.InvalidTimetable, err, "")
	}

	result := &ImportResult{}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID); err != nil {
			return err
		}

		week := models.Week{ClassID: classID, Title: title}
		if err := tx.Create(&week).Error; err != nil {
			return storageErr(err, "create week")
		}
		result.WeekID = week.ID

		if len(slots) == 0 {
			return nil
		}

		entries := make([]models.TimetableEntry, 0, len(slots))
		for _, slot := range slots {
			entry := models.TimetableEntry{
				WeekID:    week.ID,
				Day:       string(slot.Day),
				Hour:      slot.Hour,
				StartTime: slot.Lesson.StartTime,
				EndTime:   slot.Lesson.EndTime,
				Subject:   slot.Lesson.Subject,
				Teacher:   slot.Lesson.Teacher,
				Room:      slot.Lesson.Room,
			}
			for _, g := range slot.Lesson.Specialization {
				entry.Groups = append(entry.Groups, models.GroupTag{GroupNumber: g})
			}
			result.Tags += len(entry.Groups)
			entries = append(entries, entry)
		}
		result.Entries = len(entries)

		return storageErr(tx.Create(&entries).Error, "create timetable entries")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"class_id": classID,
		"week_id":  result.WeekID,
		"entries":  result.Entries,
		"tags":     result.Tags,
	}).Info("Timetable imported")
	return result, nil
}
