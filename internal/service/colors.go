package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// defaultColors seeds every new class and every reset.
var defaultColors = []struct{ Teacher, Color string }{
	{"MUE", "#e6194b"},
	{"SCH", "#3cb44b"},
	{"WEB", "#ffe119"},
	{"KLE", "#4363d8"},
	{"FIS", "#f58231"},
	{"MEY", "#911eb4"},
	{"WAG", "#46f0f0"},
	{"BEC", "#f032e6"},
	{"HOF", "#bcf60c"},
	{"SCHU", "#fabebe"},
	{"KOC", "#008080"},
	{"RIC", "#e6beff"},
	{"BAU", "#9a6324"},
	{"KLA", "#fffac8"},
	{"WOL", "#800000"},
	{"NEU", "#aaffc3"},
	{"SCHW", "#808000"},
	{"ZIM", "#ffd8b1"},
}

type SubjectColor struct {
	ID      uint   `json:"id"`
	Subject string `json:"subject"`
	Color   string `json:"color"`
}

// TeacherColorSet is a base color with its per-subject overrides.
type TeacherColorSet struct {
	ID       uint           `json:"id"`
	Teacher  string         `json:"teacher"`
	Color    string         `json:"color"`
	Subjects []SubjectColor `json:"subjects"`
}

type SubjectColorInput struct {
	Subject string `json:"subject" binding:"required,max=100"`
	Color   string `json:"color" binding:"required"`
}

type TeacherColorInput struct {
	ID       *uint               `json:"id"`
	Teacher  string              `json:"teacher" binding:"max=50"`
	Color    string              `json:"color"`
	Subjects []SubjectColorInput `json:"subjects" binding:"dive"`
}

func seedDefaultColors(tx *gorm.DB, classID uint) error {
	rows := make([]models.TeacherColor, 0, len(defaultColors))
	for _, d := range defaultColors {
		if d.Teacher == "" || d.Color == "" {
			continue
		}
		rows = append(rows, models.TeacherColor{ClassID: classID, Teacher: d.Teacher, Color: d.Color})
	}
	return tx.Create(&rows).Error
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if !colorPattern.MatchString(color) {
		return "", apperr.New(apperr.InvalidColor, "%q is not #RRGGBB", color)
	}
	return strings.ToLower(color), nil
}

// validateColorInput normalizes the batch before anything is written.
func validateColorInput(entries []TeacherColorInput) error {
	for i := range entries {
		e := &entries[i]
		e.Teacher = strings.TrimSpace(e.Teacher)
		if e.Teacher == "" {
			return apperr.New(apperr.InvalidTeacher, "teacher must not be empty")
		}
		color, err := normalizeColor(e.Color)
		if err != nil {
			return err
		}
		e.Color = color

		for j := range e.Subjects {
			sub := &e.Subjects[j]
			sub.Subject = strings.TrimSpace(sub.Subject)
			if sub.Subject == "" {
				return apperr.New(apperr.InvalidInput, "subject of %s must not be empty", e.Teacher)
			}
			if sub.Color, err = normalizeColor(sub.Color); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) ListTeacherColors(ctx context.Context, user *models.User, classID uint) ([]TeacherColorSet, error) {
	tx := s.db.WithContext(ctx)
	if _, err := requireRole(tx, user.ID, classID); err != nil {
		return nil, err
	}

	var rows []models.TeacherColor
	if err := tx.Where("class_id = ?", classID).Order("teacher").Order("id").Find(&rows).Error; err != nil {
		return nil, storageErr(err, "list teacher colors")
	}

	out := []TeacherColorSet{}
	index := make(map[string]int)
	for _, r := range rows {
		if r.Subject == nil {
			index[r.Teacher] = len(out)
			out = append(out, TeacherColorSet{ID: r.ID, Teacher: r.Teacher, Color: r.Color, Subjects: []SubjectColor{}})
		}
	}
	for _, r := range rows {
		if r.Subject == nil {
			continue
		}
		i, ok := index[r.Teacher]
		if !ok {
			// Overrides without a base row are orphans from older data.
			continue
		}
		out[i].Subjects = append(out[i].Subjects, SubjectColor{ID: r.ID, Subject: *r.Subject, Color: r.Color})
	}
	return out, nil
}

// SaveTeacherColors reconciles the class's presets with entries. Teachers
// missing from entries are left alone; their subject lists are not.
func (s *Service) SaveTeacherColors(ctx context.Context, user *models.User, classID uint, entries []TeacherColorInput) ([]TeacherColorSet, error) {
	if err := validateColorInput(entries); err != nil {
		return nil, err
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}
		for _, e := range entries {
			if err := saveTeacher(tx, classID, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"class_id": classID, "teachers": len(entries)}).Info("Teacher colors saved")
	return s.ListTeacherColors(ctx, user, classID)
}

func saveTeacher(tx *gorm.DB, classID uint, e TeacherColorInput) error {
	var base models.TeacherColor

	if e.ID != nil {
		err := tx.Where("id = ? AND class_id = ? AND subject IS NULL", *e.ID, classID).First(&base).Error
		if err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "teacher color %d", *e.ID)
			}
			return storageErr(err, "load teacher color")
		}

		if base.Teacher != e.Teacher {
			var clash int64
			err := tx.Model(&models.TeacherColor{}).
				Where("class_id = ? AND teacher = ? AND subject IS NULL", classID, e.Teacher).
				Count(&clash).Error
			if err != nil {
				return storageErr(err, "check teacher rename")
			}
			if clash > 0 {
				return apperr.New(apperr.InvalidTeacher, "teacher %s already exists", e.Teacher)
			}
			err = tx.Model(&models.TeacherColor{}).
				Where("class_id = ? AND teacher = ?", classID, base.Teacher).
				Update("teacher", e.Teacher).Error
			if err != nil {
				return storageErr(err, "rename teacher")
			}
		}
		if err := tx.Model(&models.TeacherColor{}).Where("id = ?", base.ID).Update("color", e.Color).Error; err != nil {
			return storageErr(err, "update teacher color")
		}
	} else {
		err := tx.Where("class_id = ? AND teacher = ? AND subject IS NULL", classID, e.Teacher).First(&base).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.TeacherColor{}).Where("id = ?", base.ID).Update("color", e.Color).Error; err != nil {
				return storageErr(err, "update teacher color")
			}
		case isNotFound(err):
			base = models.TeacherColor{ClassID: classID, Teacher: e.Teacher, Color: e.Color}
			if err := tx.Create(&base).Error; err != nil {
				return storageErr(err, "create teacher color")
			}
		default:
			return storageErr(err, "load teacher color")
		}
	}

	return reconcileSubjects(tx, classID, e.Teacher, e.Subjects)
}

func reconcileSubjects(tx *gorm.DB, classID uint, teacher string, subjects []SubjectColorInput) error {
	var existing []models.TeacherColor
	err := tx.Where("class_id = ? AND teacher = ? AND subject IS NOT NULL", classID, teacher).
		Order("id").
		Find(&existing).Error
	if err != nil {
		return storageErr(err, "load subject colors")
	}

	wanted := make(map[string]string, len(subjects))
	for _, sub := range subjects {
		wanted[sub.Subject] = sub.Color
	}

	seen := make(map[string]bool)
	for _, row := range existing {
		color, keep := wanted[*row.Subject]
		if !keep || seen[*row.Subject] {
			if err := tx.Delete(&models.TeacherColor{}, row.ID).Error; err != nil {
				return storageErr(err, "delete subject color")
			}
			continue
		}
		seen[*row.Subject] = true
		if row.Color != color {
			if err := tx.Model(&models.TeacherColor{}).Where("id = ?", row.ID).Update("color", color).Error; err != nil {
				return storageErr(err, "update subject color")
			}
		}
	}

	for _, sub := range subjects {
		if seen[sub.Subject] {
			continue
		}
		seen[sub.Subject] = true
		subject := sub.Subject
		row := models.TeacherColor{ClassID: classID, Teacher: teacher, Color: wanted[subject], Subject: &subject}
		if err := tx.Create(&row).Error; err != nil {
			return storageErr(err, "create subject color")
		}
	}
	return nil
}

// DeleteTeacherColor removes the teacher's base row and every override.
func (s *Service) DeleteTeacherColor(ctx context.Context, user *models.User, classID uint, teacher string) error {
	teacher = strings.TrimSpace(teacher)
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}
		res := tx.Where("class_id = ? AND teacher = ?", classID, teacher).Delete(&models.TeacherColor{})
		if res.Error != nil {
			return storageErr(res.Error, "delete teacher color")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "teacher %s", teacher)
		}
		return nil
	})
}

// ResetTeacherColors drops every preset of the class and reseeds the defaults.
func (s *Service) ResetTeacherColors(ctx context.Context, user *models.User, classID uint) ([]TeacherColorSet, error) {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", classID).Delete(&models.TeacherColor{}).Error; err != nil {
			return storageErr(err, "clear teacher colors")
		}
		return storageErr(seedDefaultColors(tx, classID), "seed teacher colors")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("class_id", classID).Info("Teacher colors reset")
	return s.ListTeacherColors(ctx, user, classID)
}
