package timetable

import (
	"strings"

	"github.com/in-nis/classplan/internal/models"
)

// SameSlot reports whether two entries describe the same lesson in two
// different weeks.
func SameSlot(a, b models.TimetableEntry) bool {
	return a.Day == b.Day &&
		a.Hour == b.Hour &&
		a.Subject == b.Subject &&
		a.Teacher == b.Teacher &&
		a.Room == b.Room
}

// HasNotes reports whether the entry carries non-blank notes.
func HasNotes(e models.TimetableEntry) bool {
	return strings.TrimSpace(e.Notes) != ""
}
