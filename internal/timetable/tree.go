package timetable

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxHour bounds the lesson hour accepted on import.
const MaxHour = 20

// Tree is the import payload: day name → hour → lessons in that hour.
// Hours are JSON object keys and therefore strings.
type Tree map[string]map[string][]Lesson

type Lesson struct {
	Subject        string        `json:"subject" validate:"max=100"`
	Teacher        string        `json:"teacher" validate:"max=50"`
	Room           string        `json:"room" validate:"max=50"`
	StartTime      string        `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime        string        `json:"end_time" validate:"omitempty,datetime=15:04"`
	Specialization FlexList[int] `json:"specialization" validate:"unique,dive,gt=0"`
}

// Slot is one validated lesson with its resolved position in the week.
type Slot struct {
	Day    Day
	Hour   int
	Lesson Lesson
}

// ValidationError points at the first offending element of a Tree.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Flatten validates the tree and returns its lessons ordered by day, hour and
// position within the hour. Text fields are trimmed.
func Flatten(tree Tree) ([]Slot, error) {
	type hourKey struct {
		day  Day
		hour int
	}
	byHour := make(map[hourKey][]Lesson)
	var keys []hourKey

	dayNames := make([]string, 0, len(tree))
	for name := range tree {
		dayNames = append(dayNames, name)
	}
	sort.Strings(dayNames)

	for _, name := range dayNames {
		day, ok := ParseDay(name)
		if !ok {
			return nil, &ValidationError{Path: name, Reason: "unknown weekday"}
		}

		for hourStr, lessons := range tree[name] {
			path := name + "." + hourStr
			hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
			if err != nil {
				return nil, &ValidationError{Path: path, Reason: "hour is not a number"}
			}
			if hour < 1 || hour > MaxHour {
				return nil, &ValidationError{Path: path, Reason: fmt.Sprintf("hour must be between 1 and %d", MaxHour)}
			}

			for i, l := range lessons {
				l = trimLesson(l)
				if err := validate.Struct(l); err != nil {
					return nil, lessonError(fmt.Sprintf("%s[%d]", path, i), err)
				}
				k := hourKey{day, hour}
				if _, seen := byHour[k]; !seen {
					keys = append(keys, k)
				}
				byHour[k] = append(byHour[k], l)
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day.Index() < keys[j].day.Index()
		}
		return keys[i].hour < keys[j].hour
	})

	var slots []Slot
	for _, k := range keys {
		for _, l := range byHour[k] {
			slots = append(slots, Slot{Day: k.day, Hour: k.hour, Lesson: l})
		}
	}
	return slots, nil
}

func trimLesson(l Lesson) Lesson {
	l.Subject = strings.TrimSpace(l.Subject)
	l.Teacher = strings.TrimSpace(l.Teacher)
	l.Room = strings.TrimSpace(l.Room)
	l.StartTime = strings.TrimSpace(l.StartTime)
	l.EndTime = strings.TrimSpace(l.EndTime)
	return l
}

func lessonError(path string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Path:   path + "." + strings.ToLower(fe.Field()),
			Reason: fmt.Sprintf("failed %q check", fe.Tag()),
		}
	}
	return &ValidationError{Path: path, Reason: err.Error()}
}
