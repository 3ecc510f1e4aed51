package timetable

import "strings"

// Day is a lower-case English weekday name as stored on timetable entries.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days lists the weekdays in calendar order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayAliases = map[string]Day{
	"monday": Monday, "mon": Monday, "montag": Monday, "mo": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "dienstag": Tuesday, "di": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "mittwoch": Wednesday, "mi": Wednesday,
	"thursday": Thursday, "thu": Thursday, "donnerstag": Thursday, "do": Thursday,
	"friday": Friday, "fri": Friday, "freitag": Friday, "fr": Friday,
	"saturday": Saturday, "sat": Saturday, "samstag": Saturday, "sa": Saturday,
	"sunday": Sunday, "sun": Sunday, "sonntag": Sunday, "so": Sunday,
}

// ParseDay accepts English or German weekday names and their short forms.
func ParseDay(s string) (Day, bool) {
	d, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Index returns 1 for Monday through 7 for Sunday, 0 for unknown values.
func (d Day) Index() int {
	for i, day := range Days {
		if day == d {
			return i + 1
		}
	}
	return 0
}
