package models

import "time"

type Week struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// TimetableEntry is one lesson slot of a week.
type TimetableEntry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	WeekID    uint   `gorm:"not null;index" json:"week_id"`
	Day       string `gorm:"size:10;not null" json:"day"`
	Hour      int    `gorm:"not null" json:"hour"`
	StartTime string `gorm:"size:5" json:"start_time"`
	EndTime   string `gorm:"size:5" json:"end_time"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	Room      string `json:"room"`
	Notes     string `json:"notes"`

	Groups []GroupTag `gorm:"foreignKey:TimetableEntryID" json:"groups,omitempty"`
}

type GroupTag struct {
	ID               uint `gorm:"primaryKey" json:"-"`
	TimetableEntryID uint `gorm:"not null;index" json:"-"`
	GroupNumber      int  `gorm:"not null" json:"group"`
}

// GroupNumbers returns the tag values of the entry.
func (e TimetableEntry) GroupNumbers() []int {
	out := make([]int, 0, len(e.Groups))
	for _, g := range e.Groups {
		out = append(out, g.GroupNumber)
	}
	return out
}
