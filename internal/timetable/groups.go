package timetable

// Expand maps a requested cohort number onto the tag values that count as a
// match. Group 1 is the shared tag seen by both sub-cohorts 2 and 3, and
// asking for 1 means the whole class.
func Expand(group int) []int {
	switch group {
	case 1:
		return []int{1, 2, 3}
	case 2:
		return []int{1, 2}
	case 3:
		return []int{1, 3}
	}
	return []int{group}
}

// Intersects reports whether any tag is in the expanded set.
func Intersects(tags, expanded []int) bool {
	for _, t := range tags {
		for _, e := range expanded {
			if t == e {
				return true
			}
		}
	}
	return false
}
