// Package campus holds vocabulary shared by student-facing records.
package campus

// DailyAttendanceTitle is the title used when attendance is not tied to an event.
const DailyAttendanceTitle = "Daily Attendance"

// YearLevels lists the accepted year levels in order.
var YearLevels = []string{"First Year", "Second Year", "Third Year", "Fourth Year"}

// ValidYearLevel reports whether s is one of YearLevels.
func ValidYearLevel(s string) bool {
	for _, y := range YearLevels {
		if s == y {
			return true
		}
	}
	return false
}
