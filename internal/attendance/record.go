package attendance

import (
	"fmt"
	"strings"
	"time"
)

// MaxAttempts caps check-ins and check-outs per (student, key).
const MaxAttempts = 2

const (
	StatusCompleted = "completed"
	StatusOngoing   = "ongoing"
)

// Record is one check-in, optionally closed by a check-out.
type Record struct {
	ID        string     `json:"id"`
	Event     string     `json:"event,omitempty"`
	Title     string     `json:"title"`
	Key       string     `json:"-"`
	StudentID string     `json:"studentId"`
	FullName  string     `json:"fullName"`
	YearLevel string     `json:"yearLevel"`
	Course    string     `json:"course"`
	TimeIn    time.Time  `json:"timeIn"`
	TimeOut   *time.Time `json:"timeOut"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Open reports whether the record still waits for a check-out.
func (r Record) Open() bool { return r.TimeOut == nil }

// Entry is a record as shown in listings.
type Entry struct {
	Record
	Duration string `json:"duration,omitempty"`
	Status   string `json:"status"`
}

// Describe derives the listing view of r.
func Describe(r Record) Entry {
	if r.Open() {
		return Entry{Record: r, Status: StatusOngoing}
	}
	return Entry{Record: r, Duration: FormatDuration(r.TimeOut.Sub(r.TimeIn)), Status: StatusCompleted}
}

// FormatDuration renders d starting at its largest non-zero unit among
// hours, minutes and seconds: "1h 1m 1s", "1m 1s", "0s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Key scopes attempt caps: the event id when one is referenced, otherwise
// the title.
func Key(event, title string) string {
	if event = strings.TrimSpace(event); event != "" {
		return "event:" + event
	}
	return "title:" + strings.TrimSpace(title)
}
