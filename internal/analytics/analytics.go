// Package analytics computes the administrator dashboard figures from the
// live stores. Nothing is cached; every call reads current data.
package analytics

import (
	"context"
	"sort"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/attendance"
	"eventhub/internal/auth"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/users"
)

// signupWindow bounds the daily activity series.
const signupWindow = 30 * 24 * time.Hour

type UserSource interface {
	List(ctx context.Context, f users.Filter) ([]users.User, error)
}

type EventSource interface {
	List(ctx context.Context) ([]events.Event, error)
}

type AttendanceSource interface {
	List(ctx context.Context, studentID string) ([]attendance.Record, error)
}

type FeedbackSource interface {
	List(ctx context.Context, eventID string) ([]feedback.Feedback, error)
}

// Overview summarizes active accounts.
type Overview struct {
	ActiveUsers  int          `json:"activeUsers"`
	Students     int          `json:"students"`
	Officers     int          `json:"officers"`
	PendingUsers int          `json:"pendingUsers"`
	Daily        []DailyCount `json:"dailyData"`
}

// DailyCount is the number of active accounts created on Date (UTC).
type DailyCount struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"activeUsers"`
}

// EventMetric is one labelled total on the events panel.
type EventMetric struct {
	Name  string `json:"eventName"`
	Count int    `json:"count"`
}

// Bucket counts active students sharing a value.
type Bucket struct {
	Value string `json:"value"`
	Users int    `json:"users"`
}

// RatingCount is the number of feedback entries with a rating.
type RatingCount struct {
	Rating int    `json:"rating"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// Demographics breaks down active students and feedback ratings.
type Demographics struct {
	Courses              []Bucket      `json:"courses"`
	YearLevels           []Bucket      `json:"yearLevels"`
	FeedbackDistribution []RatingCount `json:"feedbackDistribution"`
}

// Service answers the admin analytics queries.
type Service struct {
	users      UserSource
	events     EventSource
	attendance AttendanceSource
	feedback   FeedbackSource
	now        func() time.Time
}

func NewService(u UserSource, e EventSource, a AttendanceSource, f FeedbackSource) *Service {
	return &Service{
		users:      u,
		events:     e,
		attendance: a,
		feedback:   f,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func authorize(p auth.Principal) error {
	if !p.HasRole(auth.RoleAdmin) {
		return apperr.Forbidden("only administrators can view analytics")
	}
	return nil
}

// Overview counts active users by role and active signups per day over the
// last 30 days.
func (s *Service) Overview(ctx context.Context, p auth.Principal) (Overview, error) {
	if err := authorize(p); err != nil {
		return Overview{}, err
	}
	active, err := s.users.List(ctx, users.Filter{Status: auth.StatusActive})
	if err != nil {
		return Overview{}, err
	}
	pending, err := s.users.List(ctx, users.Filter{Status: auth.StatusPending})
	if err != nil {
		return Overview{}, err
	}

	out := Overview{ActiveUsers: len(active), PendingUsers: len(pending), Daily: []DailyCount{}}
	since := s.now().Add(-signupWindow)
	perDay := map[string]int{}
	for _, u := range active {
		switch u.Role {
		case auth.RoleStudent:
			out.Students++
		case auth.RoleOfficer:
			out.Officers++
		}
		if !u.CreatedAt.Before(since) {
			perDay[u.CreatedAt.UTC().Format(time.DateOnly)]++
		}
	}
	for day, n := range perDay {
		out.Daily = append(out.Daily, DailyCount{Date: day, ActiveUsers: n})
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date < out.Daily[j].Date })
	return out, nil
}

// Events returns event, attendance and feedback totals. Rejected events
// count as cancellations.
func (s *Service) Events(ctx context.Context, p auth.Principal) ([]EventMetric, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	evs, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.attendance.List(ctx, "")
	if err != nil {
		return nil, err
	}
	fbs, err := s.feedback.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var cancelled, checkOuts int
	for _, e := range evs {
		if e.Status == events.StatusRejected {
			cancelled++
		}
	}
	for _, r := range recs {
		if r.TimeOut != nil {
			checkOuts++
		}
	}
	return []EventMetric{
		{Name: "Total Events", Count: len(evs)},
		{Name: "Event Check-ins", Count: len(recs)},
		{Name: "Event Check-outs", Count: checkOuts},
		{Name: "Feedback Submissions", Count: len(fbs)},
		{Name: "Event Cancellations", Count: cancelled},
	}, nil
}

var ratingLabels = map[int]string{
	5: "Excellent",
	4: "Good",
	3: "Average",
	2: "Poor",
	1: "Very Poor",
}

// Demographics groups active students by course and year level, largest
// group first, and counts feedback per rating from 5 down to 1.
func (s *Service) Demographics(ctx context.Context, p auth.Principal) (Demographics, error) {
	if err := authorize(p); err != nil {
		return Demographics{}, err
	}
	students, err := s.users.List(ctx, users.Filter{Status: auth.StatusActive, Role: auth.RoleStudent})
	if err != nil {
		return Demographics{}, err
	}
	fbs, err := s.feedback.List(ctx, "")
	if err != nil {
		return Demographics{}, err
	}

	courses := map[string]int{}
	years := map[string]int{}
	for _, u := range students {
		courses[orUnknown(u.Course)]++
		years[orUnknown(u.YearLevel)]++
	}
	ratings := map[int]int{}
	for _, f := range fbs {
		ratings[f.Rating]++
	}

	out := Demographics{Courses: buckets(courses), YearLevels: buckets(years)}
	for r := 5; r >= 1; r-- {
		out.FeedbackDistribution = append(out.FeedbackDistribution, RatingCount{Rating: r, Label: ratingLabels[r], Count: ratings[r]})
	}
	return out, nil
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func buckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for v, n := range counts {
		out = append(out, Bucket{Value: v, Users: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Users != out[j].Users {
			return out[i].Users > out[j].Users
		}
		return out[i].Value < out[j].Value
	})
	return out
}
