package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/apperr"
	"eventhub/internal/attendance"
	"eventhub/internal/auth"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/users"
)

var (
	admin   = auth.Principal{UserID: "a1", Role: auth.RoleAdmin, Status: auth.StatusActive}
	officer = auth.Principal{UserID: "o1", Role: auth.RoleOfficer, Status: auth.StatusActive}
	now     = time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc  *Service
	user *users.MemoryRepository
	ev   *events.MemoryRepository
	att  *attendance.MemoryRepository
	fb   *feedback.MemoryRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		user: users.NewMemoryRepository(),
		ev:   events.NewMemoryRepository(),
		att:  attendance.NewMemoryRepository(),
		fb:   feedback.NewMemoryRepository(),
	}
	f.svc = NewService(f.user, f.ev, f.att, f.fb)
	f.svc.now = func() time.Time { return now }
	return f
}

func (f fixture) addUser(t *testing.T, id string, role auth.Role, status auth.Status, course, year string, created time.Time) {
	t.Helper()
	_, err := f.user.Create(context.Background(), users.User{
		ID: id, Email: id + "@campus.edu", FullName: id, Role: role, Status: status,
		Course: course, YearLevel: year, CreatedAt: created, UpdatedAt: created,
	})
	require.NoError(t, err)
}

func TestAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Overview(ctx, officer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Events(ctx, officer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Demographics(ctx, auth.Principal{UserID: "x", Role: auth.RoleAdmin, Status: auth.StatusArchived})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := func(d int) time.Time { return time.Date(2026, 5, d, 9, 0, 0, 0, time.UTC) }

	f.addUser(t, "s1", auth.RoleStudent, auth.StatusActive, "BSIT", "First Year", day(30))
	f.addUser(t, "s2", auth.RoleStudent, auth.StatusActive, "BSIT", "First Year", day(30))
	f.addUser(t, "o1", auth.RoleOfficer, auth.StatusActive, "", "", day(20))
	f.addUser(t, "a1", auth.RoleAdmin, auth.StatusActive, "", "", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	f.addUser(t, "p1", auth.RoleStudent, auth.StatusPending, "BSCS", "Second Year", day(31))
	f.addUser(t, "x1", auth.RoleStudent, auth.StatusArchived, "BSCS", "Second Year", day(31))

	got, err := f.svc.Overview(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ActiveUsers)
	assert.Equal(t, 2, got.Students)
	assert.Equal(t, 1, got.Officers)
	assert.Equal(t, 1, got.PendingUsers)
	assert.Equal(t, []DailyCount{
		{Date: "2026-05-20", ActiveUsers: 1},
		{Date: "2026-05-30", ActiveUsers: 2},
	}, got.Daily)
}

func TestEventTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for id, st := range map[string]events.Status{"e1": events.StatusApproved, "e2": events.StatusRejected, "e3": events.StatusPending} {
		_, err := f.ev.Create(ctx, events.Event{ID: id, Title: id, Date: now, Status: st})
		require.NoError(t, err)
	}

	closed := now.Add(time.Hour)
	for _, r := range []attendance.Record{
		{ID: "r1", StudentID: "S-1", Key: attendance.Key("e1", "e1"), TimeIn: now, TimeOut: &closed},
		{ID: "r2", StudentID: "S-2", Key: attendance.Key("e1", "e1"), TimeIn: now},
	} {
		rec := r
		require.NoError(t, f.att.WithKey(ctx, rec.StudentID, rec.Key, func(tx attendance.KeyTx) error {
			return tx.Insert(ctx, rec)
		}))
	}
	_, err := f.fb.Create(ctx, feedback.Feedback{ID: "f1", StudentID: "S-1", EventID: "e1", Message: "great", Rating: 5, CreatedAt: now})
	require.NoError(t, err)

	got, err := f.svc.Events(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []EventMetric{
		{Name: "Total Events", Count: 3},
		{Name: "Event Check-ins", Count: 2},
		{Name: "Event Check-outs", Count: 1},
		{Name: "Feedback Submissions", Count: 1},
		{Name: "Event Cancellations", Count: 1},
	}, got)
}

func TestDemographics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "s1", auth.RoleStudent, auth.StatusActive, "BSIT", "First Year", now)
	f.addUser(t, "s2", auth.RoleStudent, auth.StatusActive, "BSIT", "Second Year", now)
	f.addUser(t, "s3", auth.RoleStudent, auth.StatusActive, "BSCS", "First Year", now)
	f.addUser(t, "p1", auth.RoleStudent, auth.StatusPending, "BSN", "Third Year", now)

	for i, rating := range []int{5, 5, 3, 1} {
		_, err := f.fb.Create(ctx, feedback.Feedback{ID: string(rune('a' + i)), StudentID: "S", EventID: "e1", Rating: rating, CreatedAt: now})
		require.NoError(t, err)
	}

	got, err := f.svc.Demographics(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []Bucket{{Value: "BSIT", Users: 2}, {Value: "BSCS", Users: 1}}, got.Courses)
	assert.Equal(t, []Bucket{{Value: "First Year", Users: 2}, {Value: "Second Year", Users: 1}}, got.YearLevels)
	assert.Equal(t, []RatingCount{
		{Rating: 5, Label: "Excellent", Count: 2},
		{Rating: 4, Label: "Good", Count: 0},
		{Rating: 3, Label: "Average", Count: 1},
		{Rating: 2, Label: "Poor", Count: 0},
		{Rating: 1, Label: "Very Poor", Count: 1},
	}, got.FeedbackDistribution)
}
