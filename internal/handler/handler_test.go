package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/analytics"
	"eventhub/internal/attendance"
	"eventhub/internal/auth"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/notify"
	"eventhub/internal/queue"
	"eventhub/internal/users"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	router *gin.Engine
	queue  *queue.InMemory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	q := queue.NewInMemory(16)
	pub := notify.NewPublisher(q)

	userRepo := users.NewMemoryRepository()
	eventRepo := events.NewMemoryRepository()
	attRepo := attendance.NewMemoryRepository()
	fbRepo := feedback.NewMemoryRepository()

	userSvc := users.NewService(userRepo, pub, "admin@campus.edu")
	eventSvc := events.NewService(eventRepo, pub)
	eventSvc.SetCheckInURL("https://events.campus.edu")
	attSvc := attendance.NewService(attRepo, eventSvc)
	fbSvc := feedback.NewService(fbRepo, feedback.NewMemoryForms(), eventSvc)
	analyticsSvc := analytics.NewService(userRepo, eventRepo, attRepo, fbRepo)
	issuer := auth.NewIssuer("eventhub-test", "test-signing-key", time.Hour, 24*time.Hour)

	h := New(userSvc, attSvc, eventSvc, fbSvc, analyticsSvc, issuer)
	r := h.Router(Options{
		Health: func(context.Context) map[string]bool { return map[string]bool{"db": true} },
	})
	return &testServer{router: r, queue: q}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors"`
}

type signupBody struct {
	Message string     `json:"message"`
	User    users.User `json:"user"`
}

func (s *testServer) signup(t *testing.T, body map[string]any) users.User {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[signupBody](t, w).User
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[tokenResponse](t, w).AccessToken
}

func studentBody(email, studentID string) map[string]any {
	return map[string]any{
		"email":     email,
		"password":  "correct-horse",
		"fullName":  "Ana Reyes",
		"studentId": studentID,
		"course":    "BSIT",
		"yearLevel": "First Year",
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "fullName")

	w = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email": "x@campus.edu", "password": "correct-horse", "fullName": "X",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Errors, "studentId")

	s.signup(t, studentBody("dup@campus.edu", "S-9"))
	w = s.do(t, http.MethodPost, "/api/auth/signup", "", studentBody("dup@campus.edu", "S-9"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nobody@campus.edu", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.signup(t, studentBody("ana@campus.edu", "S-1"))
	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ana@campus.edu", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode[tokenResponse](t, w)
	assert.Equal(t, auth.StatusPending, tokens.User.Status)

	w = s.do(t, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@campus.edu", decode[users.User](t, w).Email)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", tokens.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")
}

func TestApprovalAndAttendanceFlow(t *testing.T) {
	s := newTestServer(t)

	admin := s.signup(t, map[string]any{"email": "admin@campus.edu", "password": "correct-horse", "fullName": "Admin"})
	require.Equal(t, auth.RoleAdmin, admin.Role)
	adminToken := s.login(t, "admin@campus.edu")

	student := s.signup(t, studentBody("ana@campus.edu", "S-1"))
	officer := s.signup(t, map[string]any{
		"email": "olga@campus.edu", "password": "correct-horse", "fullName": "Olga", "role": "officer",
	})
	studentToken := s.login(t, "ana@campus.edu")
	officerToken := s.login(t, "olga@campus.edu")

	// Pending accounts hold no privileges.
	w := s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, map[string]any{
		"studentId": "S-1", "fullName": "Ana Reyes", "yearLevel": "First Year", "course": "BSIT",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/users/pending", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]users.User](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/users/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, users.Stats{TotalPending: 2}, decode[users.Stats](t, w))

	w = s.do(t, http.MethodPost, "/api/users/"+student.ID+"/approve", adminToken, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/users/"+student.ID+"/approve", adminToken, map[string]any{"role": "student"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/users/"+officer.ID+"/approve", adminToken, map[string]any{"role": "officer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, s.queue.Len(), "one approval email per approved user")

	w = s.do(t, http.MethodGet, "/api/users/stats", officerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, users.Stats{TotalPending: 0, TotalStudents: 1, TotalOfficers: 1}, decode[users.Stats](t, w))

	w = s.do(t, http.MethodPost, "/api/users/"+admin.ID+"/archive", officerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Officer proposes an event, admin approves it.
	w = s.do(t, http.MethodPost, "/api/events", officerToken, map[string]any{
		"title": "Orientation", "description": "Welcome", "date": "2026-06-01T09:00:00Z", "venue": "Gym",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Event events.Event `json:"event"`
	}](t, w).Event
	assert.Equal(t, "Gym", created.Location)

	w = s.do(t, http.MethodPost, "/api/events/"+created.ID+"/approve", officerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPost, "/api/events/"+created.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, s.queue.Len())

	w = s.do(t, http.MethodGet, "/api/events/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, events.StatusApproved, decode[events.Event](t, w).Status)

	// Attendance session for the event.
	checkIn := map[string]any{
		"studentId": "S-1", "fullName": "Ana Reyes", "yearLevel": "First Year", "course": "BSIT", "event": created.ID,
	}
	w = s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, checkIn)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[attendance.Result](t, w)
	assert.Equal(t, "Orientation", first.Attendance.Title)
	assert.Equal(t, 1, first.RemainingAttempts)

	w = s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, checkIn)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[errorBody](t, w).Code)

	w = s.do(t, http.MethodPost, "/api/attendance/checkout/"+first.Attendance.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/attendance/checkout/"+first.Attendance.ID, studentToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_CLOSED", decode[errorBody](t, w).Code)
	w = s.do(t, http.MethodPost, "/api/attendance/checkout/missing", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, checkIn)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/api/attendance/checkout", studentToken, map[string]any{"studentId": "S-1", "event": created.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/attendance/checkout", studentToken, map[string]any{"studentId": "S-1", "event": created.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_ACTIVE_SESSION", decode[errorBody](t, w).Code)

	w = s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, checkIn)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ATTEMPTS_EXHAUSTED", decode[errorBody](t, w).Code)

	checkIn["event"] = "no-such-event"
	w = s.do(t, http.MethodPost, "/api/attendance/checkin", studentToken, checkIn)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/attendance/student/S-1", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]attendance.Entry](t, w)
	require.Len(t, mine, 2)
	for _, e := range mine {
		assert.Equal(t, attendance.StatusCompleted, e.Status)
		assert.NotEmpty(t, e.Duration)
	}

	w = s.do(t, http.MethodGet, "/api/attendance/student/S-2", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/attendance/all", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/attendance/all", officerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]attendance.Entry](t, w), 2)

	// Feedback on the event.
	w = s.do(t, http.MethodPost, "/api/feedback/submit", studentToken, map[string]any{
		"eventId": created.ID, "message": "Loved it", "rating": 9,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Errors, "rating")
	w = s.do(t, http.MethodPost, "/api/feedback/submit", studentToken, map[string]any{
		"eventId": created.ID, "message": "Loved it", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/feedback/records?eventId="+created.ID, officerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode[[]feedback.Entry](t, w)
	require.Len(t, records, 1)
	assert.Equal(t, "Orientation", records[0].EventTitle)

	w = s.do(t, http.MethodPut, "/api/feedback/forms/"+created.ID, officerToken, map[string]any{"formId": "form-1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/feedback/forms/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "form-1")

	// Deleted accounts lose access immediately.
	w = s.do(t, http.MethodPost, "/api/users/"+student.ID+"/delete", officerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/auth/me", studentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventToolsAndAnalytics(t *testing.T) {
	s := newTestServer(t)

	s.signup(t, map[string]any{"email": "admin@campus.edu", "password": "correct-horse", "fullName": "Admin"})
	adminToken := s.login(t, "admin@campus.edu")
	officer := s.signup(t, map[string]any{
		"email": "olga@campus.edu", "password": "correct-horse", "fullName": "Olga", "role": "officer",
	})
	w := s.do(t, http.MethodPost, "/api/users/"+officer.ID+"/approve", adminToken, map[string]any{"role": "student"})
	require.Equal(t, http.StatusBadRequest, w.Code, "officer signups carry no student profile")
	assert.Contains(t, decode[errorBody](t, w).Errors, "studentId")
	w = s.do(t, http.MethodPost, "/api/users/"+officer.ID+"/approve", adminToken, map[string]any{"role": "officer"})
	require.Equal(t, http.StatusOK, w.Code)
	officerToken := s.login(t, "olga@campus.edu")

	w = s.do(t, http.MethodPost, "/api/events", officerToken, map[string]any{
		"title": "Fair", "description": "Club fair", "date": "2026-06-02T09:00:00Z", "location": "Field",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		Event events.Event `json:"event"`
	}](t, w).Event

	// Pending events do not accept check-ins.
	w = s.do(t, http.MethodPost, "/api/attendance/checkin", officerToken, map[string]any{
		"studentId": "S-7", "fullName": "Ben", "yearLevel": "First Year", "course": "BSIT", "event": created.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[errorBody](t, w).Code)

	w = s.do(t, http.MethodGet, "/api/events/"+created.ID+"/qr", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodGet, "/api/events/"+created.ID+"/qr", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/events/"+created.ID+"/qr", officerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	qr := decode[events.QRCode](t, w)
	assert.Equal(t, "https://events.campus.edu?eventId="+created.ID, qr.URL)
	assert.Contains(t, qr.DataURL, "data:image/png;base64,")

	for _, path := range []string{"/api/analytics/overview", "/api/analytics/events", "/api/analytics/demographics"} {
		w = s.do(t, http.MethodGet, path, officerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		w = s.do(t, http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = s.do(t, http.MethodGet, "/api/analytics/overview", adminToken, nil)
	overview := decode[analytics.Overview](t, w)
	assert.Equal(t, 2, overview.ActiveUsers)
	assert.Equal(t, 1, overview.Officers)

	w = s.do(t, http.MethodGet, "/api/analytics/events", adminToken, nil)
	totals := decode[[]analytics.EventMetric](t, w)
	require.NotEmpty(t, totals)
	assert.Equal(t, analytics.EventMetric{Name: "Total Events", Count: 1}, totals[0])
}
